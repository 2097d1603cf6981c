/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package httpcli

import (
	"net/http"
	"net/http/httputil"

	"golang.org/x/net/http2"

	"github.com/mrtnetwork/net-sdk/netstream"
	"github.com/mrtnetwork/net-sdk/sdk"
)

// sender is the single lazily-established connection a Client owns: either an HTTP/1.1
// persistent connection or an HTTP/2 client connection, both built directly on a
// netstream.Stream rather than through net/http's own dialer and pool, since the client
// keeps at most one connection alive at a time.
type sender interface {
	RoundTrip(req *http.Request) (*http.Response, error)
	protocol() sdk.ProtocolPref
	Close() error
}

type http1Sender struct {
	cc *httputil.ClientConn
}

func newHTTP1Sender(stream netstream.Stream) *http1Sender {
	return &http1Sender{cc: httputil.NewClientConn(stream, nil)}
}

func (s *http1Sender) RoundTrip(req *http.Request) (*http.Response, error) { return s.cc.Do(req) }
func (s *http1Sender) protocol() sdk.ProtocolPref                          { return sdk.ProtocolPrefHttp1 }
func (s *http1Sender) Close() error                                       { return s.cc.Close() }

type http2Sender struct {
	cc *http2.ClientConn
}

func newHTTP2Sender(stream netstream.Stream) (*http2Sender, error) {
	cc, err := (&http2.Transport{}).NewClientConn(stream)
	if err != nil {
		return nil, err
	}
	return &http2Sender{cc: cc}, nil
}

func (s *http2Sender) RoundTrip(req *http.Request) (*http.Response, error) { return s.cc.RoundTrip(req) }
func (s *http2Sender) protocol() sdk.ProtocolPref                          { return sdk.ProtocolPrefHttp2 }
func (s *http2Sender) Close() error                                       { return s.cc.Close() }
