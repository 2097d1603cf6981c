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

// Package address parses a raw URL into the decomposed (host, port, tls) tuple the rest of
// the SDK routes on. Only the scheme, host and port matter past this package; everything else
// in the URL is retained solely for diagnostics.
package address

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	liberr "github.com/mrtnetwork/net-sdk/errors"
)

// Address is the resolved routing tuple for a remote endpoint. Url is kept only for
// diagnostic rebinding; every decision downstream uses Host/Port/TLS.
type Address struct {
	Host string
	Port uint16
	TLS  bool
	Url  string
}

var httpSchemes = map[string]bool{"http": false, "https": true}
var wsSchemes = map[string]bool{"ws": false, "wss": true}
var tcpSchemes = map[string]bool{"tcp": false, "tls": true, "tcp+tls": true}

// ParseHTTPURL accepts http:// and https:// and returns the resolved Address.
func ParseHTTPURL(raw string) (Address, liberr.Error) {
	return parse(raw, httpSchemes)
}

// ParseWSURL accepts ws:// and wss:// and returns the resolved Address.
func ParseWSURL(raw string) (Address, liberr.Error) {
	return parse(raw, wsSchemes)
}

// ParseTCPURL accepts tcp://, tls:// and tcp+tls:// and returns the resolved Address.
func ParseTCPURL(raw string) (Address, liberr.Error) {
	return parse(raw, tcpSchemes)
}

func parse(raw string, accepted map[string]bool) (Address, liberr.Error) {
	if strings.TrimSpace(raw) == "" {
		return Address{}, ErrorInvalidUrl.Error(nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Address{}, ErrorInvalidUrl.Error(err)
	} else if u.Host == "" {
		return Address{}, ErrorInvalidUrl.Error(nil)
	}

	tls, ok := accepted[strings.ToLower(u.Scheme)]
	if !ok {
		return Address{}, ErrorSchemeMismatch.Error(nil)
	}

	host := u.Hostname()
	if host == "" {
		return Address{}, ErrorInvalidUrl.Error(nil)
	}

	var port uint16
	if p := u.Port(); p != "" {
		n, e := strconv.ParseUint(p, 10, 16)
		if e != nil {
			return Address{}, ErrorInvalidUrl.Error(e)
		}
		port = uint16(n)
	} else if tls {
		port = 443
	} else {
		port = 80
	}

	return Address{
		Host: host,
		Port: port,
		TLS:  tls,
		Url:  raw,
	}, nil
}

// HostPort renders the Address as a net.Dial-compatible "host:port" string.
func (a Address) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.FormatUint(uint64(a.Port), 10))
}
