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

package transport_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mrtnetwork/net-sdk/address"
	"github.com/mrtnetwork/net-sdk/sdk"
	"github.com/mrtnetwork/net-sdk/transport"
)

func httpTestServerAddr(ts *httptest.Server) address.Address {
	host, port, _ := net.SplitHostPort(ts.Listener.Addr().String())
	p, _ := strconv.ParseUint(port, 10, 16)
	return address.Address{Host: host, Port: uint16(p)}
}

var _ = Describe("httpTransport", func() {
	It("forwards an Http request and wraps the reply as PayloadHttp", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer ts.Close()

		cfg := sdk.NetConfig{Addr: httpTestServerAddr(ts), Protocol: sdk.ProtocolHttp}
		tr, err := transport.New(cfg, nil, 1, func(sdk.Response) {})
		Expect(err).To(BeNil())
		defer tr.Close()

		req := sdk.Request{
			TransportId: 1,
			RequestId:   42,
			Kind:        sdk.KindHttp,
			Http:        sdk.HttpRequest{Method: "GET", Url: "http://" + httpTestServerAddr(ts).HostPort() + "/ok"},
		}

		resp := tr.DoRequest(context.Background(), req)
		Expect(resp.Kind).To(Equal(sdk.PayloadHttp))
		Expect(resp.RequestId).To(Equal(uint32(42)))
		Expect(resp.Http.Status).To(Equal(http.StatusOK))
	})

	It("rejects a request whose Kind does not match the transport's protocol", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer ts.Close()

		cfg := sdk.NetConfig{Addr: httpTestServerAddr(ts), Protocol: sdk.ProtocolHttp}
		tr, err := transport.New(cfg, nil, 1, func(sdk.Response) {})
		Expect(err).To(BeNil())
		defer tr.Close()

		resp := tr.DoRequest(context.Background(), sdk.Request{Kind: sdk.KindSocket})
		Expect(resp.Kind).To(Equal(sdk.PayloadError))
		Expect(resp.Status).To(Equal(sdk.StatusInvalidRequestParameters))
	})
})
