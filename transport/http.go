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

package transport

import (
	"context"

	"github.com/mrtnetwork/net-sdk/certificates"
	"github.com/mrtnetwork/net-sdk/httpcli"
	"github.com/mrtnetwork/net-sdk/sdk"
)

// httpTransport wraps one httpcli.Client; it has no stream handles since HTTP in this SDK is
// request/response only.
type httpTransport struct {
	cfg         sdk.NetConfig
	transportId uint32
	client      *httpcli.Client
}

func newHttpTransport(cfg sdk.NetConfig, tlsBase certificates.TLSConfig, transportId uint32) *httpTransport {
	return &httpTransport{cfg: cfg, transportId: transportId, client: httpcli.New(cfg, tlsBase)}
}

// DoRequest ignores ctx: the underlying client owns a single lazy connection and its own
// retry/reconnect policy (§4.4), and the request context is not threaded into that socket (see
// the Timeout/cancellation note in the design ledger).
func (t *httpTransport) DoRequest(_ context.Context, req sdk.Request) sdk.Response {
	if req.Kind != sdk.KindHttp {
		return errorResponse(t.transportId, req.RequestId, sdk.StatusInvalidRequestParameters)
	}

	payload, err := t.client.Send(req.Http)
	if err != nil {
		return errorResponse(t.transportId, req.RequestId, statusFor(err))
	}

	return sdk.Response{
		TransportId: t.transportId,
		RequestId:   req.RequestId,
		Kind:        sdk.PayloadHttp,
		Http:        payload,
	}
}

func (t *httpTransport) Close() {
	t.client.Close()
}

func (t *httpTransport) Config() sdk.NetConfig {
	return t.cfg
}
