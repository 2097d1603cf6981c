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

// Package httpcli is the HTTP/1.1 and HTTP/2 client: one Client owns at most one lazily
// established connection, negotiated by ALPN and the configured protocol preference, and
// retries sends according to a per-request retry policy.
package httpcli

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/mrtnetwork/net-sdk/address"
	"github.com/mrtnetwork/net-sdk/certificates"
	liberr "github.com/mrtnetwork/net-sdk/errors"
	"github.com/mrtnetwork/net-sdk/netstream"
	"github.com/mrtnetwork/net-sdk/sdk"
	"github.com/mrtnetwork/net-sdk/streambuf"
)

// Client is the HTTP transport's client stack: it owns the NetConfig it was created with and
// the single sender built against that config's host. Requests to another host, allowed
// when NetConfig.Http.GlobalClient is set, use a separate connection that is not kept.
type Client struct {
	mu      sync.Mutex
	cfg     sdk.NetConfig
	tlsBase certificates.TLSConfig

	sender sender
}

// New returns a Client for cfg. No connection is made until the first Send.
func New(cfg sdk.NetConfig, tlsBase certificates.TLSConfig) *Client {
	return &Client{cfg: cfg, tlsBase: tlsBase}
}

// Close tears down the lazily established connection, if any.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sender != nil {
		_ = c.sender.Close()
		c.sender = nil
	}
}

func verifyModeFor(mode sdk.TlsMode) certificates.VerifyMode {
	if mode == sdk.TlsModeDangerous {
		return certificates.VerifyModeDangerous
	}
	return certificates.VerifyModeSafe
}

// connectFor dials and hands back a sender for addr, selecting HTTP/1.1 or HTTP/2 per
// cfg.Http.ProtocolPref and the negotiated ALPN protocol (SPEC_FULL.md §4.2/§4.4).
func (c *Client) connectFor(addr address.Address) (sender, liberr.Error) {
	dialCfg := c.cfg
	dialCfg.Addr = addr
	verify := verifyModeFor(c.cfg.TlsMode)

	switch c.cfg.Http.ProtocolPref {
	case sdk.ProtocolPrefHttp2:
		stream, err := netstream.Dial(dialCfg, c.tlsBase, verify)
		if err != nil {
			return nil, err
		}
		if stream.AlpnProtocol() != "h2" {
			_ = stream.Close()
			return nil, ErrorHttp2ConnectionFailed.Error(nil)
		}
		s, hErr := newHTTP2Sender(stream)
		if hErr != nil {
			_ = stream.Close()
			return nil, ErrorConnect.Error(hErr)
		}
		return s, nil

	case sdk.ProtocolPrefHttp1:
		stream, err := netstream.Dial(dialCfg, c.tlsBase, verify)
		if err != nil {
			return nil, err
		}
		return newHTTP1Sender(stream), nil

	default:
		stream, err := netstream.Dial(dialCfg, c.tlsBase, verify)
		if err != nil {
			return nil, err
		}

		if stream.AlpnProtocol() == "h2" {
			if s, hErr := newHTTP2Sender(stream); hErr == nil {
				return s, nil
			}
			_ = stream.Close()

			stream, err = netstream.Dial(dialCfg, c.tlsBase, verify)
			if err != nil {
				return nil, err
			}
		}

		return newHTTP1Sender(stream), nil
	}
}

// Send performs req against the Client's configured host (or, when the URL names a
// different host and NetConfig.Http.GlobalClient is set, against an ephemeral connection to
// that host), applying the retry policy in req.Retry.
//
// At most req.Retry.MaxRetries+1 attempts are made; the first attempt is not a retry. A
// transport I/O error triggers a full reconnect before the next attempt; a response whose
// status is listed in req.Retry.RetryStatus retries without reconnecting. Non-2xx responses
// always report Raw encoding regardless of the requested encoding.
func (c *Client) Send(req sdk.HttpRequest) (sdk.HttpPayload, liberr.Error) {
	addr, pErr := address.ParseHTTPURL(req.Url)
	if pErr != nil {
		return sdk.HttpPayload{}, pErr
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if _, ok := validMethods[method]; !ok {
		return sdk.HttpPayload{}, ErrorInvalidMethod.Error(nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	hostChanged := addr.Host != c.cfg.Addr.Host || addr.Port != c.cfg.Addr.Port
	if hostChanged && !c.cfg.Http.GlobalClient {
		return sdk.HttpPayload{}, ErrorMismatchHost.Error(nil)
	}

	maxRetries := req.Retry.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := time.Duration(req.Retry.RetryDelayMs) * time.Millisecond

	active := c.sender
	if hostChanged {
		active = nil
	}

	var lastErr liberr.Error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if active == nil {
			s, err := c.connectFor(addr)
			if err != nil {
				lastErr = err
				if attempt < maxRetries {
					time.Sleep(delay)
					continue
				}
				return sdk.HttpPayload{}, lastErr
			}
			active = s
			if !hostChanged {
				c.sender = s
			}
		}

		httpReq, bErr := buildRequest(method, addr, req, c.cfg.Http.Headers, active.protocol())
		if bErr != nil {
			return sdk.HttpPayload{}, bErr
		}

		resp, sendErr := active.RoundTrip(httpReq)
		if sendErr != nil {
			_ = active.Close()
			active = nil
			if !hostChanged {
				c.sender = nil
			}

			lastErr = ErrorSend.Error(sendErr)
			if attempt < maxRetries {
				time.Sleep(delay)
				continue
			}
			return sdk.HttpPayload{}, lastErr
		}

		payload, rErr := readResponse(resp, req.Encoding)
		if rErr != nil {
			return sdk.HttpPayload{}, rErr
		}

		if attempt < maxRetries && retryOnStatus(req.Retry.RetryStatus, payload.Status) {
			time.Sleep(delay)
			continue
		}

		return payload, nil
	}

	return sdk.HttpPayload{}, lastErr
}

var validMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
	http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
	http.MethodOptions: true, http.MethodConnect: true, http.MethodTrace: true,
}

func buildRequest(method string, addr address.Address, req sdk.HttpRequest, defaultHeaders []sdk.Header, pref sdk.ProtocolPref) (*http.Request, liberr.Error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequest(method, req.Url, body)
	if err != nil {
		return nil, ErrorInvalidMethod.Error(err)
	}

	headers := req.Headers
	if headers == nil {
		headers = defaultHeaders
	}
	for _, h := range headers {
		httpReq.Header.Set(h.Key, h.Value)
	}

	if pref == sdk.ProtocolPrefHttp1 {
		httpReq.Host = addr.Host
	}

	return httpReq, nil
}

func retryOnStatus(statuses []int, got int) bool {
	for _, s := range statuses {
		if s == got {
			return true
		}
	}
	return false
}

func readResponse(resp *http.Response, encoding sdk.Encoding) (sdk.HttpPayload, liberr.Error) {
	defer resp.Body.Close()

	body, rErr := io.ReadAll(resp.Body)
	if rErr != nil {
		return sdk.HttpPayload{}, ErrorSend.Error(rErr)
	}

	headers := make([]sdk.Header, 0, len(resp.Header))
	for k, vs := range resp.Header {
		for _, v := range vs {
			headers = append(headers, sdk.Header{Key: k, Value: v})
		}
	}

	isSuccess := resp.StatusCode >= 200 && resp.StatusCode < 300

	var outEncoding sdk.Encoding
	if isSuccess {
		body, outEncoding = streambuf.TryCurrentBuffer(body, encoding)
	} else {
		outEncoding = sdk.EncodingRaw
	}

	return sdk.HttpPayload{
		Status:   resp.StatusCode,
		Body:     body,
		Headers:  headers,
		Encoding: outEncoding,
	}, nil
}
