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
	"sync"

	"github.com/mrtnetwork/net-sdk/certificates"
	"github.com/mrtnetwork/net-sdk/sdk"
	"github.com/mrtnetwork/net-sdk/socketclient"
	"github.com/mrtnetwork/net-sdk/streambuf"
)

// socketTransport wraps one socketclient.Client (raw TCP or WebSocket, picked by cfg.Protocol
// inside socketclient itself). There is no stream_id: the spec gives a socket transport a
// single implicit stream, so Stream.StreamId is always -1 on events this transport emits.
type socketTransport struct {
	mu            sync.Mutex
	cfg           sdk.NetConfig
	transportId   uint32
	client        *socketclient.Client
	emit          Emit
	buf           *streambuf.StreamBuffer
	subscribed    bool
	unsubscribeFn func()
}

const implicitStreamId = -1

func newSocketTransport(cfg sdk.NetConfig, tlsBase certificates.TLSConfig, transportId uint32, emit Emit) *socketTransport {
	return &socketTransport{
		cfg:         cfg,
		transportId: transportId,
		client:      socketclient.New(cfg, tlsBase),
		emit:        emit,
		buf:         streambuf.New(cfg.Encoding),
	}
}

func (t *socketTransport) DoRequest(_ context.Context, req sdk.Request) sdk.Response {
	if req.Kind != sdk.KindSocket {
		return errorResponse(t.transportId, req.RequestId, sdk.StatusInvalidRequestParameters)
	}

	switch req.Socket.Op {
	case sdk.SocketSubscribe:
		return t.subscribe(req.RequestId)
	case sdk.SocketUnsubscribe:
		t.teardown()
		return sdk.Response{TransportId: t.transportId, RequestId: req.RequestId, Kind: sdk.PayloadSocketOk}
	case sdk.SocketSend:
		if err := t.client.Send(req.Socket.Data); err != nil {
			return errorResponse(t.transportId, req.RequestId, statusFor(err))
		}
		return sdk.Response{TransportId: t.transportId, RequestId: req.RequestId, Kind: sdk.PayloadSocketOk}
	default:
		return errorResponse(t.transportId, req.RequestId, sdk.StatusInvalidRequestParameters)
	}
}

// subscribe is idempotent: a transport that is already subscribed just reports success again
// without opening a second reader.
func (t *socketTransport) subscribe(requestId uint32) sdk.Response {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.subscribed {
		return sdk.Response{TransportId: t.transportId, RequestId: requestId, Kind: sdk.PayloadSocketOk}
	}

	events, unsubscribe, err := t.client.Subscribe()
	if err != nil {
		return errorResponse(t.transportId, requestId, statusFor(err))
	}

	t.subscribed = true
	t.unsubscribeFn = unsubscribe
	go t.fanOut(events)

	return sdk.Response{TransportId: t.transportId, RequestId: requestId, Kind: sdk.PayloadSocketOk}
}

// fanOut decodes every inbound chunk through this transport's StreamBuffer (§4.9) before
// emitting it, so Json-mode transports only ever deliver whole documents to the host.
func (t *socketTransport) fanOut(events <-chan socketclient.Event) {
	for ev := range events {
		switch {
		case ev.Err != nil:
			t.emit(sdk.Response{
				TransportId: t.transportId,
				Kind:        sdk.PayloadStreamError,
				Stream:      sdk.StreamPayload{StreamId: implicitStreamId, Status: statusFor(ev.Err)},
			})
			t.markUnsubscribed()
			return
		case ev.Done:
			t.emit(sdk.Response{
				TransportId: t.transportId,
				Kind:        sdk.PayloadStreamClose,
				Stream:      sdk.StreamPayload{StreamId: implicitStreamId, Status: sdk.StatusOK},
			})
			t.markUnsubscribed()
			return
		default:
			for _, msg := range t.buf.Add(ev.Data) {
				t.emit(sdk.Response{
					TransportId: t.transportId,
					Kind:        sdk.PayloadStreamData,
					Stream:      sdk.StreamPayload{StreamId: implicitStreamId, Bytes: msg, Status: sdk.StatusOK},
				})
			}
		}
	}

	// events channel closed without a terminal Done/Err (e.g. the broadcaster dropped this
	// subscriber for lagging) still owes the host a Close so it knows the stream ended.
	t.emit(sdk.Response{
		TransportId: t.transportId,
		Kind:        sdk.PayloadStreamClose,
		Stream:      sdk.StreamPayload{StreamId: implicitStreamId, Status: sdk.StatusOK},
	})
	t.markUnsubscribed()
}

func (t *socketTransport) markUnsubscribed() {
	t.mu.Lock()
	t.subscribed = false
	t.unsubscribeFn = nil
	t.mu.Unlock()
}

// teardown closes the underlying connection, which makes the fan-out reader observe a clean
// close on its own and publish the terminal Close event.
func (t *socketTransport) teardown() {
	t.mu.Lock()
	unsubscribe := t.unsubscribeFn
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	t.client.Close()
}

func (t *socketTransport) Close() {
	t.teardown()
}

func (t *socketTransport) Config() sdk.NetConfig {
	return t.cfg
}
