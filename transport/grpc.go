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

	libatm "github.com/mrtnetwork/net-sdk/atomic"
	"github.com/mrtnetwork/net-sdk/certificates"
	"github.com/mrtnetwork/net-sdk/grpcclient"
	"github.com/mrtnetwork/net-sdk/ioutils/mapCloser"
	"github.com/mrtnetwork/net-sdk/sdk"
)

// cancelCloser adapts a context.CancelFunc to io.Closer so it can be registered with
// mapCloser, which only knows how to manage io.Closer instances.
type cancelCloser struct {
	cancel context.CancelFunc
}

func (c cancelCloser) Close() error {
	c.cancel()
	return nil
}

// grpcTransport wraps one grpcclient.Client and tracks every open server-streaming call in a
// per-transport map, keyed by a locally allocated stream_id, so Unsubscribe and transport
// Close can cancel individual or all streams respectively.
type grpcTransport struct {
	mu          sync.Mutex
	cfg         sdk.NetConfig
	transportId uint32
	client      *grpcclient.Client
	emit        Emit
	nextId      libatm.Value[int32]
	streams     map[int32]context.CancelFunc
	rootCtx     context.Context
	rootCancel  context.CancelFunc
	closer      mapCloser.Closer
}

func newGrpcTransport(cfg sdk.NetConfig, tlsBase certificates.TLSConfig, transportId uint32, emit Emit) *grpcTransport {
	ctx, cancel := context.WithCancel(context.Background())

	return &grpcTransport{
		cfg:         cfg,
		transportId: transportId,
		client:      grpcclient.New(cfg, tlsBase),
		emit:        emit,
		nextId:      libatm.NewValue[int32](),
		streams:     make(map[int32]context.CancelFunc),
		rootCtx:     ctx,
		rootCancel:  cancel,
		closer:      mapCloser.New(ctx),
	}
}

func (t *grpcTransport) DoRequest(ctx context.Context, req sdk.Request) sdk.Response {
	if req.Kind != sdk.KindGrpc {
		return errorResponse(t.transportId, req.RequestId, sdk.StatusInvalidRequestParameters)
	}

	switch req.Grpc.Op {
	case sdk.GrpcUnary:
		return t.unary(ctx, req)
	case sdk.GrpcStream:
		return t.startStream(req)
	case sdk.GrpcUnsubscribe:
		t.unsubscribe(req.Grpc.StreamId)
		return sdk.Response{
			TransportId:  t.transportId,
			RequestId:    req.RequestId,
			Kind:         sdk.PayloadGrpcUnsubscribe,
			GrpcStreamId: req.Grpc.StreamId,
		}
	default:
		return errorResponse(t.transportId, req.RequestId, sdk.StatusInvalidRequestParameters)
	}
}

func (t *grpcTransport) unary(ctx context.Context, req sdk.Request) sdk.Response {
	out, err := t.client.Unary(ctx, req.Grpc.Method, req.Grpc.Data)
	if err != nil {
		return errorResponse(t.transportId, req.RequestId, statusFor(err))
	}

	return sdk.Response{
		TransportId: t.transportId,
		RequestId:   req.RequestId,
		Kind:        sdk.PayloadGrpcUnary,
		GrpcBytes:   out,
	}
}

// allocStreamId hands out the next locally-unique stream id for this transport; wrap-around
// is not a concern in practice since a single transport never approaches 2^31 live streams.
func (t *grpcTransport) allocStreamId() int32 {
	id := t.nextId.Load() + 1
	t.nextId.Store(id)
	return id
}

func (t *grpcTransport) startStream(req sdk.Request) sdk.Response {
	handle, err := t.client.Stream(t.rootCtx, req.Grpc.Method, req.Grpc.Data)
	if err != nil {
		return errorResponse(t.transportId, req.RequestId, statusFor(err))
	}

	t.mu.Lock()
	id := t.allocStreamId()
	t.streams[id] = handle.Cancel
	t.mu.Unlock()
	t.closer.Add(cancelCloser{cancel: handle.Cancel})

	go t.fanOut(id, handle)

	return sdk.Response{
		TransportId:  t.transportId,
		RequestId:    req.RequestId,
		Kind:         sdk.PayloadGrpcStreamId,
		GrpcStreamId: id,
	}
}

// fanOut relays handle.Events to the instance callback until the terminal Done/Err event,
// then deregisters the stream. Exactly one of PayloadStreamClose/PayloadStreamError is ever
// emitted per handle, and nothing follows it.
func (t *grpcTransport) fanOut(id int32, handle *grpcclient.StreamHandle) {
	for ev := range handle.Events {
		payload := sdk.StreamPayload{StreamId: id, Status: sdk.StatusOK}

		switch {
		case ev.Err != nil:
			payload.Status = statusFor(ev.Err)
			t.emit(sdk.Response{TransportId: t.transportId, Kind: sdk.PayloadStreamError, Stream: payload})
			t.deregister(id)
			return
		case ev.Done:
			t.emit(sdk.Response{TransportId: t.transportId, Kind: sdk.PayloadStreamClose, Stream: payload})
			t.deregister(id)
			return
		default:
			payload.Bytes = ev.Data
			t.emit(sdk.Response{TransportId: t.transportId, Kind: sdk.PayloadStreamData, Stream: payload})
		}
	}

	// The events channel was closed without an explicit terminal event (e.g. Cancel was
	// called from Unsubscribe); io.EOF-equivalent close, nothing further to emit.
	t.deregister(id)
}

func (t *grpcTransport) deregister(id int32) {
	t.mu.Lock()
	delete(t.streams, id)
	t.mu.Unlock()
}

// unsubscribe is idempotent: an unknown id is a no-op, matching the "unsubscribe twice, both
// succeed" contract.
func (t *grpcTransport) unsubscribe(id int32) {
	t.mu.Lock()
	cancel, ok := t.streams[id]
	delete(t.streams, id)
	t.mu.Unlock()

	if ok {
		cancel()
	}
}

func (t *grpcTransport) Close() {
	t.rootCancel()
	_ = t.closer.Close()
	t.client.Close()
}

func (t *grpcTransport) Config() sdk.NetConfig {
	return t.cfg
}
