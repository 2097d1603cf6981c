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

// Package registry is the foreign-boundary surface of this SDK: it owns the process-wide
// instance table, allocates instance and transport IDs, dispatches every request to the right
// Transport under a per-request timeout, and guarantees that closing an instance silences its
// callback before any transport teardown is observable.
package registry

import (
	"context"
	"sync"
	"time"

	libatm "github.com/mrtnetwork/net-sdk/atomic"
	libctx "github.com/mrtnetwork/net-sdk/context"
	"github.com/mrtnetwork/net-sdk/logger"
	"github.com/mrtnetwork/net-sdk/sdk"
	"github.com/mrtnetwork/net-sdk/tornet"
	"github.com/mrtnetwork/net-sdk/transport"
)

const firstInstanceId uint32 = 257

var (
	instances       = libctx.NewConfig[uint32](nil)
	instanceAllocMu sync.Mutex
	nextInstanceId  = libatm.NewValue[uint32]()
)

// CreateInstance allocates a new instance bound to callback and returns its instance_id
// (≥257, unique over any sequence of calls). debug gates this instance's log verbosity; the
// shared debug logger itself is only ever constructed once, on the first debug=true caller.
func CreateInstance(callback sdk.Callback, debug bool) uint32 {
	id := allocInstanceId()

	inst := newInstanceState(id, debug)
	inst.callback.Store(callback)

	instances.Store(id, inst)
	return id
}

func allocInstanceId() uint32 {
	instanceAllocMu.Lock()
	defer instanceAllocMu.Unlock()

	cur := nextInstanceId.Load()
	id := firstInstanceId
	if cur != 0 {
		id = cur + 1
	}

	nextInstanceId.Store(id)
	return id
}

func lookupInstance(instanceId uint32) (*instanceState, bool) {
	v, ok := instances.Load(instanceId)
	if !ok {
		return nil, false
	}
	inst, ok := v.(*instanceState)
	return inst, ok
}

// CreateTransport builds a Transport for cfg under instanceId and registers it, returning its
// transport_id (≥258, unique within the instance) or an error status if instanceId is unknown
// or the underlying client stack failed to construct (e.g. an unparsable URL).
func CreateTransport(instanceId uint32, cfg sdk.NetConfig) (transportId uint32, status sdk.Status) {
	inst, ok := lookupInstance(instanceId)
	if !ok {
		return 0, sdk.StatusInstanceDoesNotExist
	}

	id := inst.allocTransportId()

	tr, err := transport.New(cfg, inst.tlsBase, id, inst.emit())
	if err != nil {
		return 0, transport.StatusFor(err)
	}

	inst.transports.Store(id, tr)
	return id, sdk.StatusOK
}

// Send validates req against instanceId and its transport, then asynchronously dispatches it:
// the synchronous return is a dispatch-time status only, never the eventual result, which
// always arrives (if at all) through the instance's callback.
func Send(instanceId uint32, req sdk.Request) sdk.Status {
	inst, ok := lookupInstance(instanceId)
	if !ok {
		return sdk.StatusInstanceDoesNotExist
	}

	if req.Kind == sdk.KindInitTor || req.Kind == sdk.KindTorInited {
		go inst.handleTor(req)
		return sdk.StatusOK
	}

	tr, ok := inst.transports.Load(req.TransportId)
	if !ok {
		return sdk.StatusTransportNotFound
	}

	if !protocolMatches(tr.Config().Protocol, req.Kind) {
		return sdk.StatusInvalidRequestParameters
	}

	go dispatch(inst, tr, req)
	return sdk.StatusOK
}

// dispatch awaits tr.DoRequest under a per-request timeout and delivers exactly one Response:
// either the transport's own reply, or a synthetic Error{RequestTimeout} if timeout fires
// first. The underlying I/O is not cancelled when the timeout wins; it is merely abandoned
// (spec.md §9's documented Timeout-and-cancellation limitation).
func dispatch(inst *instanceState, tr transport.Transport, req sdk.Request) {
	if req.TimeoutSeconds <= 0 {
		inst.deliver(tr.DoRequest(context.Background(), req))
		return
	}

	timeout := time.Duration(req.TimeoutSeconds * float64(time.Second))
	result := make(chan sdk.Response, 1)

	go func() { result <- tr.DoRequest(context.Background(), req) }()

	select {
	case resp := <-result:
		inst.deliver(resp)
	case <-time.After(timeout):
		inst.deliver(sdk.Response{
			TransportId: req.TransportId,
			RequestId:   req.RequestId,
			Kind:        sdk.PayloadError,
			Status:      sdk.StatusRequestTimeout,
		})
	}
}

func protocolMatches(p sdk.Protocol, kind sdk.RequestKind) bool {
	switch kind {
	case sdk.KindHttp:
		return p == sdk.ProtocolHttp
	case sdk.KindGrpc:
		return p == sdk.ProtocolGrpc
	case sdk.KindSocket:
		return p == sdk.ProtocolSocket || p == sdk.ProtocolWebSocket
	default:
		return false
	}
}

// handleTor routes the two Tor-specific request kinds to the process-wide tornet singleton
// instead of to any transport, since Tor bootstrap is not scoped to a connection.
func (i *instanceState) handleTor(req sdk.Request) {
	switch req.Kind {
	case sdk.KindInitTor:
		if err := tornet.Init(req.InitTor.CacheDir, req.InitTor.StateDir); err != nil {
			i.deliver(sdk.Response{RequestId: req.RequestId, Kind: sdk.PayloadError, Status: transport.StatusFor(err)})
			return
		}
		i.deliver(sdk.Response{RequestId: req.RequestId, Kind: sdk.PayloadTorInited, TorInitedFlag: true})
	case sdk.KindTorInited:
		i.deliver(sdk.Response{RequestId: req.RequestId, Kind: sdk.PayloadTorInited, TorInitedFlag: tornet.Inited()})
	}
}

// CloseTransport removes transportId from instanceId's table and closes it asynchronously,
// emitting one PayloadTransportClosed event once teardown completes.
func CloseTransport(instanceId, transportId uint32) sdk.Status {
	inst, ok := lookupInstance(instanceId)
	if !ok {
		return sdk.StatusInstanceDoesNotExist
	}

	tr, ok := inst.transports.LoadAndDelete(transportId)
	if !ok {
		return sdk.StatusTransportNotFound
	}

	go func() {
		tr.Close()
		inst.deliver(sdk.Response{TransportId: transportId, Kind: sdk.PayloadTransportClosed})
	}()

	return sdk.StatusOK
}

// CloseInstance removes instanceId from the global table, clears its callback slot before
// anything else, then asynchronously closes every transport it owned with no events emitted.
// Closing an unknown instance is idempotent and reports StatusInstanceDoesNotExist.
func CloseInstance(instanceId uint32) sdk.Status {
	v, ok := instances.LoadAndDelete(instanceId)
	if !ok {
		return sdk.StatusInstanceDoesNotExist
	}

	inst, ok := v.(*instanceState)
	if !ok {
		return sdk.StatusInstanceDoesNotExist
	}

	inst.callback.Store(nil)
	go inst.closeAll()

	return sdk.StatusOK
}

var (
	debugLoggerOnce sync.Once
	debugLogger     logger.Logger
)

// acquireLogger returns the shared debug logger (built exactly once, on the first debug=true
// caller across the process) when debug is set, or the package-wide default logger otherwise.
func acquireLogger(debug bool) logger.Logger {
	if !debug {
		return logger.Default()
	}

	debugLoggerOnce.Do(func() {
		debugLogger = logger.New(true)
	})
	return debugLogger
}
