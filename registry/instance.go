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

package registry

import (
	"math"
	"sync"

	libatm "github.com/mrtnetwork/net-sdk/atomic"
	"github.com/mrtnetwork/net-sdk/certificates"
	"github.com/mrtnetwork/net-sdk/logger"
	"github.com/mrtnetwork/net-sdk/sdk"
	"github.com/mrtnetwork/net-sdk/transport"
)

const firstTransportId uint32 = 258

// instanceState is everything one create_instance call owns: a callback slot, a TLS base every
// transport it creates shares, and the transport table keyed by transport_id.
type instanceState struct {
	id      uint32
	log     logger.Logger
	tlsBase certificates.TLSConfig

	callback libatm.Value[sdk.Callback]

	mu              sync.Mutex
	nextTransportId libatm.Value[uint32]
	transports      libatm.MapTyped[uint32, transport.Transport]
}

func newInstanceState(id uint32, debug bool) *instanceState {
	return &instanceState{
		id:              id,
		log:             acquireLogger(debug),
		tlsBase:         certificates.New(),
		callback:        libatm.NewValue[sdk.Callback](),
		nextTransportId: libatm.NewValue[uint32](),
		transports:      libatm.NewMapTyped[uint32, transport.Transport](),
	}
}

// deliver invokes the current callback with resp, or silently drops it if the callback slot
// has been cleared (instance closed, or never set). This is the single place a Response ever
// reaches the host, for both synchronous replies and asynchronous stream events.
func (i *instanceState) deliver(resp sdk.Response) {
	if cb := i.callback.Load(); cb != nil {
		cb(resp)
	}
}

func (i *instanceState) emit() transport.Emit {
	return i.deliver
}

// allocTransportId hands out the next transport_id for this instance: monotonic starting at
// 258, wrapping back to 258 on uint32 overflow (spec.md §4.8).
func (i *instanceState) allocTransportId() uint32 {
	i.mu.Lock()
	defer i.mu.Unlock()

	cur := i.nextTransportId.Load()

	var id uint32
	switch cur {
	case 0, math.MaxUint32:
		id = firstTransportId
	default:
		id = cur + 1
	}

	i.nextTransportId.Store(id)
	return id
}

// closeAll tears down every transport still registered, emitting no events: used only from
// close_instance, after the callback slot has already been cleared.
func (i *instanceState) closeAll() {
	i.transports.Range(func(id uint32, tr transport.Transport) bool {
		i.transports.Delete(id)
		tr.Close()
		return true
	})
}
