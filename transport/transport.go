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

// Package transport is the per-protocol facade layer: one Transport per transport_id, each
// wrapping exactly one protocol client stack and dispatching requests by their Kind.
package transport

import (
	"context"

	"github.com/mrtnetwork/net-sdk/certificates"
	liberr "github.com/mrtnetwork/net-sdk/errors"
	"github.com/mrtnetwork/net-sdk/sdk"
)

// Transport is the facade every protocol stack presents to the registry.
type Transport interface {
	// DoRequest dispatches req and returns the synchronous reply. For streaming operations
	// (gRPC Stream, Socket Subscribe) the reply only carries the stream's allocation; further
	// events are delivered later through Emit.
	DoRequest(ctx context.Context, req sdk.Request) sdk.Response

	// Close cancels every live stream handle and closes the underlying protocol client.
	Close()

	// Config returns the NetConfig this Transport was created from.
	Config() sdk.NetConfig
}

// Emit delivers an asynchronous stream event (or, in principle, any Response) to whatever the
// owning instance's current callback is; a nil callback at delivery time is the registry's
// concern, not this package's, so Emit is expected to already account for that.
type Emit func(sdk.Response)

// New builds the concrete Transport matching cfg.Protocol.
func New(cfg sdk.NetConfig, tlsBase certificates.TLSConfig, transportId uint32, emit Emit) (Transport, liberr.Error) {
	switch cfg.Protocol {
	case sdk.ProtocolHttp:
		return newHttpTransport(cfg, tlsBase, transportId), nil
	case sdk.ProtocolGrpc:
		return newGrpcTransport(cfg, tlsBase, transportId, emit), nil
	case sdk.ProtocolSocket, sdk.ProtocolWebSocket:
		return newSocketTransport(cfg, tlsBase, transportId, emit), nil
	default:
		return nil, ErrorInvalidProtocol.Error(nil)
	}
}

func errorResponse(transportId, requestId uint32, status sdk.Status) sdk.Response {
	return sdk.Response{TransportId: transportId, RequestId: requestId, Kind: sdk.PayloadError, Status: status}
}
