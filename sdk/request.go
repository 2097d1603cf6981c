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

package sdk

// SocketOp selects the Socket-kind request's operation.
type SocketOp uint8

const (
	SocketSubscribe SocketOp = iota
	SocketUnsubscribe
	SocketSend
)

// SocketRequest is the Socket(...) request variant.
type SocketRequest struct {
	Op   SocketOp
	Data []byte
}

// GrpcOp selects the Grpc-kind request's operation.
type GrpcOp uint8

const (
	GrpcUnary GrpcOp = iota
	GrpcStream
	GrpcUnsubscribe
)

// GrpcRequest is the Grpc(...) request variant.
type GrpcRequest struct {
	Op       GrpcOp
	Method   string
	Data     []byte
	StreamId int32
}

// RetryConfig drives the HTTP client's retry-and-reconnect policy (§4.4).
type RetryConfig struct {
	MaxRetries   int
	RetryDelayMs int64
	RetryStatus  []int
}

// HttpRequest is the Http{...} request variant.
type HttpRequest struct {
	Method   string
	Url      string
	Body     []byte
	Headers  []Header // nil means "use the transport's configured default headers"
	Encoding Encoding
	Retry    RetryConfig
}

// RequestKind tags which of the mutually-exclusive request payloads is populated.
type RequestKind uint8

const (
	KindSocket RequestKind = iota
	KindGrpc
	KindHttp
	KindInitTor
	KindTorInited
)

// InitTorRequest is the InitTor{...} request variant.
type InitTorRequest struct {
	CacheDir string
	StateDir string
}

// Request is one unit of work the host asks a transport (or, for Tor requests, the registry)
// to perform. Exactly one of the Socket/Grpc/Http/InitTor fields is meaningful, selected by
// Kind; TorInited carries no payload.
type Request struct {
	TransportId    uint32
	RequestId      uint32
	TimeoutSeconds float64

	Kind    RequestKind
	Socket  SocketRequest
	Grpc    GrpcRequest
	Http    HttpRequest
	InitTor InitTorRequest
}
