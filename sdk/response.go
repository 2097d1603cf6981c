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

// PayloadKind tags which field of Response is populated.
type PayloadKind uint8

const (
	PayloadSocketOk PayloadKind = iota
	PayloadHttp
	PayloadGrpcUnary
	PayloadGrpcStreamId
	PayloadGrpcUnsubscribe
	PayloadStreamData
	PayloadStreamClose
	PayloadStreamError
	PayloadError
	PayloadTransportClosed
	PayloadTorInited
)

// HttpPayload carries an Http{...} response.
type HttpPayload struct {
	Status   int
	Body     []byte
	Headers  []Header
	Encoding Encoding
}

// StreamPayload carries a Stream(Data|Close|Error) event. StreamId is -1 when the protocol
// has no stream identifier (e.g. the single implicit stream of a Socket transport).
type StreamPayload struct {
	StreamId int32
	Bytes    []byte
	Status   Status
}

// Response is what the dispatcher hands back to the host callback, whether it is a
// synchronous reply (RequestId matches the originating Request) or an asynchronous stream
// event (RequestId == 0).
type Response struct {
	TransportId uint32
	RequestId   uint32

	Kind          PayloadKind
	Http          HttpPayload
	GrpcBytes     []byte
	GrpcStreamId  int32
	Stream        StreamPayload
	Status        Status
	TorInitedFlag bool
}

// Callback is the single delivery target an instance is bound to; Response carries its own
// (transport_id, request_id) correlation, so the callback signature needs nothing else.
type Callback func(resp Response)
