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

// Package sdk holds the cross-cutting data model the registry, transport and client packages
// all speak: NetConfig, Request, Response, and the host-facing status code table.
package sdk

// Status is the host-facing result code for every synchronous and asynchronous operation.
type Status uint8

const (
	StatusOK                       Status = 100
	StatusInvalidUrl               Status = 1
	StatusTlsError                 Status = 2
	StatusConnectionError          Status = 3
	StatusTorNetError              Status = 4
	StatusSocketError              Status = 10
	StatusHttp2ConnectionFailed    Status = 13
	StatusInvalidRequestParameters Status = 15
	StatusInvalidConfigParameters  Status = 16
	StatusTransportNotFound        Status = 17
	StatusRequestTimeout           Status = 22
	StatusInvalidTorConfig         Status = 23
	StatusTorInitializationFailed  Status = 24
	StatusTorClientNotInitialized  Status = 26
	StatusInternalError            Status = 27
	StatusInstanceDoesNotExist     Status = 28
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInvalidUrl:
		return "InvalidUrl"
	case StatusTlsError:
		return "TlsError"
	case StatusConnectionError:
		return "ConnectionError"
	case StatusTorNetError:
		return "TorNetError"
	case StatusSocketError:
		return "SocketError"
	case StatusHttp2ConnectionFailed:
		return "Http2ConnectionFailed"
	case StatusInvalidRequestParameters:
		return "InvalidRequestParameters"
	case StatusInvalidConfigParameters:
		return "InvalidConfigParameters"
	case StatusTransportNotFound:
		return "TransportNotFound"
	case StatusRequestTimeout:
		return "RequestTimeout"
	case StatusInvalidTorConfig:
		return "InvalidTorConfig"
	case StatusTorInitializationFailed:
		return "TorInitializationFailed"
	case StatusTorClientNotInitialized:
		return "TorClientNotInitialized"
	case StatusInternalError:
		return "InternalError"
	case StatusInstanceDoesNotExist:
		return "InstanceDoesNotExist"
	default:
		return "Unknown"
	}
}
