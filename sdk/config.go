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

import "github.com/mrtnetwork/net-sdk/address"

// Protocol names the single wire protocol a transport speaks for its whole lifetime.
type Protocol uint8

const (
	ProtocolHttp Protocol = iota
	ProtocolGrpc
	ProtocolWebSocket
	ProtocolSocket
)

// Mode selects whether a transport dials the clearnet directly or through the Tor singleton.
type Mode uint8

const (
	ModeClearnet Mode = iota
	ModeTor
)

// TlsMode selects how a TLS stream factory validates the peer certificate.
type TlsMode uint8

const (
	TlsModeSafe TlsMode = iota
	TlsModeDangerous
)

// ProtocolPref picks HTTP/1.1, HTTP/2, or lets ALPN decide (None).
type ProtocolPref uint8

const (
	ProtocolPrefNone ProtocolPref = iota
	ProtocolPrefHttp1
	ProtocolPrefHttp2
)

// Encoding is the per-transport inbound chunk-to-message reassembly policy.
type Encoding uint8

const (
	EncodingRaw Encoding = iota
	EncodingJson
)

// Header is a single ordered (key, value) pair; NetConfig.Http.Headers preserves the order
// the host supplied it in, since some servers are sensitive to header ordering.
type Header struct {
	Key   string
	Value string
}

// HttpOptions configures the HTTP-specific knobs of a NetConfig.
type HttpOptions struct {
	Headers      []Header
	ProtocolPref ProtocolPref `validate:"oneof=0 1 2"`

	// GlobalClient opts a transport into building an ephemeral *http.Client for a request
	// whose URL host differs from NetConfig.Addr.Host, instead of rejecting it. See
	// SPEC_FULL.md §9 ("HTTP alternate-host handling").
	GlobalClient bool
}

// NetConfig is the single configuration record a transport is created from. It is immutable
// once a transport exists, except for the GlobalClient escape hatch documented above.
type NetConfig struct {
	Addr     address.Address
	Protocol Protocol `validate:"oneof=0 1 2 3"`
	Mode     Mode     `validate:"oneof=0 1"`
	TlsMode  TlsMode  `validate:"oneof=0 1"`
	Http     HttpOptions
	Encoding Encoding `validate:"oneof=0 1"`
}

// AlpnList computes the ALPN protocol list a TLS handshake should offer, per SPEC_FULL.md
// §4.2: HTTP/gRPC negotiate on preference, Socket/WebSocket never use ALPN.
func (c NetConfig) AlpnList() []string {
	switch c.Protocol {
	case ProtocolHttp, ProtocolGrpc:
		switch c.Http.ProtocolPref {
		case ProtocolPrefHttp2:
			return []string{"h2"}
		case ProtocolPrefHttp1:
			return []string{"http/1.1"}
		default:
			return []string{"h2", "http/1.1"}
		}
	default:
		return nil
	}
}
