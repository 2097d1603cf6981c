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

// Package netstream is the polymorphic byte-stream factory: given a NetConfig it produces a
// net.Conn-compatible stream over one of four concrete stacks (TCP, Tor, TLS over either), and
// exposes the negotiated ALPN protocol once the handshake (if any) has completed.
package netstream

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/mrtnetwork/net-sdk/certificates"
	liberr "github.com/mrtnetwork/net-sdk/errors"
	"github.com/mrtnetwork/net-sdk/sdk"
	"github.com/mrtnetwork/net-sdk/tornet"
)

// DialTimeout bounds the plain TCP/Tor dial step; TLS handshake timing is governed by the
// tls.Conn default (no separate deadline is imposed beyond the dial).
const DialTimeout = 15 * time.Second

// Stream is the capability every transport client is built on: a byte pipe plus, for TLS
// stacks, the negotiated ALPN protocol.
type Stream interface {
	net.Conn
	// AlpnProtocol returns the negotiated ALPN protocol, or "" for a non-TLS stream.
	AlpnProtocol() string
}

type plainStream struct {
	net.Conn
}

func (plainStream) AlpnProtocol() string { return "" }

type tlsStream struct {
	*tls.Conn
}

func (s tlsStream) AlpnProtocol() string {
	return s.ConnectionState().NegotiatedProtocol
}

// Dial opens a Stream for cfg, selecting TCP/Tor/TLS/TLS-over-Tor by (cfg.Addr.TLS, cfg.Mode).
func Dial(cfg sdk.NetConfig, tlsBase certificates.TLSConfig, verify certificates.VerifyMode) (Stream, liberr.Error) {
	inner, err := dialInner(cfg)
	if err != nil {
		return nil, err
	}

	if !cfg.Addr.TLS {
		return plainStream{inner}, nil
	}

	tlsCfg := certificates.NewVerifiedTLSConfig(tlsBase, cfg.Addr.Host, cfg.AlpnList(), verify)

	conn := tls.Client(inner, tlsCfg)
	if hsErr := conn.Handshake(); hsErr != nil {
		_ = inner.Close()
		return nil, ErrorTlsHandshake.Error(hsErr)
	}

	return tlsStream{conn}, nil
}

func dialInner(cfg sdk.NetConfig) (net.Conn, liberr.Error) {
	switch cfg.Mode {
	case sdk.ModeTor:
		if !tornet.Inited() {
			return nil, ErrorTorNotInitialized.Error(nil)
		}
		conn, tErr := tornet.Connect(cfg.Addr.Host, cfg.Addr.Port)
		if tErr != nil {
			return nil, tErr
		}
		return conn, nil

	default:
		conn, dErr := net.DialTimeout("tcp", cfg.Addr.HostPort(), DialTimeout)
		if dErr != nil {
			return nil, ErrorDial.Error(dErr)
		}
		return conn, nil
	}
}
