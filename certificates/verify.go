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

package certificates

import (
	"crypto/tls"
	"crypto/x509"
)

// VerifyMode selects how a peer certificate is validated once the handshake has produced it.
//
// Safe runs the standard chain-and-hostname verification that crypto/tls already performs
// and simply reports whatever error it found. Dangerous re-runs that same verification but
// discards any error it finds, trading security for the ability to reach endpoints with
// self-signed or otherwise non-conforming certificates. Tofu skips verification entirely and
// accepts every certificate on first sight; it exists for completeness but is never selected
// by default.
type VerifyMode uint8

const (
	VerifyModeSafe VerifyMode = iota
	VerifyModeDangerous
	VerifyModeTofu
)

// NewVerifiedTLSConfig returns a *tls.Config derived from base (via TLSConfig.TLS) with its
// ServerName and NextProtos (ALPN) set, and with certificate verification behavior rebound to
// mode. In Safe mode crypto/tls verifies the chain and hostname during the handshake. In
// Dangerous and Tofu modes InsecureSkipVerify is set, so crypto/tls does not verify and only
// the mode's VerifyPeerCertificate callback runs; neither callback fails the handshake.
func NewVerifiedTLSConfig(base TLSConfig, serverName string, alpn []string, mode VerifyMode) *tls.Config {
	if base == nil {
		base = Default
	}

	cfg := base.TLS(serverName)
	cfg.ServerName = serverName

	if len(alpn) > 0 {
		cfg.NextProtos = alpn
	}

	switch mode {
	case VerifyModeTofu:
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = tofuVerify
	case VerifyModeDangerous:
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = dangerousVerify(cfg, serverName)
	default:
		// Safe: leave InsecureSkipVerify false and let crypto/tls run its own
		// chain-and-hostname verification; no VerifyPeerCertificate override needed.
	}

	return cfg
}

// tofuVerify accepts any certificate on first (and every) sight; "trust on first use".
func tofuVerify(_ [][]byte, _ [][]*x509.Certificate) error {
	return nil
}

// dangerousVerify re-runs the same chain-building crypto/tls would have done, but discards
// the result: the callback always returns nil.
func dangerousVerify(cfg *tls.Config, serverName string) func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return nil
		}

		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			c, err := x509.ParseCertificate(raw)
			if err != nil {
				// swallowed: dangerous mode accepts even a certificate that fails to parse
				return nil
			}
			certs = append(certs, c)
		}

		opts := x509.VerifyOptions{
			Roots:         cfg.RootCAs,
			CurrentTime:   cfg.Time(),
			DNSName:       serverName,
			Intermediates: x509.NewCertPool(),
		}

		for _, c := range certs[1:] {
			opts.Intermediates.AddCert(c)
		}

		_, _ = certs[0].Verify(opts)

		return nil
	}
}
