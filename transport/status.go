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
	"github.com/mrtnetwork/net-sdk/address"
	"github.com/mrtnetwork/net-sdk/certificates"
	liberr "github.com/mrtnetwork/net-sdk/errors"
	"github.com/mrtnetwork/net-sdk/grpcclient"
	"github.com/mrtnetwork/net-sdk/httpcli"
	"github.com/mrtnetwork/net-sdk/netstream"
	"github.com/mrtnetwork/net-sdk/sdk"
	"github.com/mrtnetwork/net-sdk/socketclient"
	"github.com/mrtnetwork/net-sdk/tornet"
)

// StatusFor is the exported form of statusFor, used by the registry package when a liberr.Error
// crosses out of this package (e.g. New failing before a Transport exists) and needs the same
// translation DoRequest applies internally.
func StatusFor(err liberr.Error) sdk.Status {
	return statusFor(err)
}

// statusFor maps an error produced anywhere below this package back onto the host-facing
// status table (spec.md §6), since the host never sees a liberr.Error directly, only a
// sdk.Status carried on a Response.
//
// Every client package (httpcli, grpcclient, socketclient) wraps netstream.Dial's failure
// under its own generic ErrorConnect/ErrorSend code, so err.GetCode() alone only ever sees
// that outer wrapping code and never the specific cause underneath it. HasCode walks the
// whole parent chain, so the checks below are ordered most-specific-first: a Tor-not-initialized
// or TLS-handshake failure must be caught before the generic "connect failed" arms that would
// otherwise also match the same wrapped error.
func statusFor(err liberr.Error) sdk.Status {
	if err == nil {
		return sdk.StatusOK
	}

	switch {
	// Tor-specific causes, however many layers they are wrapped under.
	case err.HasCode(netstream.ErrorTorNotInitialized), err.HasCode(tornet.ErrorNotInitialized):
		return sdk.StatusTorClientNotInitialized
	case err.HasCode(tornet.ErrorInvalidConfig):
		return sdk.StatusInvalidTorConfig
	case err.HasCode(tornet.ErrorBootstrapFailed):
		return sdk.StatusTorInitializationFailed
	case err.HasCode(tornet.ErrorNetError):
		return sdk.StatusTorNetError

	// TLS/certificate causes.
	case err.HasCode(netstream.ErrorTlsHandshake),
		err.HasCode(certificates.ErrorParamsEmpty), err.HasCode(certificates.ErrorFileStat),
		err.HasCode(certificates.ErrorFileRead), err.HasCode(certificates.ErrorFileEmpty),
		err.HasCode(certificates.ErrorCertAppend), err.HasCode(certificates.ErrorCertKeyPairLoad),
		err.HasCode(certificates.ErrorCertKeyPairParse), err.HasCode(certificates.ErrorValidatorError):
		return sdk.StatusTlsError

	// Request/parameter validation causes.
	case err.HasCode(address.ErrorInvalidUrl):
		return sdk.StatusInvalidUrl
	case err.HasCode(address.ErrorSchemeMismatch),
		err.HasCode(httpcli.ErrorInvalidMethod), err.HasCode(httpcli.ErrorMismatchHost),
		err.HasCode(grpcclient.ErrorInvalidRequest),
		err.HasCode(ErrorInvalidProtocol), err.HasCode(ErrorKindMismatch):
		return sdk.StatusInvalidRequestParameters

	case err.HasCode(httpcli.ErrorHttp2ConnectionFailed):
		return sdk.StatusHttp2ConnectionFailed

	case err.HasCode(socketclient.ErrorSend), err.HasCode(socketclient.ErrorSocket):
		return sdk.StatusSocketError

	// Generic "connection failed for some unspecified underlying reason" wrapping codes:
	// these are the codes the cases above would otherwise be wrapped under, so they must
	// stay last.
	case err.HasCode(netstream.ErrorDial),
		err.HasCode(httpcli.ErrorConnect), err.HasCode(httpcli.ErrorSend),
		err.HasCode(grpcclient.ErrorConnect), err.HasCode(grpcclient.ErrorSend), err.HasCode(grpcclient.ErrorStream),
		err.HasCode(socketclient.ErrorConnect):
		return sdk.StatusConnectionError

	default:
		return sdk.StatusInternalError
	}
}
