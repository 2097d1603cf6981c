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

package httpcli

import (
	"fmt"

	liberr "github.com/mrtnetwork/net-sdk/errors"
)

const (
	ErrorInvalidMethod liberr.CodeError = iota + liberr.MinPkgHttpCli
	ErrorMismatchHost
	ErrorConnect
	ErrorHttp2ConnectionFailed
	ErrorSend
)

func init() {
	if liberr.ExistInMapMessage(ErrorInvalidMethod) {
		panic(fmt.Errorf("error code collision with package net-sdk/httpcli"))
	}
	liberr.RegisterIdFctMessage(ErrorInvalidMethod, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorInvalidMethod:
		return "invalid http method"
	case ErrorMismatchHost:
		return "request url host does not match the transport's configured host"
	case ErrorConnect:
		return "http connect failed"
	case ErrorHttp2ConnectionFailed:
		return "http/2 was required but the server did not negotiate h2"
	case ErrorSend:
		return "http send failed"
	}

	return liberr.NullMessage
}
