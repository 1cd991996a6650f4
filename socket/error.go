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

package socket

import "github.com/nabbar/evio/errors"

const (
	ErrorInvalidState errors.CodeError = iota + errors.MinPkgSocket
	ErrorNotAttached
	ErrorAlreadyAttached
	ErrorClosing
	ErrorConnect
	ErrorAccept
	ErrorListen
	ErrorWrite
	ErrorRead
	ErrorTLSHandshake
	ErrorTLSRecord
	ErrorTLSShutdown
	ErrorResolve
	ErrorMisuse
)

func init() {
	errors.RegisterIdFctMessage(ErrorInvalidState, getMessage)
}

// Domain classifies an error record handed to OnError: failed syscalls,
// invalid address records, TLS state-machine failures, or misuse of this
// library's own API.
type Domain uint8

const (
	DomainSystem Domain = iota
	DomainResolve
	DomainTLS
	DomainLibrary
)

func (d Domain) String() string {
	switch d {
	case DomainSystem:
		return "system"
	case DomainResolve:
		return "resolve"
	case DomainTLS:
		return "tls"
	case DomainLibrary:
		return "library"
	}
	return "unknown"
}

// DomainOf maps an error produced by this package onto its Domain. Errors
// from other packages classify as DomainLibrary.
func DomainOf(err errors.Error) Domain {
	if err == nil {
		return DomainLibrary
	}

	switch {
	case err.HasCode(ErrorTLSHandshake), err.HasCode(ErrorTLSRecord), err.HasCode(ErrorTLSShutdown):
		return DomainTLS
	case err.HasCode(ErrorResolve):
		return DomainResolve
	case err.HasCode(ErrorConnect), err.HasCode(ErrorAccept), err.HasCode(ErrorListen),
		err.HasCode(ErrorRead), err.HasCode(ErrorWrite):
		return DomainSystem
	}

	return DomainLibrary
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorInvalidState:
		return "socket is not in a state allowing this operation"
	case ErrorNotAttached:
		return "socket is not attached to a loop"
	case ErrorAlreadyAttached:
		return "socket is already attached to a loop"
	case ErrorClosing:
		return "socket is closing"
	case ErrorConnect:
		return "socket connect failed"
	case ErrorAccept:
		return "socket accept failed"
	case ErrorListen:
		return "socket listen failed"
	case ErrorWrite:
		return "socket write failed"
	case ErrorRead:
		return "socket read failed"
	case ErrorTLSHandshake:
		return "TLS handshake failed"
	case ErrorTLSRecord:
		return "TLS record error"
	case ErrorTLSShutdown:
		return "TLS shutdown failed"
	case ErrorResolve:
		return "invalid or unresolvable address record"
	case ErrorMisuse:
		return "invalid use of socket API"
	}

	return ""
}
