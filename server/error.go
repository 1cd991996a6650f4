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

package server

import "github.com/nabbar/evio/errors"

const (
	ErrorAlreadyListening errors.CodeError = iota + errors.MinPkgServer
	ErrorNotListening
	ErrorAlreadyAttached
	ErrorNotAttached
	ErrorListen
	ErrorAccept
)

func init() {
	errors.RegisterIdFctMessage(ErrorAlreadyListening, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorAlreadyListening:
		return "server is already listening"
	case ErrorNotListening:
		return "server is not listening"
	case ErrorAlreadyAttached:
		return "server is already attached to a loop"
	case ErrorNotAttached:
		return "server is not attached to a loop"
	case ErrorListen:
		return "server listen failed"
	case ErrorAccept:
		return "server accept failed"
	}

	return ""
}
