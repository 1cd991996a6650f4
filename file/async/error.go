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

package async

import "github.com/nabbar/evio/errors"

const (
	ErrorInvalidState errors.CodeError = iota + errors.MinPkgFileAsync
	ErrorNotAttached
	ErrorAlreadyAttached
	ErrorAlreadyOpen
	ErrorNotOpen
	ErrorClosing
	ErrorOpen
	ErrorRead
	ErrorWrite
	ErrorSend
	ErrorMisuse
)

func init() {
	errors.RegisterIdFctMessage(ErrorInvalidState, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorInvalidState:
		return "file is not in a state allowing this operation"
	case ErrorNotAttached:
		return "file is not attached to a loop/pool"
	case ErrorAlreadyAttached:
		return "file is already attached to a loop/pool"
	case ErrorAlreadyOpen:
		return "file is already open"
	case ErrorNotOpen:
		return "file is not open"
	case ErrorClosing:
		return "file is closing"
	case ErrorOpen:
		return "file open failed"
	case ErrorRead:
		return "file read failed"
	case ErrorWrite:
		return "file write failed"
	case ErrorSend:
		return "file send failed"
	case ErrorMisuse:
		return "invalid use of file API"
	}

	return ""
}
