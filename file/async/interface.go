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

import (
	"errors"
	"io"
)

// ErrUnsupportedSend is the cause wrapped into ErrorSend when the open
// handle does not implement io.ReaderAt. Every handle Async opens does (the
// handle interface embeds it), so a Send from a stdio stream instead fails
// with the error its ReadAt call returns.
var ErrUnsupportedSend = errors.New("handle does not support Send")

// handle is the subset of file/progress.Progress (and of a bare *os.File,
// for the stdio shortcuts) that Async needs on its data path. Keeping it
// narrow lets OpenStdin/OpenStdout/OpenStderr wrap the standard streams
// directly without routing them through file/progress, which only knows
// how to open a path.
type handle interface {
	io.Reader
	io.ReaderAt
	io.Writer
	io.Closer
}

// defaultChunkSize is the chunk size Send reads per pool task, matching
// socket's defaultChunkSize.
const defaultChunkSize = 64 * 1024
