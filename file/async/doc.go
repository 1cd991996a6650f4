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

// Package async implements pseudo-asynchronous file I/O: every syscall that
// may block (open, read, write, close, the chunked reads behind Send) is
// packaged as a pool.Task
// and run off the loop goroutine, with its continuation posted back onto
// the bound loop.Loop exactly like socket.Socket's TLS goroutine work. The
// Async object owns at most one in-flight task per category (open, read,
// write, close, send) rather than racing a second task against the first:
// further writes queue inside the object, ReadStart while a read is in
// flight only updates the buffer, and a second open or a second Send is
// refused with an error.
//
// Async is a plain struct, not an interface: callers set its On* callback
// fields directly after New, mirroring socket.Socket. The object must
// outlive every callback except OnClose, which is always deferred onto the
// loop so the caller may free it from inside the callback.
package async
