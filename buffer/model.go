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

package buffer

import (
	"sync/atomic"

	"github.com/nabbar/evio/errors"
)

// ReleaseFunc is invoked exactly once when the library relinquishes a
// Buffer, whether the write it backed succeeded, failed, or was abandoned.
type ReleaseFunc func(token any)

// Buffer is a caller-owned byte range queued for transmission by a Socket
// or File. The library never copies Data; it only advances Cursor as bytes
// are consumed from the head.
type Buffer struct {
	Data    []byte
	Token   any
	Release ReleaseFunc

	cursor   int
	released atomic.Bool
}

// New wraps data with an optional release hook and opaque token.
func New(data []byte, release ReleaseFunc, token any) *Buffer {
	return &Buffer{Data: data, Release: release, Token: token}
}

// Remaining returns the slice of Data not yet consumed from the head.
func (b *Buffer) Remaining() []byte {
	if b == nil || b.cursor >= len(b.Data) {
		return nil
	}
	return b.Data[b.cursor:]
}

// Advance moves the cursor forward by n bytes, as written so far.
func (b *Buffer) Advance(n int) {
	if b == nil {
		return
	}
	b.cursor += n
}

// Done reports whether every byte of Data has been consumed from the head.
func (b *Buffer) Done() bool {
	return b == nil || b.cursor >= len(b.Data)
}

// Len returns the total length of the underlying data, ignoring cursor.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Free invokes the release hook exactly once; subsequent calls are no-ops
// returning ErrorAlreadyReleased so callers can assert exactly-once
// release in tests without panicking on a double-free.
func (b *Buffer) Free() errors.Error {
	if b == nil {
		return ErrorNilPointer.Error(nil)
	}

	if !b.released.CompareAndSwap(false, true) {
		return ErrorAlreadyReleased.Error(nil)
	}

	if b.Release != nil {
		b.Release(b.Token)
	}

	return nil
}

// Released reports whether Free has already run.
func (b *Buffer) Released() bool {
	return b != nil && b.released.Load()
}

// Simple allocates a Buffer that owns a private copy of s; its release
// hook frees that copy. This is the sole allocation performed on the data
// path, mirroring write_simple's single-allocation guarantee.
func Simple(s []byte) *Buffer {
	cp := make([]byte, len(s))
	copy(cp, s)
	return New(cp, func(any) {}, nil)
}
