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
	"io"

	"github.com/nabbar/evio/buffer"
	"github.com/nabbar/evio/errors"
	"github.com/nabbar/evio/pool"
	"github.com/nabbar/evio/socket"
)

// sendState tracks one in-flight Send: offset/remaining walk the source
// file while each chunk is handed to dest's own write queue, so
// backpressure on the destination socket throttles how fast the source is
// read rather than buffering the whole transfer in memory.
type sendState struct {
	dest      *socket.Socket
	offset    int64
	remaining int64
	chunk     int
}

// Send streams length bytes starting at offset from f to dest by chunked
// read-then-write: each chunk is read on the pool and handed to dest's own
// write queue, so dest's backpressure throttles how fast the source is
// read rather than buffering the whole transfer in memory, and the bytes
// interleave with dest's other writes only at whole-chunk boundaries.
// Only one Send may be in flight per Async; OnDrain fires once the whole
// transfer has been handed off, mirroring the socket-to-socket drain
// signal.
func (f *Async) Send(dest *socket.Socket, offset, length int64) errors.Error {
	if dest == nil || length < 0 {
		return ErrorMisuse.Error(nil)
	}

	f.mu.Lock()
	if !f.opened || f.closing {
		f.mu.Unlock()
		return ErrorInvalidState.Error(nil)
	}
	if f.send != nil {
		f.mu.Unlock()
		return ErrorSend.Error(nil)
	}
	f.send = &sendState{
		dest:      dest,
		offset:    offset,
		remaining: length,
		chunk:     defaultChunkSize,
	}
	f.mu.Unlock()

	f.sendNextChunk()
	return nil
}

func (f *Async) sendNextChunk() {
	f.mu.Lock()
	st := f.send
	h, pl := f.h, f.pl
	if st == nil || h == nil || pl == nil {
		f.mu.Unlock()
		return
	}
	if st.remaining <= 0 {
		f.send = nil
		f.mu.Unlock()
		f.finishSend()
		return
	}
	n := st.chunk
	if int64(n) > st.remaining {
		n = int(st.remaining)
	}
	off := st.offset
	f.mu.Unlock()

	reader, ok := h.(io.ReaderAt)
	if !ok {
		f.mu.Lock()
		f.send = nil
		f.mu.Unlock()
		f.reportError(ErrorSend, ErrUnsupportedSend)
		return
	}

	err := pl.Submit(pool.NewTask(
		func() (any, error) {
			data := make([]byte, n)
			rn, rerr := reader.ReadAt(data, off)
			if rerr == io.EOF && rn > 0 {
				rerr = nil
			}
			return data[:rn], rerr
		},
		func(result any, err error) {
			f.completeSendRead(result, err)
		},
	))
	if err != nil {
		f.mu.Lock()
		f.send = nil
		f.mu.Unlock()
		f.reportError(ErrorSend, err)
	}
}

func (f *Async) completeSendRead(result any, err error) {
	data, _ := result.([]byte)

	if err != nil {
		f.mu.Lock()
		f.send = nil
		f.mu.Unlock()
		f.reportError(ErrorSend, err)
		return
	}

	if len(data) == 0 {
		f.mu.Lock()
		f.send = nil
		f.mu.Unlock()
		f.finishSend()
		return
	}

	f.mu.Lock()
	st := f.send
	if st == nil {
		// Close won the race against this completion; the transfer is
		// abandoned and the chunk dropped.
		f.mu.Unlock()
		return
	}
	dest := st.dest
	st.offset += int64(len(data))
	st.remaining -= int64(len(data))
	f.mu.Unlock()

	buf := buffer.New(data, func(any) {
		f.sendNextChunk()
	}, nil)

	if cerr := dest.Write(buf); cerr != nil {
		f.mu.Lock()
		f.send = nil
		f.mu.Unlock()
		f.reportError(ErrorSend, cerr)
	}
}

func (f *Async) finishSend() {
	f.mu.Lock()
	cb := f.OnDrain
	f.mu.Unlock()

	if cb != nil {
		cb(f)
	}
}
