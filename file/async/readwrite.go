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
)

// ReadStart arms repeated reads into buf: one read task is in flight at a
// time, each completion delivering its byte count via OnRead and, if still
// started, submitting the next read. n==0 (EOF) stops resubmission without
// requiring a ReadStop call.
func (f *Async) ReadStart(buf []byte) errors.Error {
	f.mu.Lock()
	if !f.opened || f.closing {
		f.mu.Unlock()
		return ErrorInvalidState.Error(nil)
	}
	f.readBuf = buf
	f.readStarted = true
	inFlight := f.readInFlight
	f.mu.Unlock()

	if !inFlight {
		f.submitRead()
	}
	return nil
}

// ReadStop disables resubmission of further read tasks. A read already
// in flight still completes and still delivers its result once, but no
// further task is queued behind it.
func (f *Async) ReadStop() errors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readStarted = false
	return nil
}

func (f *Async) submitRead() {
	f.mu.Lock()
	h, pl, buf := f.h, f.pl, f.readBuf
	if h == nil || pl == nil {
		f.mu.Unlock()
		return
	}
	f.readInFlight = true
	f.mu.Unlock()

	err := pl.Submit(pool.NewTask(
		func() (any, error) {
			n, err := h.Read(buf)
			return n, err
		},
		func(result any, err error) {
			f.completeRead(result, err)
		},
	))
	if err != nil {
		f.mu.Lock()
		f.readInFlight = false
		f.mu.Unlock()
		f.reportError(ErrorRead, err)
	}
}

func (f *Async) completeRead(result any, err error) {
	n, _ := result.(int)

	f.mu.Lock()
	f.readInFlight = false
	started := f.readStarted
	cb := f.OnRead
	f.mu.Unlock()

	if err != nil && err != io.EOF {
		f.reportError(ErrorRead, err)
		return
	}

	if !started {
		// ReadStop ran while this task was in flight: as with Socket,
		// a late zero-length notification may still surface, but non-zero
		// payload from a stopped read is dropped.
		if n == 0 && cb != nil {
			cb(f, 0)
		}
		return
	}

	if cb != nil {
		cb(f, n)
	}

	if n == 0 {
		return
	}

	f.submitRead()
}

// Write enqueues buf for transmission; if no write was already in flight,
// buf's head is submitted immediately. buf.Free runs exactly once
// regardless of how the write resolves.
func (f *Async) Write(buf *buffer.Buffer) errors.Error {
	if buf == nil {
		return ErrorMisuse.Error(nil)
	}

	f.mu.Lock()
	if !f.opened {
		f.mu.Unlock()
		_ = buf.Free()
		return ErrorInvalidState.Error(nil)
	}
	f.writeQ = append(f.writeQ, buf)
	inFlight := f.writeInFlight
	f.mu.Unlock()

	if !inFlight {
		f.submitWrite()
	}
	return nil
}

// WriteSimple is the sole allocation Async performs on the data path: it
// duplicates data into a private buffer released once the write resolves.
func (f *Async) WriteSimple(data []byte) errors.Error {
	return f.Write(buffer.Simple(data))
}

func (f *Async) submitWrite() {
	f.mu.Lock()
	h, pl := f.h, f.pl
	if h == nil || pl == nil || len(f.writeQ) == 0 {
		f.mu.Unlock()
		return
	}
	buf := f.writeQ[0]
	f.writeInFlight = true
	f.mu.Unlock()

	err := pl.Submit(pool.NewTask(
		func() (any, error) {
			for !buf.Done() {
				n, err := h.Write(buf.Remaining())
				if n > 0 {
					buf.Advance(n)
				}
				if err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
		func(_ any, err error) {
			f.completeWrite(buf, err)
		},
	))
	if err != nil {
		f.mu.Lock()
		f.writeInFlight = false
		f.mu.Unlock()
		_ = buf.Free()
		f.reportError(ErrorWrite, err)
	}
}

func (f *Async) completeWrite(buf *buffer.Buffer, err error) {
	_ = buf.Free()

	if err != nil {
		f.reportError(ErrorWrite, err)
	}

	f.mu.Lock()
	f.writeInFlight = false
	if len(f.writeQ) > 0 {
		f.writeQ = f.writeQ[1:]
	}
	f.writeProgress = true
	empty := len(f.writeQ) == 0
	closing := f.closing
	f.mu.Unlock()

	if !empty {
		f.submitWrite()
		return
	}

	f.mu.Lock()
	drained := f.writeProgress
	f.writeProgress = false
	cb := f.OnDrain
	f.mu.Unlock()

	if drained && cb != nil {
		cb(f)
	}

	if closing {
		f.submitClose()
	}
}
