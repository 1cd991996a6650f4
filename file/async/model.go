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
	"os"
	"sync"

	"github.com/nabbar/evio/buffer"
	"github.com/nabbar/evio/errors"
	"github.com/nabbar/evio/file/bandwidth"
	"github.com/nabbar/evio/file/perm"
	"github.com/nabbar/evio/file/progress"
	"github.com/nabbar/evio/loop"
	"github.com/nabbar/evio/pool"
)

// Async is a pseudo-asynchronous file handle: every blocking syscall runs
// on a pool.Pool worker, with its result reintegrated into the loop.Loop
// via the callback fields below. Callers set the On* fields directly after
// New, exactly like socket.Socket.
//
// An Async must outlive every callback except OnClose - see doc.go.
type Async struct {
	Data any

	// Limiter, when set before OpenPath, throttles this file's read/write
	// rate by registering itself on the opened file/progress.Progress - the
	// same bytes-per-second mechanism file/bandwidth offers any other
	// progress-tracked handle. Stdio shortcuts never see it: os.Stdin/
	// Stdout/Stderr do not implement progress.Progress.
	Limiter bandwidth.BandWidth

	OnOpen  func(f *Async)
	OnRead  func(f *Async, n int)
	OnDrain func(f *Async)
	OnError func(f *Async, err errors.Error)
	OnClose func(f *Async)

	mu sync.Mutex

	lp loop.Loop
	pl pool.Pool

	path string
	h    handle

	opened        bool
	closing       bool
	closeDeferred bool

	openInFlight bool

	readBuf      []byte
	readStarted  bool
	readInFlight bool

	writeQ        []*buffer.Buffer
	writeInFlight bool
	writeProgress bool

	send *sendState
}

// New creates an Async in its initial, unopened state.
func New() *Async {
	return &Async{}
}

// Path returns the path Async was opened with, or "" for the stdio
// shortcuts or before OpenPath completes. The caller keeps the string
// alive; Async never copies it beyond this field.
func (f *Async) Path() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

// Attach binds f to l for deferred/completion dispatch and to p for
// blocking task execution. Must be called before any Open*.
func (f *Async) Attach(l loop.Loop, p pool.Pool) errors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lp != nil {
		return ErrorAlreadyAttached.Error(nil)
	}
	f.lp = l
	f.pl = p
	return nil
}

// Detach clears the loop/pool bindings without closing the handle or
// aborting in-flight tasks. Their continuations still run on the loop the
// pool posts to and still invoke the On* callbacks; with f.pl nil, no
// follow-up task (the next read, the next queued write) is submitted.
func (f *Async) Detach() errors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lp = nil
	f.pl = nil
	return nil
}

// OpenPath opens name with the given flags/mode off the loop goroutine,
// invoking OnOpen on success or OnError on failure. Only one OpenPath (or
// OpenStdin/Stdout/Stderr) may ever be issued per Async.
func (f *Async) OpenPath(name string, flags int, mode os.FileMode) errors.Error {
	f.mu.Lock()
	if f.opened || f.openInFlight {
		f.mu.Unlock()
		return ErrorAlreadyOpen.Error(nil)
	}
	if f.lp == nil || f.pl == nil {
		f.mu.Unlock()
		return ErrorNotAttached.Error(nil)
	}
	f.openInFlight = true
	f.path = name
	pl := f.pl
	f.mu.Unlock()

	p := perm.ParseFileMode(mode)

	err := pl.Submit(pool.NewTask(
		func() (any, error) {
			return progress.New(name, flags, p.FileMode())
		},
		func(result any, err error) {
			f.completeOpen(result, err)
		},
	))
	if err != nil {
		f.mu.Lock()
		f.openInFlight = false
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *Async) completeOpen(result any, err error) {
	f.mu.Lock()
	f.openInFlight = false
	if err != nil {
		f.mu.Unlock()
		f.reportError(ErrorOpen, err)
		return
	}
	p := result.(progress.Progress)
	f.h = p
	f.opened = true
	lim := f.Limiter
	cb := f.OnOpen
	f.mu.Unlock()

	if lim != nil {
		lim.RegisterIncrement(p, nil)
		lim.RegisterReset(p, nil)
	}

	if cb != nil {
		cb(f)
	}
}

// OpenStdin wraps os.Stdin as f's handle. Stdio descriptors are already
// open, so this completes synchronously - no pool task is submitted.
func (f *Async) OpenStdin() errors.Error {
	return f.openStdio(os.Stdin)
}

// OpenStdout wraps os.Stdout as f's handle.
func (f *Async) OpenStdout() errors.Error {
	return f.openStdio(os.Stdout)
}

// OpenStderr wraps os.Stderr as f's handle.
func (f *Async) OpenStderr() errors.Error {
	return f.openStdio(os.Stderr)
}

func (f *Async) openStdio(fh *os.File) errors.Error {
	f.mu.Lock()
	if f.opened || f.openInFlight {
		f.mu.Unlock()
		return ErrorAlreadyOpen.Error(nil)
	}
	f.h = fh
	f.opened = true
	cb := f.OnOpen
	f.mu.Unlock()

	if cb != nil {
		cb(f)
	}
	return nil
}

func (f *Async) reportError(code errors.CodeError, cause error) {
	f.mu.Lock()
	cb := f.OnError
	f.mu.Unlock()

	if cb != nil {
		cb(f, code.Error(cause))
	}
}

// Close initiates the closing path: further reads are stopped immediately,
// but queued and in-flight writes are left to finish - close queues
// behind current tasks - before the descriptor is
// actually closed. OnClose is always deferred onto the loop, never invoked
// synchronously from Close.
func (f *Async) Close() errors.Error {
	f.mu.Lock()
	if !f.opened {
		f.mu.Unlock()
		return ErrorNotOpen.Error(nil)
	}
	if f.closing {
		f.mu.Unlock()
		return nil
	}
	f.closing = true
	f.readStarted = false
	pending := f.writeInFlight || len(f.writeQ) > 0
	f.mu.Unlock()

	if !pending {
		f.submitClose()
	}
	return nil
}

func (f *Async) submitClose() {
	f.mu.Lock()
	if f.closeDeferred {
		f.mu.Unlock()
		return
	}
	h, pl := f.h, f.pl
	f.mu.Unlock()

	if pl == nil || h == nil {
		f.finalizeClose()
		return
	}

	err := pl.Submit(pool.NewTask(
		func() (any, error) {
			return nil, h.Close()
		},
		func(_ any, err error) {
			if err != nil {
				f.reportError(ErrorMisuse, err)
			}
			f.finalizeClose()
		},
	))
	if err != nil {
		f.finalizeClose()
	}
}

func (f *Async) finalizeClose() {
	f.mu.Lock()
	if f.closeDeferred {
		f.mu.Unlock()
		return
	}
	f.closeDeferred = true
	lp := f.lp
	f.mu.Unlock()

	if lp == nil {
		f.dispatchClose()
		return
	}
	lp.Defer(f.dispatchClose)
}

func (f *Async) dispatchClose() {
	f.mu.Lock()
	cb := f.OnClose
	f.mu.Unlock()

	// Every buffer still queued at close time is released, unwritten, so
	// the release hook still runs exactly once even if Close somehow
	// runs while writes are still pending (e.g. submission failures that
	// never drained the queue through the normal write-continuation path).
	f.drainQueueOnClose()

	if cb != nil {
		cb(f)
	}
}

func (f *Async) drainQueueOnClose() {
	f.mu.Lock()
	q := f.writeQ
	f.writeQ = nil
	f.mu.Unlock()

	for _, b := range q {
		_ = b.Free()
	}
}
