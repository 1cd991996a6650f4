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

package loop

import (
	"time"

	"github.com/nabbar/evio/errors"
	"github.com/nabbar/evio/logger"
)

// Direction is a per-watcher enable bitmask.
type Direction uint8

const (
	Read Direction = 1 << iota
	Write
)

// Has reports whether d includes the given direction bit.
func (d Direction) Has(o Direction) bool {
	return d&o != 0
}

// Callback is invoked on the loop goroutine when a watched descriptor
// becomes ready in the given direction, or when an error is observed on
// the descriptor (err != nil).
type Callback func(dir Direction, err error)

// Watcher is a registration pairing a descriptor and a set of enabled
// directions with a callback. All fields are owned by whichever component
// (socket, server, file/async) registered it.
type Watcher interface {
	// Enable arms the given direction bits in addition to whatever is
	// already armed.
	Enable(dir Direction) errors.Error
	// Disable disarms the given direction bits.
	Disable(dir Direction) errors.Error
	// Close detaches the watcher from the loop entirely.
	Close() errors.Error
}

// Timer is an absolute-delay, one-shot (re-armable) timer bound to a loop.
type Timer interface {
	// Reset rearms the timer to fire after d, replacing any pending fire.
	// d <= 0 disarms the timer without firing it.
	Reset(d time.Duration)
	// Stop disarms the timer without firing it.
	Stop()
}

// Loop is the contract every socket, server, pool and async file object
// binds to. Implementations differ only in how OS readiness is observed;
// the semantics above are identical across backends.
type Loop interface {
	// AddWatcher registers fd for the initial set of directions, invoking
	// cb on the loop goroutine on every readiness/error event until Close.
	AddWatcher(fd int, dir Direction, cb Callback) (Watcher, errors.Error)

	// AddTimer creates a timer bound to this loop; cb runs on the loop
	// goroutine when the timer fires. The timer starts disarmed unless d > 0.
	AddTimer(d time.Duration, cb func()) Timer

	// Defer schedules cb to run on the loop goroutine on the next
	// iteration, after any currently-ready I/O callbacks have run.
	Defer(cb func())

	// Post is the cross-thread entry point: it is safe to call from any
	// goroutine (notably pool workers) and guarantees cb eventually runs
	// on the loop goroutine, with happens-before ordering between the
	// call to Post and the execution of cb.
	Post(cb func())

	// Run blocks the calling goroutine dispatching events until Close is
	// called or the backend's wait call fails (ErrorBackendWait).
	Run() error

	// SetLogger installs an optional diagnostic sink for backend-level
	// failures (wait errors, registration failures). Never part of the
	// callback contract; a nil FuncLog silences diagnostics again.
	SetLogger(fct logger.FuncLog)

	// Close stops the loop and releases backend resources. Further calls
	// are no-ops returning nil; afterwards AddWatcher returns ErrorClosed
	// and Post drops its callback.
	Close() errors.Error
}
