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

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/nabbar/evio/errors"
	"github.com/nabbar/evio/logger"
	"github.com/nabbar/evio/loop"
)

// Task is a unit of blocking work submitted to a Pool. Run executes on a
// worker goroutine; Continuation is posted back to the owning loop.Loop
// and runs there exclusively. A Task must not be reused after submission.
type Task struct {
	// Run performs the blocking operation off the loop goroutine.
	Run func() (result any, err error)
	// Continuation receives Run's result on the loop goroutine. It is
	// skipped entirely if the task was marked orphan before it fired.
	Continuation func(result any, err error)

	orphan atomic.Bool
}

// NewTask builds a Task pairing a blocking operation with its loop-thread
// continuation.
func NewTask(run func() (any, error), continuation func(any, error)) *Task {
	return &Task{Run: run, Continuation: continuation}
}

// Orphan marks the task so its completion is discarded instead of being
// delivered, used when the owning object (e.g. a File) is destroyed while
// the task is still pending or in flight.
func (t *Task) Orphan() {
	t.orphan.Store(true)
}

func (t *Task) isOrphan() bool {
	return t.orphan.Load()
}

// Pool executes submitted Tasks on a fixed worker set and posts their
// completion onto the bound loop.Loop.
type Pool interface {
	// Submit enqueues t for execution. It returns ErrorClosed if the pool
	// has been closed, or ErrorQueueFull if the pool was constructed with
	// a bounded queue that is currently full.
	Submit(t *Task) errors.Error

	// SetLogger installs an optional diagnostic sink for saturation and
	// task failures. Never part of the completion contract.
	SetLogger(fct logger.FuncLog)

	// Close stops accepting new tasks. Tasks already submitted, whether
	// dequeued by a worker or still queued, still run to completion and
	// still post their result; the workers exit once the queue is empty.
	Close() errors.Error
}

var (
	defaultOnce sync.Once
	defaultPool Pool
)

// Default returns a process-lifetime pool, starting its workers lazily on
// first call; l and workers are only used by that first call. file/async
// does not call it: Async.Attach takes whichever pool the caller passes,
// this one or an isolated pool built with New.
func Default(l loop.Loop, workers int) Pool {
	defaultOnce.Do(func() {
		defaultPool = New(l, workers)
	})
	return defaultPool
}
