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
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/nabbar/evio/errors"
	"github.com/nabbar/evio/logger"
	loglvl "github.com/nabbar/evio/logger/level"
	"github.com/nabbar/evio/loop"
)

const defaultQueueSize = 4096

// pool is the only Pool implementation: a fixed worker goroutine set
// draining a FIFO submission channel, posting every completion back onto
// the bound loop via loop.Post.
type pool struct {
	lp loop.Loop

	// mu orders Submit sends against the channel close in Close, so a
	// late Submit observes closed instead of sending on a closed channel.
	mu     sync.RWMutex
	submit chan *Task
	closed atomic.Bool
	wg     sync.WaitGroup

	log atomic.Value
}

// New builds a Pool with the given fixed worker count bound to l. workers
// <= 0 defaults to runtime.GOMAXPROCS(0). The submission queue is bounded
// at defaultQueueSize; once full, Submit returns ErrorQueueFull instead of
// blocking the caller, a transient condition the caller may retry.
func New(l loop.Loop, workers int) Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &pool{
		lp:     l,
		submit: make(chan *Task, defaultQueueSize),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *pool) worker() {
	defer p.wg.Done()

	for t := range p.submit {
		result, err := t.Run()
		task := t
		p.lp.Post(func() {
			if task.isOrphan() {
				return
			}
			if task.Continuation != nil {
				task.Continuation(result, err)
			}
		})
	}
}

func (p *pool) Submit(t *Task) errors.Error {
	if t == nil {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed.Load() {
		return ErrorClosed.Error(nil)
	}

	select {
	case p.submit <- t:
		return nil
	default:
		p.logWarn("submission queue saturated, refusing task")
		return ErrorQueueFull.Error(nil)
	}
}

func (p *pool) SetLogger(fct logger.FuncLog) {
	p.log.Store(fct)
}

func (p *pool) logWarn(msg string) {
	v := p.log.Load()
	if v == nil {
		return
	}
	fct, ok := v.(logger.FuncLog)
	if !ok || fct == nil {
		return
	}
	l := fct()
	if l == nil {
		return
	}

	ent := l.Entry(loglvl.WarnLevel, msg)
	ent.Log()
}

func (p *pool) Close() errors.Error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(p.submit)
	return nil
}
