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
	"container/heap"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/evio/errors"
	"github.com/nabbar/evio/logger"
	loglvl "github.com/nabbar/evio/logger/level"
)

// core is the backend-agnostic event loop engine. Every exported Loop
// implementation embeds it and supplies a concrete backend.
type core struct {
	be backend

	mu       sync.Mutex
	watchers map[int]*watcherImpl
	timers   timerHeap
	deferred []func()

	wake        chan func()
	closed      atomic.Bool
	running     atomic.Bool
	nextTimerID uint64

	log atomic.Value
}

func newCore(be backend) *core {
	return &core{
		be:       be,
		watchers: make(map[int]*watcherImpl),
		wake:     make(chan func(), 1024),
	}
}

func (c *core) AddWatcher(fd int, dir Direction, cb Callback) (Watcher, errors.Error) {
	if fd < 0 {
		return nil, ErrorInvalidFD.Error(nil)
	}
	if c.closed.Load() {
		return nil, ErrorClosed.Error(nil)
	}

	w := &watcherImpl{core: c, fd: fd, dir: dir, cb: cb}

	c.mu.Lock()
	c.watchers[fd] = w
	c.mu.Unlock()

	if err := c.be.register(fd, dir); err != nil {
		c.mu.Lock()
		delete(c.watchers, fd)
		c.mu.Unlock()
		c.logError("watcher registration failed", err)
		return nil, ErrorBackendRegister.Error(err)
	}

	return w, nil
}

func (c *core) AddTimer(d time.Duration, cb func()) Timer {
	c.mu.Lock()
	c.nextTimerID++
	id := c.nextTimerID
	c.mu.Unlock()

	t := &timerImpl{core: c, id: id, cb: cb}
	if d > 0 {
		t.Reset(d)
	}
	return t
}

func (c *core) Defer(cb func()) {
	c.mu.Lock()
	c.deferred = append(c.deferred, cb)
	c.mu.Unlock()
	_ = c.be.wake()
}

func (c *core) Post(cb func()) {
	if c.closed.Load() {
		return
	}
	// Safe from any goroutine but the loop's own: the channel is buffered
	// and drained only by Run, so a pool worker blocking here cannot
	// deadlock the loop goroutine.
	c.wake <- cb
	_ = c.be.wake()
}

func (c *core) SetLogger(fct logger.FuncLog) {
	c.log.Store(fct)
}

func (c *core) logError(msg string, err error) {
	v := c.log.Load()
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

	ent := l.Entry(loglvl.ErrorLevel, msg)
	ent.ErrorAdd(true, err)
	ent.Log()
}

func (c *core) Close() errors.Error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.be.close(); err != nil {
		return ErrorClosed.Error(err)
	}
	return nil
}

// Run dispatches events until Close is called. Only one goroutine may call
// Run for a given Loop at a time.
func (c *core) Run() error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrorAlreadyRunning.Error(nil)
	}
	defer c.running.Store(false)

	for !c.closed.Load() {
		timeout := c.nextTimeout()

		events, err := c.be.wait(timeout)
		if err != nil {
			if c.closed.Load() {
				return nil
			}
			c.logError("event loop wait failed", err)
			return ErrorBackendWait.Error(err)
		}

		for _, ev := range events {
			c.mu.Lock()
			w := c.watchers[ev.fd]
			var enabled Direction
			if w != nil {
				enabled = w.dir
			}
			c.mu.Unlock()
			if w == nil {
				continue
			}
			if ev.err != nil {
				w.cb(ev.dir, ev.err)
				continue
			}
			// Deliver only the directions the watcher has enabled; a
			// backend may still report others (e.g. a hangup mapped to
			// read readiness while reads are disabled).
			if d := ev.dir & enabled; d != 0 {
				w.cb(d, nil)
			}
		}

		c.drainPosted()
		c.fireExpiredTimers()
		c.drainDeferred()
	}

	return nil
}

func (c *core) nextTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.deferred) > 0 {
		return 0
	}
	if len(c.timers) == 0 {
		return 50 * time.Millisecond
	}
	d := time.Until(c.timers[0].at)
	if d < 0 {
		return 0
	}
	return d
}

func (c *core) drainPosted() {
	for {
		select {
		case fn := <-c.wake:
			fn()
		default:
			return
		}
	}
}

func (c *core) drainDeferred() {
	c.mu.Lock()
	batch := c.deferred
	c.deferred = nil
	c.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
}

func (c *core) fireExpiredTimers() {
	now := time.Now()

	for {
		c.mu.Lock()
		if len(c.timers) == 0 || c.timers[0].at.After(now) {
			c.mu.Unlock()
			return
		}
		t := heap.Pop(&c.timers).(*timerEntry)
		c.mu.Unlock()

		if t.cb != nil {
			t.cb()
		}
	}
}

func (c *core) removeWatcher(fd int) errors.Error {
	c.mu.Lock()
	_, ok := c.watchers[fd]
	delete(c.watchers, fd)
	c.mu.Unlock()

	if !ok {
		return ErrorWatcherNotFound.Error(nil)
	}
	if err := c.be.remove(fd); err != nil {
		return ErrorClosed.Error(err)
	}
	return nil
}

func (c *core) modifyWatcher(fd int, dir Direction) errors.Error {
	if err := c.be.modify(fd, dir); err != nil {
		return ErrorBackendRegister.Error(err)
	}
	return nil
}

// watcherImpl implements Watcher over core.
type watcherImpl struct {
	core *core
	fd   int
	dir  Direction
	cb   Callback
}

func (w *watcherImpl) Enable(dir Direction) errors.Error {
	w.core.mu.Lock()
	w.dir |= dir
	d := w.dir
	w.core.mu.Unlock()
	return w.core.modifyWatcher(w.fd, d)
}

func (w *watcherImpl) Disable(dir Direction) errors.Error {
	w.core.mu.Lock()
	w.dir &^= dir
	d := w.dir
	w.core.mu.Unlock()
	return w.core.modifyWatcher(w.fd, d)
}

func (w *watcherImpl) Close() errors.Error {
	return w.core.removeWatcher(w.fd)
}

// timerEntry is one entry in the core's min-heap of pending timers.
type timerEntry struct {
	id    uint64
	at    time.Time
	cb    func()
	index int
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// timerImpl implements Timer over core, identified by id so a stale Reset
// after removal is a no-op rather than resurrecting a dangling entry.
type timerImpl struct {
	core  *core
	id    uint64
	cb    func()
	entry *timerEntry
}

func (t *timerImpl) Reset(d time.Duration) {
	t.core.mu.Lock()
	defer t.core.mu.Unlock()

	if t.entry != nil && t.entry.index >= 0 {
		heap.Remove(&t.core.timers, t.entry.index)
		t.entry = nil
	}

	if d <= 0 {
		return
	}

	e := &timerEntry{id: t.id, at: time.Now().Add(d), cb: t.cb}
	heap.Push(&t.core.timers, e)
	t.entry = e

	// The loop may be blocked in a long wait computed before this timer
	// existed; kick it so the next timeout accounts for it.
	_ = t.core.be.wake()
}

func (t *timerImpl) Stop() {
	t.core.mu.Lock()
	defer t.core.mu.Unlock()

	if t.entry != nil && t.entry.index >= 0 {
		heap.Remove(&t.core.timers, t.entry.index)
	}
	t.entry = nil
}
