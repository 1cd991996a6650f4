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

//go:build !linux

package loop

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// pollBackend is the portable fallback backend used on every platform
// other than linux (which uses the epoll backend). It is built on the
// POSIX poll(2) call exposed by golang.org/x/sys/unix, re-scanning the
// full descriptor set on every wait call the way a goPoller would loop
// over its registration map, traded for not needing OS-specific event
// structures.
type pollBackend struct {
	mu      sync.Mutex
	dir     map[int]Direction
	wakeR   int
	wakeW   int
}

func newBackend() (backend, error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}

	return &pollBackend{
		dir:   make(map[int]Direction),
		wakeR: fds[0],
		wakeW: fds[1],
	}, nil
}

func (b *pollBackend) register(fd int, dir Direction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dir[fd] = dir
	return nil
}

func (b *pollBackend) modify(fd int, dir Direction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dir[fd] = dir
	return nil
}

func (b *pollBackend) remove(fd int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.dir, fd)
	return nil
}

func (b *pollBackend) wait(timeout time.Duration) ([]readyEvent, error) {
	b.mu.Lock()
	fds := make([]unix.PollFd, 0, len(b.dir)+1)
	order := make([]int, 0, len(b.dir))
	for fd, dir := range b.dir {
		var events int16
		if dir.Has(Read) {
			events |= unix.POLLIN
		}
		if dir.Has(Write) {
			events |= unix.POLLOUT
		}
		// Fully-disabled descriptors stay out of the poll set: POLLHUP
		// and POLLERR are reported regardless of the requested events,
		// and would spin the loop once the peer hangs up.
		if events == 0 {
			continue
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: events})
		order = append(order, fd)
	}
	fds = append(fds, unix.PollFd{Fd: int32(b.wakeR), Events: unix.POLLIN})
	b.mu.Unlock()

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	out := make([]readyEvent, 0, n)
	for i, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		if i == len(fds)-1 {
			var buf [64]byte
			_, _ = unix.Read(b.wakeR, buf[:])
			continue
		}

		fd := order[i]
		if pfd.Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
			out = append(out, readyEvent{fd: fd, err: unix.ECONNRESET})
			continue
		}
		// A hangup without an error is surfaced as read readiness so the
		// consumer observes a clean zero-byte read (EOF) instead of a reset.
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP) != 0 {
			out = append(out, readyEvent{fd: fd, dir: Read})
		}
		if pfd.Revents&unix.POLLOUT != 0 {
			out = append(out, readyEvent{fd: fd, dir: Write})
		}
	}

	return out, nil
}

func (b *pollBackend) wake() error {
	var one [1]byte
	_, err := unix.Write(b.wakeW, one[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (b *pollBackend) close() error {
	_ = unix.Close(b.wakeR)
	_ = unix.Close(b.wakeW)
	return nil
}
