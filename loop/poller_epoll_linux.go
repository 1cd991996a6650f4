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

//go:build linux

package loop

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollBackend is the real Linux readiness backend, grounded on the kqueue
// backend shape used for the BSD family, swapped for epoll's edge/level
// triggered event set. A dedicated eventfd provides wake().
type epollBackend struct {
	epfd int
	evfd int

	mu  sync.RWMutex
	dir map[int]Direction
}

func newBackend() (backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	evfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}

	b := &epollBackend{epfd: epfd, evfd: evfd, dir: make(map[int]Direction)}

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, evfd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(evfd),
	}); err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(evfd)
		return nil, err
	}

	return b, nil
}

func epollEvents(dir Direction) uint32 {
	var ev uint32
	if dir.Has(Read) {
		ev |= unix.EPOLLIN
	}
	if dir.Has(Write) {
		ev |= unix.EPOLLOUT
	}
	return ev
}

// register with no direction bits only records the fd; it joins the epoll
// set when a direction is first enabled (modify falls back to ADD), for
// the same mask-ignoring HUP/ERR reason modify deregisters on zero.
func (b *epollBackend) register(fd int, dir Direction) error {
	b.mu.Lock()
	b.dir[fd] = dir
	b.mu.Unlock()

	ev := epollEvents(dir)
	if ev == 0 {
		return nil
	}

	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: ev,
		Fd:     int32(fd),
	})
}

// modify with no direction bits deregisters the fd from the epoll set
// entirely: EPOLLHUP/EPOLLERR are reported regardless of the requested
// mask, so a fully-disabled but still-registered descriptor would spin
// the loop once its peer hangs up.
func (b *epollBackend) modify(fd int, dir Direction) error {
	b.mu.Lock()
	b.dir[fd] = dir
	b.mu.Unlock()

	ev := epollEvents(dir)
	if ev == 0 {
		err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		if err == unix.ENOENT {
			return nil
		}
		return err
	}

	err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: ev,
		Fd:     int32(fd),
	})
	if err == unix.ENOENT {
		return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
			Events: ev,
			Fd:     int32(fd),
		})
	}
	return err
}

func (b *epollBackend) remove(fd int) error {
	b.mu.Lock()
	delete(b.dir, fd)
	b.mu.Unlock()

	err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (b *epollBackend) wait(timeout time.Duration) ([]readyEvent, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	events := make([]unix.EpollEvent, 64)

	n, err := unix.EpollWait(b.epfd, events, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	out := make([]readyEvent, 0, n)
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if fd == b.evfd {
			var buf [8]byte
			_, _ = unix.Read(b.evfd, buf[:])
			continue
		}

		if events[i].Events&unix.EPOLLERR != 0 {
			out = append(out, readyEvent{fd: fd, err: unix.ECONNRESET})
			continue
		}
		// A hangup without an error is surfaced as read readiness so the
		// consumer observes a clean zero-byte read (EOF) instead of a reset.
		if events[i].Events&(unix.EPOLLIN|unix.EPOLLHUP) != 0 {
			out = append(out, readyEvent{fd: fd, dir: Read})
		}
		if events[i].Events&unix.EPOLLOUT != 0 {
			out = append(out, readyEvent{fd: fd, dir: Write})
		}
	}

	return out, nil
}

func (b *epollBackend) wake() error {
	var one [8]byte
	one[0] = 1
	_, err := unix.Write(b.evfd, one[:])
	return err
}

func (b *epollBackend) close() error {
	_ = unix.Close(b.evfd)
	return unix.Close(b.epfd)
}
