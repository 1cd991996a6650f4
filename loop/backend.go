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

import "time"

// readyEvent is one descriptor's readiness/error report from a backend.
type readyEvent struct {
	fd  int
	dir Direction
	err error
}

// backend abstracts the OS-specific readiness mechanism (epoll on linux, or
// the portable poll(2) fallback elsewhere). The core engine in model.go is
// identical across both; only this interface's implementation changes.
type backend interface {
	// register starts watching fd for the given directions.
	register(fd int, dir Direction) error
	// modify updates the watched directions for an already-registered fd.
	modify(fd int, dir Direction) error
	// remove stops watching fd.
	remove(fd int) error
	// wait blocks up to timeout (0 means return immediately, <0 means
	// block indefinitely) and returns the events observed.
	wait(timeout time.Duration) ([]readyEvent, error)
	// wake interrupts a blocked wait call from another goroutine.
	wake() error
	// close releases backend resources.
	close() error
}
