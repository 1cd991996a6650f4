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

package server

import (
	"golang.org/x/sys/unix"

	loglvl "github.com/nabbar/evio/logger/level"
	"github.com/nabbar/evio/loop"
	"github.com/nabbar/evio/socket"
)

// onAcceptReady drains every pending connection from the listening
// descriptor, handing each one to OnConnection. It stops on would-block,
// swallows per-connection transient failures, and routes resource
// exhaustion through the fatal path with a brief backoff before the
// watcher resumes.
func (s *Server) onAcceptReady(dir loop.Direction, err error) {
	if err != nil {
		s.fatal(err)
		return
	}

	for {
		s.mu.Lock()
		fd := s.fd
		lp := s.lp
		hook := s.OnConnection
		s.mu.Unlock()

		if fd < 0 || lp == nil {
			return
		}

		connFD, peer, e := socket.Accept(fd)
		if e != nil {
			if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
				return
			}
			if socket.IsTransientAcceptError(e) {
				continue
			}
			if socket.IsFatalAcceptError(e) {
				s.fatal(e)
				return
			}
			s.logError("accept failed", e)
			return
		}

		if hook == nil {
			_ = socket.CloseFD(connFD)
			continue
		}

		sk := hook(s, peer)
		if sk == nil {
			_ = socket.CloseFD(connFD)
			continue
		}

		if er := sk.Accepted(connFD, peer); er != nil {
			_ = socket.CloseFD(connFD)
			s.logError("adopting accepted descriptor", er)
			continue
		}

		// Attach arms the socket's watcher and inactivity timer and fires
		// its OnConnect (or starts its TLS handshake) on the same loop.
		if er := sk.Attach(lp); er != nil {
			_ = socket.CloseFD(connFD)
			s.logError("attaching accepted socket", er)
		}
	}
}

// fatal reports a fatal accept-loop error through OnFatal when set, or the
// optional logger otherwise, then pauses accepting for the configured
// backoff so a full descriptor table is not spun on.
func (s *Server) fatal(err error) {
	s.mu.Lock()
	hook := s.OnFatal
	w := s.watcher
	lp := s.lp
	back := s.backoff
	s.mu.Unlock()

	if back <= 0 {
		back = defaultAcceptBackoff
	}

	if hook != nil {
		hook(s, err)
	} else {
		s.logError("accept loop suspended", err)
	}

	if w == nil || lp == nil {
		return
	}

	_ = w.Disable(loop.Read)
	lp.AddTimer(back, func() {
		s.mu.Lock()
		cur := s.watcher
		s.mu.Unlock()

		if cur != nil {
			_ = cur.Enable(loop.Read)
		}
	})
}

func (s *Server) logError(msg string, err error) {
	if s.Log == nil {
		return
	}
	l := s.Log()
	if l == nil {
		return
	}

	ent := l.Entry(loglvl.ErrorLevel, msg)
	ent.ErrorAdd(true, err)
	ent.Log()
}
