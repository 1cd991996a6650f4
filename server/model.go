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
	"net"
	"sync"
	"time"

	"github.com/nabbar/evio/errors"
	"github.com/nabbar/evio/logger"
	"github.com/nabbar/evio/loop"
	"github.com/nabbar/evio/socket"
	skcfg "github.com/nabbar/evio/socket/config"
)

// OnConnection is invoked for every accepted connection. Returning nil
// rejects it: the server closes the accepted descriptor without further
// ceremony. A non-nil return must be a freshly-initialized *socket.Socket
// (via socket.New, with its On* callbacks and optional TLS session
// already configured) - the server assigns its descriptor and peer
// address, attaches it to the loop, and invokes its OnConnect.
type OnConnection func(srv *Server, addr net.Addr) *socket.Socket

// OnFatal reports a fatal accept-loop error (EMFILE, ENFILE). Absent a
// hook, the server logs through Log (if set) and backs off briefly
// before resuming Accept.
type OnFatal func(srv *Server, err error)

// Server listens on a bound address, accepts connections, and delegates
// socket construction to OnConnection. It never invokes an application
// protocol: framing and payload handling are entirely the accepted
// Socket's concern.
type Server struct {
	OnConnection OnConnection
	OnFatal      OnFatal
	Log          logger.FuncLog

	cfg skcfg.Server

	mu      sync.Mutex
	fd      int
	addr    net.Addr
	lp      loop.Loop
	watcher loop.Watcher
	backoff time.Duration
}

const defaultAcceptBackoff = 5 * time.Millisecond

// New builds a Server that will listen per cfg once Listen is called.
func New(cfg skcfg.Server) *Server {
	return &Server{cfg: cfg, fd: -1, backoff: cfg.AcceptBackoff.Time()}
}

// Listen creates, binds and listens on cfg's address. It does not attach
// to a loop: call Attach afterward to start accepting connections.
func (s *Server) Listen() errors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fd >= 0 {
		return ErrorAlreadyListening.Error(nil)
	}
	if err := s.cfg.Validate(); err != nil {
		return ErrorListen.Error(err)
	}

	fd, addr, err := socket.Listen(s.cfg)
	if err != nil {
		return ErrorListen.Error(err)
	}

	s.fd = fd
	s.addr = addr
	return nil
}

// Attach arms the accept watcher on l. The server may be re-attached
// after Detach.
func (s *Server) Attach(l loop.Loop) errors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fd < 0 {
		return ErrorNotListening.Error(nil)
	}
	if s.watcher != nil {
		return ErrorAlreadyAttached.Error(nil)
	}

	w, err := l.AddWatcher(s.fd, loop.Read, s.onAcceptReady)
	if err != nil {
		return err
	}

	s.lp = l
	s.watcher = w
	return nil
}

// Detach disarms the accept watcher without closing the listening
// descriptor.
func (s *Server) Detach() errors.Error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w == nil {
		return ErrorNotAttached.Error(nil)
	}
	return w.Close()
}

// Close closes the listening descriptor, detaching first if attached.
func (s *Server) Close() errors.Error {
	s.mu.Lock()
	w := s.watcher
	fd := s.fd
	s.watcher = nil
	s.fd = -1
	s.mu.Unlock()

	if w != nil {
		_ = w.Close()
	}
	if err := socket.CloseFD(fd); err != nil {
		return ErrorListen.Error(err)
	}
	return nil
}

// Addr returns the bound local address, nil before Listen succeeds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
