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

package socket

import (
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/nabbar/evio/buffer"
	"github.com/nabbar/evio/errors"
	"github.com/nabbar/evio/loop"
	skcfg "github.com/nabbar/evio/socket/config"
)

// Socket is a non-blocking, optionally-TLS stream socket driven by a
// loop.Loop. Callers set the On* callback fields directly after New.
// Data is an opaque slot for caller bookkeeping; the library never
// reads it.
//
// A Socket must outlive every callback except OnClose - see doc.go.
type Socket struct {
	Data any

	OnConnect func(s *Socket)
	OnRead    func(s *Socket, buf []byte, n int)
	OnDrain   func(s *Socket)
	OnError   func(s *Socket, err errors.Error)
	OnTimeout func(s *Socket)
	OnClose   func(s *Socket)

	mu sync.Mutex

	lp   loop.Loop
	fd   int
	peer net.Addr

	watcher loop.Watcher
	timer   loop.Timer
	timeout time.Duration

	state         State
	readStarted   bool
	gotHalfClose  bool
	sentHalfClose bool
	closing       bool
	waitHangup    bool
	secure        bool
	closeDeferred bool

	chunkSize int32
	scratch   []byte

	writeQ   []*buffer.Buffer
	writeEOF bool

	tlsConfig     *tls.Config
	tlsClient     bool
	tlsServerName string
	tls           *tlsEngine
	pendingPlain  []*buffer.Buffer
}

// New creates a Socket in state INIT. timeout <= 0 disables the inactivity
// timer; chunkSize <= 0 selects defaultChunkSize.
func New(timeout time.Duration, chunkSize int32) *Socket {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Socket{
		fd:        -1,
		state:     StateInit,
		timeout:   timeout,
		chunkSize: chunkSize,
	}
}

// SetSecureSession configures s to run a TLS session once connected or
// accepted. cfg is the opaque, caller-built credential handle; this
// package never constructs one. Must be called before Connect/Accepted.
func (s *Socket) SetSecureSession(cfg *tls.Config, isClient bool, serverName string, waitHangup bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.secure = true
	s.tlsConfig = cfg
	s.tlsClient = isClient
	s.tlsServerName = serverName
	s.waitHangup = waitHangup
}

// State returns the socket's current major state.
func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FD returns the socket's raw descriptor, or -1 before Connect/Accepted.
func (s *Socket) FD() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fd
}

// IsSecure reports whether SetSecureSession was called on s. Once true,
// the raw descriptor carries the TLS record stream, not the plaintext
// application data.
func (s *Socket) IsSecure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secure
}

// Peer returns the resolved remote address, nil before Connect/Accepted.
func (s *Socket) Peer() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

// Connect dials cfg.Address over cfg.Network, entering CONNECTING (or
// HANDSHAKING/OPEN on the rare synchronous-connect path). The caller
// still must call Attach for the loop to observe completion.
func (s *Socket) Connect(cfg skcfg.Client) errors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInit {
		return ErrorInvalidState.Error(nil)
	}
	if err := cfg.Validate(); err != nil {
		return ErrorConnect.Error(err)
	}

	fd, peer, inProgress, err := dialNonblock(cfg.Network, cfg.Address)
	if err != nil {
		if _, ok := err.(resolveError); ok {
			return ErrorResolve.Error(err)
		}
		return ErrorConnect.Error(err)
	}

	s.fd = fd
	s.peer = peer
	if cfg.Timeout > 0 {
		s.timeout = cfg.Timeout.Time()
	}
	if cfg.ChunkSize > 0 {
		s.chunkSize = cfg.ChunkSize
	}
	if cfg.TLS.Enabled {
		s.secure = true
		s.tlsConfig = cfg.TLS.Config
		s.tlsClient = true
		s.tlsServerName = cfg.TLS.ServerName
		s.waitHangup = cfg.TLS.WaitHangup
	}

	if inProgress {
		s.state = StateConnecting
	} else if s.secure {
		s.state = StateHandshaking
	} else {
		s.state = StateOpen
	}

	return nil
}

// Accepted adopts an already-accepted descriptor, for use by the server
// package's connection-arrival hook: the caller constructs a Socket with
// New, optionally calls SetSecureSession, and the server assigns fd/peer
// via Accepted before attaching it to the loop.
func (s *Socket) Accepted(fd int, peer net.Addr) errors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInit {
		return ErrorInvalidState.Error(nil)
	}

	s.fd = fd
	s.peer = peer
	if s.secure {
		s.state = StateHandshaking
	} else {
		s.state = StateOpen
	}

	return nil
}

// Attach binds s to l, arming its watchers and inactivity timer. For a
// plaintext socket already OPEN (the server accept path), OnConnect fires
// immediately; for CONNECTING or HANDSHAKING it fires later, when the
// state machine reaches OPEN.
func (s *Socket) Attach(l loop.Loop) errors.Error {
	s.mu.Lock()

	if s.fd < 0 || s.state == StateClosed {
		s.mu.Unlock()
		return ErrorInvalidState.Error(nil)
	}
	if s.watcher != nil {
		s.mu.Unlock()
		return ErrorAlreadyAttached.Error(nil)
	}

	s.lp = l
	s.scratch = make([]byte, s.chunkSize)

	// The read watcher is armed by ReadStart, not here: until reads are
	// started, received bytes stay in the kernel buffer and TCP flow
	// control backpressures the peer. A secure socket reads regardless,
	// since the TLS state machine needs the ciphertext stream.
	var dir loop.Direction
	switch {
	case s.state == StateConnecting:
		dir = loop.Write
	case s.secure || s.readStarted:
		dir = loop.Read
	}

	w, err := l.AddWatcher(s.fd, dir, s.onReady)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.watcher = w
	s.timer = l.AddTimer(0, s.onTimerFire)

	state := s.state
	secure := s.secure
	s.armTimerLocked()
	s.mu.Unlock()

	switch {
	case state == StateOpen && !secure:
		s.invokeConnect()
	case state == StateHandshaking:
		s.startHandshake()
	}

	return nil
}

// Detach disarms watchers and the timer without closing the descriptor
// or aborting any in-flight TLS goroutine; its observations are
// delivered if the socket is still alive or discarded otherwise.
func (s *Socket) Detach() errors.Error {
	s.mu.Lock()
	w, t := s.watcher, s.timer
	s.watcher, s.timer = nil, nil
	s.mu.Unlock()

	if t != nil {
		t.Stop()
	}
	if w != nil {
		return w.Close()
	}
	return nil
}

// ReadStart arms the read watcher and enables delivery of payload bytes
// to OnRead.
func (s *Socket) ReadStart() errors.Error {
	s.mu.Lock()
	s.readStarted = true
	s.armTimerLocked()
	w := s.watcher
	connecting := s.state == StateConnecting
	s.mu.Unlock()

	// While connecting, read readiness is meaningless; completeConnect
	// arms the read side once the descriptor is usable.
	if w != nil && !connecting {
		_ = w.Enable(loop.Read)
	}
	return nil
}

// ReadStop disarms the read watcher: received bytes stay in the kernel
// buffer so TCP flow control backpressures the peer. A secure socket
// keeps its watcher armed, since the TLS state machine still needs the
// ciphertext stream; decrypted payload is simply not delivered. Stopping
// is inherently racy with already-dispatched readiness: a spurious
// zero-length OnRead may still fire after this call, and callers must
// tolerate it.
func (s *Socket) ReadStop() errors.Error {
	s.mu.Lock()
	s.readStarted = false
	s.armTimerLocked()
	w := s.watcher
	secure := s.secure
	s.mu.Unlock()

	if w != nil && !secure {
		_ = w.Disable(loop.Read)
	}
	return nil
}

// SetChunkSize bounds the scratch buffer used for subsequent reads. It may
// be changed mid-stream; reads already dispatched keep the previous size.
func (s *Socket) SetChunkSize(n int32) {
	if n <= 0 {
		n = defaultChunkSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunkSize = n
	if s.scratch != nil {
		s.scratch = make([]byte, n)
	}
}

// ResetTimeout rearms the inactivity timer as if genuine progress had just
// occurred, without requiring an actual read or write.
func (s *Socket) ResetTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armTimerLocked()
}

func (s *Socket) onTimerFire() {
	s.mu.Lock()
	cb := s.OnTimeout
	s.mu.Unlock()

	if cb != nil {
		cb(s)
	}
}

// armTimerLocked keeps the timer running only while attached, connected,
// not closing, and either reads are active or the write queue is
// non-empty.
func (s *Socket) armTimerLocked() {
	if s.timer == nil {
		return
	}
	if s.timeout <= 0 || s.closing || s.state == StateClosed {
		s.timer.Stop()
		return
	}
	active := s.state == StateOpen || s.state == StateHandshaking || s.state == StateConnecting || s.state == StateHalfClosedWrite
	if !active {
		s.timer.Stop()
		return
	}
	if s.readStarted || len(s.writeQ) > 0 {
		s.timer.Reset(s.timeout)
	}
}

func (s *Socket) invokeConnect() {
	s.mu.Lock()
	cb := s.OnConnect
	s.mu.Unlock()

	if cb != nil {
		cb(s)
	}
}

func (s *Socket) reportError(code errors.CodeError, cause error) {
	s.mu.Lock()
	cb := s.OnError
	s.mu.Unlock()

	if cb != nil {
		cb(s, code.Error(cause))
	}
}

// scheduleClose transitions s toward CLOSED and defers OnClose: it never
// fires synchronously from within scheduleClose's caller.
func (s *Socket) scheduleClose() {
	s.mu.Lock()
	if s.state == StateClosed || s.closeDeferred {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.closeDeferred = true
	lp, w, t, fd := s.lp, s.watcher, s.timer, s.fd
	s.watcher, s.timer, s.fd = nil, nil, -1
	s.mu.Unlock()

	if t != nil {
		t.Stop()
	}
	if w != nil {
		_ = w.Close()
	}
	_ = CloseFD(fd)

	if lp == nil {
		s.dispatchClose()
		return
	}
	lp.Defer(s.dispatchClose)
}

func (s *Socket) dispatchClose() {
	s.mu.Lock()
	cb := s.OnClose
	s.mu.Unlock()

	// Every buffer still queued at close time is released, unsent, so
	// every enqueued buffer sees its release hook exactly once even when
	// the peer reset mid-transfer.
	s.drainQueueOnClose()

	if cb != nil {
		cb(s)
	}
}
