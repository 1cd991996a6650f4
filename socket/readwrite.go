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
	"golang.org/x/sys/unix"

	"github.com/nabbar/evio/loop"
)

// onReady is the single callback every Socket registers with its loop
// watcher. It fans out by direction and current state, exactly one code
// path running at a time since the loop is single-threaded.
func (s *Socket) onReady(dir loop.Direction, err error) {
	if err != nil {
		s.handleIOError(err)
		return
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case StateConnecting:
		if dir.Has(loop.Write) {
			s.completeConnect()
		}
		return
	case StateClosed:
		return
	}

	if dir.Has(loop.Read) {
		s.onReadable()
	}
	if dir.Has(loop.Write) {
		s.onWritable()
	}
}

func (s *Socket) handleIOError(err error) {
	s.reportError(ErrorRead, err)
	s.scheduleClose()
}

func (s *Socket) completeConnect() {
	s.mu.Lock()
	fd := s.fd
	s.mu.Unlock()

	if err := socketError(fd); err != nil {
		s.reportError(ErrorConnect, err)
		s.scheduleClose()
		return
	}

	s.mu.Lock()
	secure := s.secure
	started := s.readStarted
	if secure {
		s.state = StateHandshaking
	} else {
		s.state = StateOpen
	}
	w := s.watcher
	s.mu.Unlock()

	// Read readiness is wanted once connected only if the caller already
	// started reads, or unconditionally for TLS (ciphertext bookkeeping);
	// otherwise ReadStart arms it later and the kernel buffer holds.
	if w != nil && (secure || started) {
		_ = w.Enable(loop.Read)
	}

	if secure {
		s.startHandshake()
	} else {
		s.invokeConnect()
	}
}

// onReadable services read readiness. Plaintext sockets read directly into
// the scratch buffer and deliver to OnRead (or the EOF marker). Secure
// sockets instead feed raw ciphertext to the TLS bridge goroutine, which
// delivers decrypted plaintext asynchronously via loop.Post.
func (s *Socket) onReadable() {
	s.mu.Lock()
	fd := s.fd
	secure := s.secure
	scratch := s.scratch
	s.mu.Unlock()

	if fd < 0 {
		return
	}

	for {
		n, err := unix.Read(fd, scratch)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			if err == unix.ECONNRESET {
				s.onPeerReset()
				return
			}
			s.reportError(ErrorRead, err)
			s.scheduleClose()
			return
		}

		s.touchProgress()

		if secure {
			if n == 0 {
				s.feedTLSEOF()
				return
			}
			s.feedTLS(scratch[:n])
			continue
		}

		if n == 0 {
			s.onPeerFIN()
			return
		}

		s.deliverRead(scratch[:n])

		if n < len(scratch) {
			return
		}
	}
}

// deliverRead invokes OnRead with n bytes, honoring the ReadStart gate:
// if reads have been stopped, payload bytes are dropped silently instead
// of delivered.
func (s *Socket) deliverRead(buf []byte) {
	s.mu.Lock()
	started := s.readStarted
	cb := s.OnRead
	s.mu.Unlock()

	if !started || cb == nil {
		return
	}
	cb(s, buf, len(buf))
}

func (s *Socket) onPeerFIN() {
	s.mu.Lock()
	if s.gotHalfClose {
		s.mu.Unlock()
		return
	}
	s.gotHalfClose = true
	cb := s.OnRead
	started := s.readStarted
	w := s.watcher
	sentFIN := s.sentHalfClose
	s.mu.Unlock()

	if w != nil {
		_ = w.Disable(loop.Read)
	}
	if started && cb != nil {
		cb(s, nil, 0)
	}
	if sentFIN {
		s.scheduleClose()
	}
}

func (s *Socket) onPeerReset() {
	s.reportError(ErrorRead, unix.ECONNRESET)
	s.scheduleClose()
}

func (s *Socket) touchProgress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armTimerLocked()
}

// onWritable drains the write queue. A buffer is popped and its release
// hook invoked exactly once it is fully written; a partial write advances
// its cursor and leaves the watcher armed for the next readiness event.
func (s *Socket) onWritable() {
	s.mu.Lock()
	fd := s.fd
	secure := s.secure
	s.mu.Unlock()

	if fd < 0 {
		return
	}

	if secure {
		s.flushTLSOutbound()
	}

	drainedSomething := false

	for {
		s.mu.Lock()
		if len(s.writeQ) == 0 {
			s.mu.Unlock()
			break
		}
		head := s.writeQ[0]
		s.mu.Unlock()

		rem := head.Remaining()
		if len(rem) == 0 {
			s.popWriteHead()
			drainedSomething = true
			continue
		}

		n, err := unix.Write(fd, rem)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				break
			}
			s.failWriteHead(err)
			drainedSomething = true
			continue
		}

		if n > 0 {
			head.Advance(n)
			s.touchProgress()
		}

		if head.Done() {
			s.popWriteHead()
			drainedSomething = true
		} else {
			break
		}
	}

	s.mu.Lock()
	empty := len(s.writeQ) == 0
	w := s.watcher
	s.mu.Unlock()

	if !empty {
		if w != nil {
			_ = w.Enable(loop.Write)
		}
		return
	}

	if w != nil {
		_ = w.Disable(loop.Write)
	}
	if drainedSomething {
		s.invokeDrain()
	}
	s.maybeFinishHalfClose()

	s.mu.Lock()
	closing := s.closing && s.state == StateClosing
	s.mu.Unlock()
	if closing {
		s.scheduleClose()
	}
}

func (s *Socket) popWriteHead() {
	s.mu.Lock()
	if len(s.writeQ) == 0 {
		s.mu.Unlock()
		return
	}
	head := s.writeQ[0]
	s.writeQ = s.writeQ[1:]
	s.mu.Unlock()

	_ = head.Free()
}

func (s *Socket) failWriteHead(err error) {
	s.reportError(ErrorWrite, err)
	s.popWriteHead()
}

func (s *Socket) invokeDrain() {
	s.mu.Lock()
	cb := s.OnDrain
	s.mu.Unlock()

	if cb != nil {
		cb(s)
	}
}

