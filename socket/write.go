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

	"github.com/nabbar/evio/buffer"
	"github.com/nabbar/evio/errors"
	"github.com/nabbar/evio/loop"
)

// Write enqueues buf for transmission. If the queue was empty and the
// socket is currently writable, the library attempts an immediate
// non-blocking write of buf's head before returning; buf.Release runs
// exactly once regardless of how the write eventually resolves.
func (s *Socket) Write(buf *buffer.Buffer) errors.Error {
	if buf == nil {
		return ErrorMisuse.Error(nil)
	}

	s.mu.Lock()
	if s.secure {
		s.mu.Unlock()
		return s.writeSecure(buf)
	}
	if s.writeEOF || s.state == StateClosed || s.state == StateHalfClosedWrite {
		s.mu.Unlock()
		_ = buf.Free()
		return ErrorMisuse.Error(nil)
	}
	wasEmpty := len(s.writeQ) == 0
	s.writeQ = append(s.writeQ, buf)
	s.armTimerLocked()
	s.mu.Unlock()

	if wasEmpty {
		s.onWritable()
	} else {
		s.enableWrite()
	}

	return nil
}

func (s *Socket) enableWrite() {
	s.mu.Lock()
	w := s.watcher
	s.mu.Unlock()

	if w != nil {
		_ = w.Enable(loop.Write)
	}
}

// WriteSimple is the sole allocation the library performs on the data
// path: it duplicates data into a private buffer whose release hook frees
// that copy, so the caller's slice may be reused or discarded immediately.
func (s *Socket) WriteSimple(data []byte) errors.Error {
	return s.Write(buffer.Simple(data))
}

// WriteEOF requests a half-close: once the write queue drains, the
// library sends a FIN (plaintext) or initiates a TLS bidirectional
// shutdown (secure), and s transitions to HALF_CLOSED_WRITE.
func (s *Socket) WriteEOF() errors.Error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrorInvalidState.Error(nil)
	}
	s.writeEOF = true
	empty := len(s.writeQ) == 0
	s.mu.Unlock()

	if empty {
		s.finishHalfClose()
	}
	return nil
}

func (s *Socket) maybeFinishHalfClose() {
	s.mu.Lock()
	shouldFinish := s.writeEOF && len(s.writeQ) == 0 && s.state == StateOpen
	s.mu.Unlock()

	if shouldFinish {
		s.finishHalfClose()
	}
}

func (s *Socket) finishHalfClose() {
	s.mu.Lock()
	fd := s.fd
	secure := s.secure
	s.mu.Unlock()

	if secure {
		s.sendTLSCloseWrite()
	} else if fd >= 0 {
		_ = unix.Shutdown(fd, unix.SHUT_WR)
	}

	s.mu.Lock()
	s.sentHalfClose = true
	gotFIN := s.gotHalfClose
	s.state = StateHalfClosedWrite
	s.armTimerLocked()
	s.mu.Unlock()

	if gotFIN {
		s.scheduleClose()
	}
}

// Close initiates the closing path. For plaintext sockets this drains
// pending writes when possible before finalizing; for secure sockets it
// sends a TLS close_notify and, unless WaitHangup was set, transitions to
// CLOSED without waiting for the peer's own bye. OnClose is never invoked
// synchronously from Close - see doc.go.
func (s *Socket) Close() errors.Error {
	s.mu.Lock()
	if s.state == StateClosed || s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	secure := s.secure
	hasPending := len(s.writeQ) > 0
	state := s.state
	s.state = StateClosing
	s.mu.Unlock()

	if secure && state != StateConnecting && state != StateInit {
		s.sendTLSCloseNotify()
		s.mu.Lock()
		wait := s.waitHangup
		s.mu.Unlock()
		if wait {
			// Let the TLS read pump continue; it will call scheduleClose
			// once the peer's close_notify (or EOF) arrives, or the
			// inactivity timer will do so if the peer never replies.
			return nil
		}
		s.scheduleClose()
		return nil
	}

	if hasPending {
		// Leave closing=true: onWritable's empty-queue branch finalizes
		// the close once the pending buffers have actually flushed (or
		// failed), rather than discarding in-flight writes the peer
		// could still receive.
		return nil
	}

	s.scheduleClose()
	return nil
}

// drainQueueOnClose releases every buffer still queued when the socket
// finalizes, regardless of whether any bytes of it reached the peer -
// release semantics never imply successful delivery.
func (s *Socket) drainQueueOnClose() {
	s.mu.Lock()
	q := s.writeQ
	s.writeQ = nil
	s.mu.Unlock()

	for _, b := range q {
		_ = b.Free()
	}
}
