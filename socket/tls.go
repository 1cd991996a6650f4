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
	"io"
	"net"
	"sync"
	"time"

	"github.com/nabbar/evio/buffer"
	"github.com/nabbar/evio/errors"
)

// The standard library's *tls.Conn assumes a blocking net.Conn. Driving it
// without ever blocking the loop goroutine means the handshake and the
// decrypt loop run on one dedicated goroutine per secure Socket instead,
// talking to the loop only through cipherPipe (inbound ciphertext, fed by
// onReadable) and cipherSink (outbound ciphertext, drained by onWritable
// through the socket's ordinary write queue so backpressure composes the
// same way it does for plaintext). The goroutine itself never touches
// Socket state directly - every observation it makes is posted back via
// loop.Post, exactly like a pool worker's completion.
type tlsEngine struct {
	conn *tls.Conn
	pipe *cipherPipe
	sink *cipherSink
	done chan struct{}
}

// cipherPipe is a blocking, unbounded byte queue: Read blocks until bytes
// are pushed or the pipe is closed, matching the semantics a real fd read
// would have from the TLS goroutine's point of view.
type cipherPipe struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	err    error
	closed bool
}

func newCipherPipe() *cipherPipe {
	p := &cipherPipe{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *cipherPipe) push(b []byte) {
	p.mu.Lock()
	p.buf = append(p.buf, b...)
	p.cond.Signal()
	p.mu.Unlock()
}

func (p *cipherPipe) closeWithError(err error) {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		p.err = err
		p.cond.Broadcast()
	}
	p.mu.Unlock()
}

func (p *cipherPipe) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.buf) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.buf) > 0 {
		n := copy(b, p.buf)
		p.buf = p.buf[n:]
		return n, nil
	}
	if p.err != nil {
		return 0, p.err
	}
	return 0, io.EOF
}

// cipherSink collects outbound ciphertext produced by tls.Conn.Write calls
// so the loop thread can fold it into the socket's normal write queue; it
// never blocks the writer. notify is invoked after each append so records
// produced spontaneously by the handshake goroutine (ClientHello, alerts,
// session tickets) reach the wire without waiting for an unrelated event.
type cipherSink struct {
	mu     sync.Mutex
	chunks [][]byte
	notify func()
}

func (s *cipherSink) Write(b []byte) (int, error) {
	cp := append([]byte(nil), b...)
	s.mu.Lock()
	s.chunks = append(s.chunks, cp)
	fn := s.notify
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return len(b), nil
}

func (s *cipherSink) drain() [][]byte {
	s.mu.Lock()
	out := s.chunks
	s.chunks = nil
	s.mu.Unlock()
	return out
}

// rawConn adapts a cipherPipe/cipherSink pair to net.Conn, the only shape
// *tls.Conn knows how to wrap. Deadlines are not meaningful here: the real
// timeout is the Socket's own inactivity timer.
type rawConn struct {
	pipe *cipherPipe
	sink *cipherSink
	peer net.Addr
}

func (c *rawConn) Read(b []byte) (int, error)         { return c.pipe.Read(b) }
func (c *rawConn) Write(b []byte) (int, error)         { return c.sink.Write(b) }
func (c *rawConn) Close() error                        { c.pipe.closeWithError(io.ErrClosedPipe); return nil }
func (c *rawConn) LocalAddr() net.Addr                 { return nil }
func (c *rawConn) RemoteAddr() net.Addr                { return c.peer }
func (c *rawConn) SetDeadline(time.Time) error         { return nil }
func (c *rawConn) SetReadDeadline(time.Time) error     { return nil }
func (c *rawConn) SetWriteDeadline(time.Time) error    { return nil }

func (s *Socket) startHandshake() {
	s.mu.Lock()
	cfg, client, serverName, peer := s.tlsConfig, s.tlsClient, s.tlsServerName, s.peer
	s.mu.Unlock()

	if cfg != nil && serverName != "" && client {
		cloned := cfg.Clone()
		cloned.ServerName = serverName
		cfg = cloned
	}

	pipe := newCipherPipe()
	sink := &cipherSink{notify: func() { s.post(s.flushTLSOutbound) }}
	rc := &rawConn{pipe: pipe, sink: sink, peer: peer}

	var conn *tls.Conn
	if client {
		conn = tls.Client(rc, cfg)
	} else {
		conn = tls.Server(rc, cfg)
	}

	eng := &tlsEngine{conn: conn, pipe: pipe, sink: sink, done: make(chan struct{})}

	s.mu.Lock()
	s.tls = eng
	s.mu.Unlock()

	go s.runTLS(eng)
}

// runTLS is the dedicated goroutine for one secure Socket: it blocks
// freely (on pipe reads) precisely because it is not the loop goroutine,
// and every observation it makes crosses back via loop.Post.
func (s *Socket) runTLS(eng *tlsEngine) {
	defer close(eng.done)

	if err := eng.conn.Handshake(); err != nil {
		s.post(func() { s.onTLSHandshakeError(err) })
		return
	}

	s.post(func() { s.onTLSHandshakeDone() })

	buf := make([]byte, 32*1024)
	for {
		n, err := eng.conn.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			s.post(func() { s.onTLSPlaintext(chunk) })
		}
		if err != nil {
			s.post(func() { s.onTLSReadDone(err) })
			return
		}
	}
}

// post runs fn on the loop goroutine if one is attached, or inline if not
// (e.g. a handshake failure observed before Attach completed).
func (s *Socket) post(fn func()) {
	s.mu.Lock()
	lp := s.lp
	s.mu.Unlock()

	if lp != nil {
		lp.Post(fn)
		return
	}
	fn()
}

func (s *Socket) onTLSHandshakeError(err error) {
	s.reportError(ErrorTLSHandshake, err)
	s.scheduleClose()
}

func (s *Socket) onTLSHandshakeDone() {
	s.mu.Lock()
	s.state = StateOpen
	pending := s.pendingPlain
	s.pendingPlain = nil
	s.mu.Unlock()

	s.invokeConnect()

	for _, b := range pending {
		_ = s.writeSecure(b)
	}
	s.flushTLSOutbound()
}

func (s *Socket) onTLSPlaintext(b []byte) {
	s.touchProgress()
	s.deliverRead(b)
}

func (s *Socket) onTLSReadDone(err error) {
	s.mu.Lock()
	s.gotHalfClose = true
	started := s.readStarted
	cb := s.OnRead
	sentFIN := s.sentHalfClose
	waitHangup := s.waitHangup
	s.mu.Unlock()

	if started && cb != nil {
		cb(s, nil, 0)
	}

	if err != io.EOF {
		s.reportError(ErrorTLSRecord, err)
	}

	if sentFIN || !waitHangup {
		s.scheduleClose()
	}
}

func (s *Socket) feedTLS(b []byte) {
	s.mu.Lock()
	eng := s.tls
	s.mu.Unlock()
	if eng != nil {
		eng.pipe.push(b)
	}
}

func (s *Socket) feedTLSEOF() {
	s.mu.Lock()
	eng := s.tls
	s.mu.Unlock()
	if eng != nil {
		eng.pipe.closeWithError(io.EOF)
	}
}

// flushTLSOutbound moves any ciphertext the TLS goroutine has produced
// into the socket's ordinary write queue, so it flows through the same
// drain/OnDrain path a plaintext write would.
func (s *Socket) flushTLSOutbound() {
	s.mu.Lock()
	eng := s.tls
	s.mu.Unlock()
	if eng == nil {
		return
	}

	for _, chunk := range eng.sink.drain() {
		s.enqueueRaw(chunk)
	}
}

func (s *Socket) enqueueRaw(data []byte) {
	b := buffer.New(data, func(any) {}, nil)

	s.mu.Lock()
	s.writeQ = append(s.writeQ, b)
	s.armTimerLocked()
	s.mu.Unlock()

	s.enableWrite()
}

// writeSecure encrypts buf's full contents synchronously (tls.Conn.Write
// never blocks here: cipherSink.Write only appends to a slice) and queues
// the resulting ciphertext for transmission. Writes attempted before the
// handshake completes are held in pendingPlain and flushed in order once
// it does.
func (s *Socket) writeSecure(buf *buffer.Buffer) errors.Error {
	s.mu.Lock()
	if s.state == StateConnecting || s.state == StateHandshaking {
		s.pendingPlain = append(s.pendingPlain, buf)
		s.mu.Unlock()
		return nil
	}
	eng := s.tls
	s.mu.Unlock()

	if eng == nil {
		_ = buf.Free()
		return ErrorInvalidState.Error(nil)
	}

	if _, err := eng.conn.Write(buf.Remaining()); err != nil {
		_ = buf.Free()
		s.reportError(ErrorTLSRecord, err)
		return ErrorTLSRecord.Error(err)
	}
	_ = buf.Free()

	s.flushTLSOutbound()
	return nil
}

// sendTLSCloseWrite half-closes the TLS session: close_notify is sent but
// the read side stays open, so the peer's remaining records (and its own
// bye) are still decrypted and delivered. Used by WriteEOF.
func (s *Socket) sendTLSCloseWrite() {
	s.mu.Lock()
	eng := s.tls
	s.mu.Unlock()

	if eng == nil {
		return
	}
	_ = eng.conn.CloseWrite()
	s.flushTLSOutbound()
}

// sendTLSCloseNotify sends the TLS close_notify alert. By default the
// library does not wait for the peer's own bye; it is the read pump
// goroutine (runTLS) that will eventually observe it, or the inactivity
// timer that will give up waiting for it.
func (s *Socket) sendTLSCloseNotify() {
	s.mu.Lock()
	eng := s.tls
	s.mu.Unlock()

	if eng == nil {
		return
	}
	_ = eng.conn.Close()
	s.flushTLSOutbound()
}
