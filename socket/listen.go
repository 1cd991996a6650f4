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
	"net"

	"golang.org/x/sys/unix"

	skcfg "github.com/nabbar/evio/socket/config"
)

// Listen creates, binds and listens on the descriptor described by cfg, for
// use by the server package's Server.Listen. It is exported here because
// the raw-fd sockaddr plumbing is socket's, not server's, concern.
func Listen(cfg skcfg.Server) (fd int, addr net.Addr, err error) {
	return listenNonblock(cfg.Network, cfg.Address, cfg.Backlog)
}

// Accept drains a single pending connection from a listening fd produced by
// Listen. err equal to unix.EAGAIN or unix.EWOULDBLOCK signals "nothing
// pending right now"; unix.EINTR and unix.ECONNABORTED are transient
// (see IsTransientAcceptError). unix.EMFILE and unix.ENFILE are the
// resource-exhaustion errors IsFatalAcceptError reports; the server's
// accept loop logs any other error and stops draining until the next
// readiness event.
func Accept(fd int) (connFD int, peer net.Addr, err error) {
	return acceptNonblock(fd)
}

// CloseFD closes a raw descriptor obtained from Listen or Accept.
func CloseFD(fd int) error {
	if fd < 0 {
		return nil
	}
	return unix.Close(fd)
}

// IsTransientAcceptError reports whether err is one of the transient
// accept-loop conditions to swallow and continue on.
func IsTransientAcceptError(err error) bool {
	switch err {
	case unix.EAGAIN, unix.EWOULDBLOCK, unix.EINTR, unix.ECONNABORTED:
		return true
	}
	return false
}

// IsFatalAcceptError reports whether err is a resource-exhaustion
// condition that must surface to the server's fatal-error path instead
// of being silently retried forever.
func IsFatalAcceptError(err error) bool {
	switch err {
	case unix.EMFILE, unix.ENFILE:
		return true
	}
	return false
}
