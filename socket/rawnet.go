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
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	skcfg "github.com/nabbar/evio/socket/config"
)

// domainAndSockaddr resolves a (net.TCPAddr|net.UnixAddr) into the raw
// socket domain and unix.Sockaddr register/connect/bind calls need.
// Callers hand in already-resolved records; this only translates their
// fields.
func domainAndSockaddr(network skcfg.Network, address string) (domain int, sa unix.Sockaddr, addr net.Addr, err error) {
	switch network {
	case skcfg.NetworkTCP, skcfg.NetworkTCP4, skcfg.NetworkTCP6:
		a, e := net.ResolveTCPAddr(string(network), address)
		if e != nil {
			return 0, nil, nil, e
		}

		ip := a.IP
		if ip == nil {
			ip = net.IPv4zero
		}
		if ip4 := ip.To4(); ip4 != nil && network != skcfg.NetworkTCP6 {
			s := &unix.SockaddrInet4{Port: a.Port}
			copy(s.Addr[:], ip4)
			return unix.AF_INET, s, a, nil
		}

		ip6 := ip.To16()
		if ip6 == nil {
			return 0, nil, nil, fmt.Errorf("socket: invalid IPv6 address %q", address)
		}
		s := &unix.SockaddrInet6{Port: a.Port}
		copy(s.Addr[:], ip6)
		return unix.AF_INET6, s, a, nil

	case skcfg.NetworkUnix:
		a, e := net.ResolveUnixAddr("unix", address)
		if e != nil {
			return 0, nil, nil, e
		}
		return unix.AF_UNIX, &unix.SockaddrUnix{Name: a.Name}, a, nil
	}

	return 0, nil, nil, fmt.Errorf("socket: unsupported network %q", network)
}

func setNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}

// resolveError marks a failure translating the caller-supplied address
// record, as opposed to a syscall failure on a valid one.
type resolveError struct{ error }

func (e resolveError) Unwrap() error { return e.error }

// dialNonblock creates a non-blocking socket and issues connect(2). A
// non-nil inProgress return means the connect is under way and completion
// must be observed via write readiness + SO_ERROR (the CONNECTING state).
func dialNonblock(network skcfg.Network, address string) (fd int, peer net.Addr, inProgress bool, err error) {
	domain, sa, addr, err := domainAndSockaddr(network, address)
	if err != nil {
		return -1, nil, false, resolveError{err}
	}

	fd, err = unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, nil, false, err
	}

	if err = setNonblock(fd); err != nil {
		_ = unix.Close(fd)
		return -1, nil, false, err
	}

	err = unix.Connect(fd, sa)
	if err == nil {
		return fd, addr, false, nil
	}
	if err == unix.EINPROGRESS {
		return fd, addr, true, nil
	}

	_ = unix.Close(fd)
	return -1, nil, false, err
}

// listenNonblock creates, binds and listens on a non-blocking socket.
func listenNonblock(network skcfg.Network, address string, backlog int) (fd int, bound net.Addr, err error) {
	domain, sa, addr, err := domainAndSockaddr(network, address)
	if err != nil {
		return -1, nil, err
	}

	fd, err = unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, nil, err
	}

	if domain != unix.AF_UNIX {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}

	if err = unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, nil, err
	}

	if backlog <= 0 {
		backlog = 128
	}
	if err = unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return -1, nil, err
	}

	if err = setNonblock(fd); err != nil {
		_ = unix.Close(fd)
		return -1, nil, err
	}

	// The requested address may carry port 0; report the port the kernel
	// actually bound so callers can dial it back.
	if sn, e := unix.Getsockname(fd); e == nil {
		if a := sockaddrToAddr(sn); a != nil {
			addr = a
		}
	}

	return fd, addr, nil
}

// acceptNonblock drains one pending connection from a listening fd.
// err == unix.EAGAIN signals "no more pending connections right now",
// which callers must treat as a quiet stop condition, not a failure.
func acceptNonblock(fd int) (connFD int, peer net.Addr, err error) {
	nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, nil, err
	}

	return nfd, sockaddrToAddr(sa), nil
}

func sockaddrToAddr(sa unix.Sockaddr) net.Addr {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: append([]byte(nil), s.Addr[:]...), Port: s.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: append([]byte(nil), s.Addr[:]...), Port: s.Port}
	case *unix.SockaddrUnix:
		return &net.UnixAddr{Name: s.Name, Net: "unix"}
	}
	return nil
}

func socketError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}
