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

package socket_test

import (
	"github.com/nabbar/evio/socket"
	skcfg "github.com/nabbar/evio/socket/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("socket error domains", func() {
	It("classifies TLS, system and library codes", func() {
		Expect(socket.DomainOf(socket.ErrorTLSHandshake.Error(nil))).To(Equal(socket.DomainTLS))
		Expect(socket.DomainOf(socket.ErrorRead.Error(nil))).To(Equal(socket.DomainSystem))
		Expect(socket.DomainOf(socket.ErrorResolve.Error(nil))).To(Equal(socket.DomainResolve))
		Expect(socket.DomainOf(socket.ErrorMisuse.Error(nil))).To(Equal(socket.DomainLibrary))
		Expect(socket.DomainOf(nil)).To(Equal(socket.DomainLibrary))
	})

	It("tags an unresolvable address record as a resolve error", func() {
		sk := socket.New(0, 0)
		err := sk.Connect(skcfg.Client{
			Network: skcfg.NetworkTCP,
			Address: "not-an-address:::",
		})
		Expect(err).NotTo(BeNil())
		Expect(socket.DomainOf(err)).To(Equal(socket.DomainResolve))
	})

	It("names every domain", func() {
		Expect(socket.DomainSystem.String()).To(Equal("system"))
		Expect(socket.DomainResolve.String()).To(Equal("resolve"))
		Expect(socket.DomainTLS.String()).To(Equal("tls"))
		Expect(socket.DomainLibrary.String()).To(Equal("library"))
	})
})
