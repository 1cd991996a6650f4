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

package buffer_test

import (
	"sync"

	"github.com/nabbar/evio/buffer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buffer.Buffer", func() {
	Context("cursor accounting", func() {
		It("exposes the unconsumed tail through Remaining", func() {
			b := buffer.New([]byte("abcdef"), nil, nil)

			Expect(b.Remaining()).To(Equal([]byte("abcdef")))
			Expect(b.Done()).To(BeFalse())

			b.Advance(2)
			Expect(b.Remaining()).To(Equal([]byte("cdef")))

			b.Advance(4)
			Expect(b.Remaining()).To(BeNil())
			Expect(b.Done()).To(BeTrue())
			Expect(b.Len()).To(Equal(6))
		})

		It("treats an empty buffer as already done", func() {
			b := buffer.New(nil, nil, nil)
			Expect(b.Done()).To(BeTrue())
			Expect(b.Remaining()).To(BeNil())
		})
	})

	Context("release hook", func() {
		It("invokes the hook exactly once with the token", func() {
			var (
				calls int
				seen  any
			)

			b := buffer.New([]byte("x"), func(tok any) {
				calls++
				seen = tok
			}, "token-42")

			Expect(b.Free()).To(BeNil())
			Expect(calls).To(Equal(1))
			Expect(seen).To(Equal("token-42"))
			Expect(b.Released()).To(BeTrue())

			Expect(b.Free()).NotTo(BeNil())
			Expect(calls).To(Equal(1))
		})

		It("stays exactly-once under concurrent Free calls", func() {
			var (
				calls int
				mu    sync.Mutex
				wg    sync.WaitGroup
			)

			b := buffer.New([]byte("y"), func(any) {
				mu.Lock()
				calls++
				mu.Unlock()
			}, nil)

			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = b.Free()
				}()
			}
			wg.Wait()

			Expect(calls).To(Equal(1))
		})

		It("tolerates a nil hook", func() {
			b := buffer.New([]byte("z"), nil, nil)
			Expect(b.Free()).To(BeNil())
			Expect(b.Released()).To(BeTrue())
		})
	})

	Context("Simple", func() {
		It("owns a private copy of the caller's slice", func() {
			src := []byte("hello")
			b := buffer.Simple(src)

			src[0] = 'X'
			Expect(b.Remaining()).To(Equal([]byte("hello")))
			Expect(b.Free()).To(BeNil())
		})
	})
})
