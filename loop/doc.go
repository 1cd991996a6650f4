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

// Package loop is a thin adapter over a readiness-based event loop.
//
// It exposes exactly four primitives to the components built on top of it
// (socket, server, file/async, pool): attach/detach an I/O watcher with
// per-direction enable bits, attach/detach a timer with absolute-delay
// semantics, schedule a deferred callback for the next iteration (used for
// OnClose dispatch), and a cross-thread wakeup that runs a callback on the
// loop goroutine.
//
// Two backends exist behind the same Loop interface: a real epoll
// implementation on linux, and a portable POSIX poll(2) fallback used on
// every other platform. All watcher state is owned by the component that
// registered it; the loop itself never inspects socket or file
// semantics.
package loop
