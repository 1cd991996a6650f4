/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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
 */

// Package size models a byte count as a typed uint64 with binary-unit
// parsing and formatting, the way duration models a time.Duration.
package size

import "math"

// Size is a count of bytes, expressed in binary (1024-based) units.
type Size uint64

const (
	SizeNul   Size = 0
	SizeUnit  Size = 1
	SizeKilo  Size = SizeUnit << 10
	SizeMega  Size = SizeUnit << 20
	SizeGiga  Size = SizeUnit << 30
	SizeTera  Size = SizeUnit << 40
	SizePeta  Size = SizeUnit << 50
	SizeExa   Size = SizeUnit << 60
)

// ParseInt64 converts a signed byte count into a Size, taking the absolute
// value of negative inputs (mirroring the source's "negative sizes are a
// magnitude, not a direction" convention).
func ParseInt64(i int64) Size {
	if i >= 0 {
		return Size(i)
	}
	if i == math.MinInt64 {
		return Size(uint64(math.MaxInt64) + 1)
	}
	return Size(-i)
}

// Int64 returns s as a signed byte count, saturating at math.MaxInt64.
func (s Size) Int64() int64 {
	if uint64(s) > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(s)
}

// Uint64 returns s as an unsigned byte count.
func (s Size) Uint64() uint64 {
	return uint64(s)
}

// Float64 returns s as a floating-point byte count.
func (s Size) Float64() float64 {
	return float64(s)
}
