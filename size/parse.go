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

package size

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned by Parse when the input has no recognizable
// numeric/unit shape.
var ErrInvalidFormat = errors.New("size: invalid format")

var parseUnits = map[string]Size{
	"B":  SizeUnit,
	"K":  SizeKilo,
	"KB": SizeKilo,
	"M":  SizeMega,
	"MB": SizeMega,
	"G":  SizeGiga,
	"GB": SizeGiga,
	"T":  SizeTera,
	"TB": SizeTera,
	"P":  SizePeta,
	"PB": SizePeta,
	"E":  SizeExa,
	"EB": SizeExa,
}

// Parse decodes a human-readable byte count such as "5MB", "1.5 GB", or
// "100" (bytes, unit-less) into a Size. Negative values are rejected;
// leading/trailing whitespace and surrounding quotes are tolerated.
func Parse(s string) (Size, error) {
	s = trimQuotes(s)
	if s == "" {
		return 0, ErrInvalidFormat
	}

	if s[0] == '+' {
		s = s[1:]
	} else if s[0] == '-' {
		return 0, fmt.Errorf("size: negative values are not allowed: %q", s)
	}

	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, ErrInvalidFormat
	}

	numPart := s[:i]
	unitPart := strings.ToUpper(strings.TrimSpace(s[i:]))

	val, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if unitPart == "" {
		unitPart = "B"
	}

	factor, ok := parseUnits[unitPart]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidFormat, unitPart)
	}

	return Size(val * float64(factor)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler via Parse.
func (s *Size) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UnmarshalJSON implements json.Unmarshaler: a quoted human-readable string
// is parsed with Parse; a bare JSON number is taken as a byte count.
func (s *Size) UnmarshalJSON(b []byte) error {
	str := strings.TrimSpace(string(b))
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		unq, err := strconv.Unquote(str)
		if err != nil {
			return err
		}
		return s.UnmarshalText([]byte(unq))
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return err
	}
	*s = Size(f)
	return nil
}
