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

package config

import (
	"reflect"
	"strings"

	libmap "github.com/go-viper/mapstructure/v2"
)

// Network names the address family/transport a Client dials or a Server
// listens on.
type Network string

const (
	NetworkTCP  Network = "tcp"
	NetworkTCP4 Network = "tcp4"
	NetworkTCP6 Network = "tcp6"
	NetworkUnix Network = "unix"
)

// List returns all supported networks.
func List() []Network {
	return []Network{
		NetworkTCP,
		NetworkTCP4,
		NetworkTCP6,
		NetworkUnix,
	}
}

// Parse maps a loosely-formatted string onto a Network; unknown values
// yield the empty Network, which Check rejects.
func Parse(s string) Network {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(NetworkTCP):
		return NetworkTCP
	case string(NetworkTCP4):
		return NetworkTCP4
	case string(NetworkTCP6):
		return NetworkTCP6
	case string(NetworkUnix):
		return NetworkUnix
	}

	return ""
}

func parseBytes(p []byte) Network {
	return Parse(string(p))
}

func (v Network) String() string {
	return string(v)
}

// Check reports whether v is one of the supported networks.
func (v Network) Check() bool {
	for _, n := range List() {
		if v == n {
			return true
		}
	}
	return false
}

// IsTCP reports whether v is one of the TCP family networks.
func (v Network) IsTCP() bool {
	switch v {
	case NetworkTCP, NetworkTCP4, NetworkTCP6:
		return true
	}
	return false
}

// ViperDecoderHook lets a mapstructure-based config loader decode a plain
// string into a Network value.
func ViperDecoderHook() libmap.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		var (
			z Network
			t string
			k bool
		)

		// Check if the data type matches the expected one
		if from.Kind() != reflect.String {
			return data, nil
		} else if t, k = data.(string); !k {
			return data, nil
		}

		// Check if the target type matches the expected one
		if to != reflect.TypeOf(z) {
			return data, nil
		}

		return Parse(t), nil
	}
}
