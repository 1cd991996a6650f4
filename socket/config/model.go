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

// Package config defines the connection parameters a caller assembles
// before handing a Client or Server record to the socket or server
// package. Address resolution and TLS credential material are built by
// the caller; this package only shapes and validates what they hand in.
package config

import (
	"crypto/tls"
	"fmt"

	libval "github.com/go-playground/validator/v10"
	libdur "github.com/nabbar/evio/duration"
	liberr "github.com/nabbar/evio/errors"
)

// TLS carries an already-built TLS configuration and the session-level
// knobs the socket state machine needs. Config is the opaque credential
// handle the caller constructs; this package never builds one.
type TLS struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`

	// Config is the caller-built *tls.Config, credentials already
	// assigned. Required when Enabled is true.
	Config *tls.Config `mapstructure:"-" json:"-" yaml:"-" toml:"-" validate:"-"`

	// ServerName overrides Config.ServerName for client-side handshakes
	// when non-empty; useful when Address is an IP literal.
	ServerName string `mapstructure:"serverName" json:"serverName" yaml:"serverName" toml:"serverName"`

	// WaitHangup, when true, makes socket.Close wait for the peer's TLS
	// close_notify (or the socket timeout) before transitioning to
	// CLOSED. Defaults to false: the bye is sent and the socket closes
	// without waiting for the peer's own bye.
	WaitHangup bool `mapstructure:"waitHangup" json:"waitHangup" yaml:"waitHangup" toml:"waitHangup"`
}

func (t TLS) validate() liberr.Error {
	if t.Enabled && t.Config == nil {
		return ErrorInvalidTLS.Error(nil)
	}
	return nil
}

// Client describes the parameters of an outbound connection.
type Client struct {
	Network Network `mapstructure:"network" json:"network" yaml:"network" toml:"network" validate:"required"`
	Address string  `mapstructure:"address" json:"address" yaml:"address" toml:"address" validate:"required"`

	// Timeout is the inactivity timeout armed while reads are active or
	// writes are pending. Zero disables the timer.
	Timeout libdur.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" toml:"timeout" validate:"gte=0"`

	// ChunkSize bounds the scratch read buffer; zero selects a library
	// default.
	ChunkSize int32 `mapstructure:"chunkSize" json:"chunkSize" yaml:"chunkSize" toml:"chunkSize" validate:"gte=0"`

	TLS TLS `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
}

// Validate reports a non-nil error if c cannot be used to dial.
func (c Client) Validate() liberr.Error {
	err := ErrorValidatorError.Error(nil)

	if !c.Network.Check() {
		err.Add(ErrorInvalidNetwork.Error(nil))
	}

	if er := libval.New().Struct(c); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
		}

		for _, e := range er.(libval.ValidationErrors) {
			//nolint goerr113
			err.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.StructNamespace(), e.ActualTag()))
		}
	}

	if er := c.TLS.validate(); er != nil {
		err.Add(er)
	}

	if err.HasParent() {
		return err
	}

	return nil
}

// Server describes the parameters of a listening endpoint.
type Server struct {
	Network Network `mapstructure:"network" json:"network" yaml:"network" toml:"network" validate:"required"`
	Address string  `mapstructure:"address" json:"address" yaml:"address" toml:"address" validate:"required"`

	// Backlog is the hint passed to listen(2). Zero selects a library
	// default.
	Backlog int `mapstructure:"backlog" json:"backlog" yaml:"backlog" toml:"backlog" validate:"gte=0"`

	// AcceptBackoff is how long the accept watcher pauses after a fatal
	// accept error (EMFILE, ENFILE) before resuming. Zero selects a
	// library default.
	AcceptBackoff libdur.Duration `mapstructure:"acceptBackoff" json:"acceptBackoff" yaml:"acceptBackoff" toml:"acceptBackoff" validate:"gte=0"`

	TLS TLS `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
}

// Validate reports a non-nil error if s cannot be used to listen.
func (s Server) Validate() liberr.Error {
	err := ErrorValidatorError.Error(nil)

	if !s.Network.Check() {
		err.Add(ErrorInvalidNetwork.Error(nil))
	}

	if er := libval.New().Struct(s); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
		}

		for _, e := range er.(libval.ValidationErrors) {
			//nolint goerr113
			err.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.StructNamespace(), e.ActualTag()))
		}
	}

	if er := s.TLS.validate(); er != nil {
		err.Add(er)
	}

	if err.HasParent() {
		return err
	}

	return nil
}
