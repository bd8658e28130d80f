/*
rftx
Copyright (C) 2025 The rftx Authors

This file is part of rftx.

rftx is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rftx is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rftx.  If not, see <http://www.gnu.org/licenses/>.
*/

package protocols

import (
	"errors"
	"fmt"

	"github.com/rftx/rftx/pkg/validation"
)

// Argument errors. Their text is the field part of the user facing
// "<module>: invalid <field>!" message.
var (
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrInvalidChannel   = errors.New("invalid channel")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalidHouseCode = errors.New("invalid house code")
)

// ErrEncoding is returned by an encoder handed a command that did not pass
// argument validation. Reaching it is a programming error.
var ErrEncoding = errors.New("protocol encoding error")

// ArgumentError is a command line validation failure of one module.
type ArgumentError struct {
	Err    error
	Module string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s!", e.Module, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// NewArgumentError wraps err for module p.
func NewArgumentError(p Protocol, err error) *ArgumentError {
	return &ArgumentError{Module: p.String(), Err: err}
}

// CheckFields validates cmd with its struct tags and maps the first failing
// field to its sentinel error. Fields missing from fieldErrs map to
// ErrInvalidArguments.
func CheckFields(cmd any, fieldErrs map[string]error) error {
	err := validation.DefaultValidator.Validate(cmd)
	if err == nil {
		return nil
	}

	var verr *validation.Error
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		if sentinel, ok := fieldErrs[verr.Fields[0].Field]; ok {
			return sentinel
		}
	}
	return ErrInvalidArguments
}

// EncodingError wraps a validation failure found while encoding.
func EncodingError(p Protocol, err error) error {
	return fmt.Errorf("%s: %w: %w", p, ErrEncoding, err)
}
