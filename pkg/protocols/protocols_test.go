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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, p := range All {
		got, ok := Lookup(p.String())
		require.True(t, ok, "protocol %s should resolve", p)
		assert.Equal(t, p, got)
	}

	_, ok := Lookup("x10")
	assert.False(t, ok)
	_, ok = Lookup("BORGA")
	assert.False(t, ok, "module names are case sensitive")
}

func TestProtocolString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "borga", Borga.String())
	assert.Equal(t, "dmv7008", DMV7008.String())
	assert.Equal(t, "gt9000", GT9000.String())
	assert.Equal(t, "protocol(7)", Protocol(7).String())
}

func TestParseChannel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		input   string
		want    Channel
	}{
		{name: "first", input: "1", want: Ch1},
		{name: "fourth", input: "4", want: Ch4},
		{name: "all", input: "5", want: ChAll},
		{name: "zero", input: "0", wantErr: ErrInvalidChannel},
		{name: "six", input: "6", wantErr: ErrInvalidChannel},
		{name: "negative", input: "-1", wantErr: ErrInvalidChannel},
		{name: "not a number", input: "a", wantErr: ErrInvalidChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseChannel(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseState(t *testing.T) {
	t.Parallel()

	s, err := ParseState("0")
	require.NoError(t, err)
	assert.Equal(t, StateOff, s)

	s, err = ParseState("1")
	require.NoError(t, err)
	assert.Equal(t, StateOn, s)

	for _, in := range []string{"2", "-1", "on", ""} {
		_, err := ParseState(in)
		require.ErrorIs(t, err, ErrInvalidState, "input %q", in)
	}
}

func TestArgumentError(t *testing.T) {
	t.Parallel()

	err := NewArgumentError(DMV7008, ErrInvalidHouseCode)

	assert.Equal(t, "dmv7008: invalid house code!", err.Error())
	require.ErrorIs(t, err, ErrInvalidHouseCode)

	var argErr *ArgumentError
	require.ErrorAs(t, error(err), &argErr)
	assert.Equal(t, "dmv7008", argErr.Module)
}

func TestCheckFields(t *testing.T) {
	t.Parallel()

	type cmd struct {
		Channel uint8 `validate:"lte=4"`
		State   uint8 `validate:"lte=1"`
		Other   uint8 `validate:"lte=1"`
	}
	fieldErrs := map[string]error{
		"Channel": ErrInvalidChannel,
		"State":   ErrInvalidState,
	}

	require.NoError(t, CheckFields(cmd{}, fieldErrs))
	require.ErrorIs(t, CheckFields(cmd{Channel: 5}, fieldErrs), ErrInvalidChannel)
	require.ErrorIs(t, CheckFields(cmd{State: 2}, fieldErrs), ErrInvalidState)
	require.ErrorIs(t, CheckFields(cmd{Other: 2}, fieldErrs), ErrInvalidArguments)
}

func TestEncodingError(t *testing.T) {
	t.Parallel()

	err := EncodingError(GT9000, ErrInvalidChannel)
	require.ErrorIs(t, err, ErrEncoding)
	require.ErrorIs(t, err, ErrInvalidChannel)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "gt9000: protocol encoding error: invalid channel", err.Error())
}

func TestCheckArgCount(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckArgCount([]string{"a", "b"}, 2))
	require.ErrorIs(t, CheckArgCount([]string{"a"}, 2), ErrInvalidArguments)
}
