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

package dryrun

import (
	"bytes"
	"testing"
	"time"

	"github.com/rftx/rftx/pkg/transmit"
	"github.com/rftx/rftx/pkg/wave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	e := New(&out)

	seq := wave.Sequence{
		Pulses: []wave.Pulse{
			{Level: true, Duration: 400 * time.Microsecond},
			{Level: false, Duration: 2300 * time.Microsecond},
		},
		Total: 2700 * time.Microsecond,
	}
	require.NoError(t, transmit.Send(e, transmit.Options{}, seq, 2))

	want := "level,duration_us\n" +
		"1,400\n" +
		"0,2300\n" +
		"1,400\n" +
		"0,2300\n"
	assert.Equal(t, want, out.String())
	assert.Empty(t, e.waves, "waves are deleted after sending")
}

func TestSend_OutputIsCapture(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	e := New(&out)

	b := wave.NewBuilder()
	b.AddPulse(true, 630*time.Microsecond)
	b.AddPulse(false, 73700*time.Microsecond)
	seq := b.Sequence()
	require.NoError(t, transmit.Send(e, transmit.Options{}, seq, 3))

	got, err := wave.UnmarshalCSV(&out)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Len())
	assert.Equal(t, 3*seq.Total, got.Total)
	assert.Equal(t, seq.Pulses, got.Pulses[4:])
}

func TestCreateWave_CopiesPulses(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	e := New(&out)
	require.NoError(t, e.Open())

	pulses := []wave.Pulse{{Level: true, Duration: 400 * time.Microsecond}}
	id, err := e.CreateWave(24, pulses)
	require.NoError(t, err)
	pulses[0].Duration = time.Second

	require.NoError(t, e.SendRepeated(id, 1))
	assert.Equal(t, "level,duration_us\n1,400\n", out.String())
}

func TestNotOpen(t *testing.T) {
	t.Parallel()

	e := New(nil)
	require.ErrorIs(t, e.ConfigureOutput(24), ErrNotOpen)
	_, err := e.CreateWave(24, nil)
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestUnknownWave(t *testing.T) {
	t.Parallel()

	e := New(nil)
	require.NoError(t, e.Open())
	require.ErrorIs(t, e.SendRepeated(9, 1), ErrUnknownWave)
	require.ErrorIs(t, e.DeleteWave(9), ErrUnknownWave)
}

func TestClearWaves(t *testing.T) {
	t.Parallel()

	e := New(nil)
	require.NoError(t, e.Open())
	id, err := e.CreateWave(24, []wave.Pulse{{Level: true, Duration: time.Millisecond}})
	require.NoError(t, err)

	require.NoError(t, e.ClearWaves())
	require.ErrorIs(t, e.SendRepeated(id, 1), ErrUnknownWave)

	next, err := e.CreateWave(24, nil)
	require.NoError(t, err)
	assert.NotEqual(t, id, next, "ids are not reused")
}
