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

package periph

import (
	"errors"
	"testing"
	"time"

	"github.com/rftx/rftx/pkg/transmit"
	"github.com/rftx/rftx/pkg/wave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiostream"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"pgregory.net/rapid"
)

const us = time.Microsecond

type streamPin struct {
	*gpiotest.Pin
	err     error
	streams []gpiostream.Stream
}

func (p *streamPin) StreamOut(s gpiostream.Stream) error {
	p.streams = append(p.streams, s)
	return p.err
}

// plainPin hides every method beyond gpio.PinIO.
type plainPin struct {
	gpio.PinIO
}

func newEngine(t *testing.T, pin gpio.PinIO) *Engine {
	t.Helper()
	e := New(WithPinLookup(func(name string) gpio.PinIO {
		if name == "GPIO24" && pin != nil {
			return pin
		}
		return nil
	}))
	require.NoError(t, e.Open())
	return e
}

func TestSamples(t *testing.T) {
	t.Parallel()

	pulses := []wave.Pulse{
		{Level: true, Duration: 30 * us},
		{Level: false, Duration: 20 * us},
		{Level: true, Duration: 10 * us},
	}
	assert.Equal(t, []bool{true, true, true, false, false, true}, Samples(pulses, 10*us))
}

func TestSamples_RoundsAtEdges(t *testing.T) {
	t.Parallel()

	// 14µs + 14µs + 14µs: edges land at 1.4, 2.8 and 4.2 samples
	pulses := []wave.Pulse{
		{Level: true, Duration: 14 * us},
		{Level: false, Duration: 14 * us},
		{Level: true, Duration: 14 * us},
	}
	assert.Equal(t, []bool{true, false, false, true}, Samples(pulses, 10*us))
}

func TestPack(t *testing.T) {
	t.Parallel()

	samples := []bool{true, false, true}
	assert.Equal(t, []byte{0b10110110, 0b10000000}, Pack(samples, 3))
	assert.Equal(t, []byte{0b10100000}, Pack(samples, 1))
	assert.Empty(t, Pack(samples, 0))
}

func TestPack_RepetitionsContiguous(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		samples := rapid.SliceOfN(rapid.Bool(), 1, 64).Draw(t, "samples")
		reps := rapid.Uint32Range(1, 10).Draw(t, "reps")

		packed := Pack(samples, reps)
		n := len(samples) * int(reps)
		if len(packed) != (n+7)/8 {
			t.Fatalf("packed %d bytes for %d samples", len(packed), n)
		}
		for i := range n {
			got := packed[i/8]&(0x80>>(i%8)) != 0
			if got != samples[i%len(samples)] {
				t.Fatalf("sample %d is %v, want %v", i, got, samples[i%len(samples)])
			}
		}
		for i := n; i < len(packed)*8; i++ {
			if packed[i/8]&(0x80>>(i%8)) != 0 {
				t.Fatalf("padding bit %d is high", i)
			}
		}
	})
}

func TestConfigureOutput(t *testing.T) {
	t.Parallel()

	pin := &streamPin{Pin: &gpiotest.Pin{N: "GPIO24", Num: 24, L: gpio.High, P: gpio.PullUp}}
	e := newEngine(t, pin)

	require.NoError(t, e.ConfigureOutput(24))
	assert.Equal(t, gpio.Low, pin.Read())
	assert.Equal(t, gpio.Float, pin.P)
}

func TestConfigureOutput_Errors(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	err := e.ConfigureOutput(24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	e = newEngine(t, plainPin{&gpiotest.Pin{N: "GPIO24", Num: 24}})
	require.ErrorIs(t, e.ConfigureOutput(24), ErrNoStream)
}

func TestTransmitCycle(t *testing.T) {
	t.Parallel()

	pin := &streamPin{Pin: &gpiotest.Pin{N: "GPIO24", Num: 24}}
	e := newEngine(t, pin)
	require.NoError(t, e.ConfigureOutput(24))
	require.NoError(t, e.ClearWaves())

	pulses := []wave.Pulse{
		{Level: true, Duration: 40 * us},
		{Level: false, Duration: 40 * us},
	}
	id, err := e.CreateWave(24, pulses)
	require.NoError(t, err)

	require.NoError(t, e.SendRepeated(id, 2))
	require.Len(t, pin.streams, 1)

	stream, ok := pin.streams[0].(*gpiostream.BitStream)
	require.True(t, ok)
	assert.Equal(t, []byte{0b11110000, 0b11110000}, stream.Bits)
	assert.Equal(t, 100*physic.KiloHertz, stream.Freq)
	assert.False(t, stream.LSBF)
	assert.Equal(t, gpio.Low, pin.Read())

	busy, err := e.Busy()
	require.NoError(t, err)
	assert.False(t, busy)

	require.NoError(t, e.DeleteWave(id))
	require.ErrorIs(t, e.DeleteWave(id), ErrUnknownWave)
	require.ErrorIs(t, e.SendRepeated(id, 1), ErrUnknownWave)
	require.NoError(t, e.Close())
}

func TestCreateWave_Errors(t *testing.T) {
	t.Parallel()

	pin := &streamPin{Pin: &gpiotest.Pin{N: "GPIO24", Num: 24}}
	e := newEngine(t, pin)

	_, err := e.CreateWave(24, nil)
	require.ErrorIs(t, err, ErrNotConfigured)

	require.NoError(t, e.ConfigureOutput(24))
	_, err = e.CreateWave(17, nil)
	require.ErrorIs(t, err, ErrWrongPin)
}

func TestSendRepeated_StreamError(t *testing.T) {
	t.Parallel()

	errDMA := errors.New("dma")
	pin := &streamPin{Pin: &gpiotest.Pin{N: "GPIO24", Num: 24}, err: errDMA}
	e := newEngine(t, pin)
	require.NoError(t, e.ConfigureOutput(24))

	id, err := e.CreateWave(24, []wave.Pulse{{Level: true, Duration: 10 * us}})
	require.NoError(t, err)
	require.ErrorIs(t, e.SendRepeated(id, 1), errDMA)
}

func TestWithSamplePeriod(t *testing.T) {
	t.Parallel()

	e := New(WithSamplePeriod(5 * us))
	assert.Equal(t, 5*us, e.sample)

	e = New(WithSamplePeriod(0))
	assert.Equal(t, transmit.DefaultSamplePeriod, e.sample)
}
