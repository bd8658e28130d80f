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

// Package periph is the local transmit engine. It drives the pin with a
// periph.io bit stream, which the Raspberry Pi host driver clocks out by
// DMA at a fixed sample period.
package periph

import (
	"errors"
	"fmt"
	"time"

	"github.com/rftx/rftx/pkg/transmit"
	"github.com/rftx/rftx/pkg/wave"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiostream"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var (
	ErrNotConfigured = errors.New("output pin not configured")
	ErrNoStream      = errors.New("pin does not support bit streams")
	ErrUnknownWave   = errors.New("unknown wave")
	ErrWrongPin      = errors.New("wave pin differs from configured pin")
)

// StreamPin is a GPIO pin that can clock out a bit stream.
type StreamPin interface {
	gpio.PinIO
	gpiostream.PinOut
}

// Option configures an Engine.
type Option func(*Engine)

// WithSamplePeriod sets the stream sample period. Pulse durations are
// rounded to it.
func WithSamplePeriod(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.sample = d
		}
	}
}

// WithPinLookup replaces the gpioreg pin registry and host initialisation,
// for tests.
func WithPinLookup(lookup func(name string) gpio.PinIO) Option {
	return func(e *Engine) {
		e.lookup = lookup
		e.hostInit = func() error { return nil }
	}
}

// Engine implements transmit.Engine on periph.io.
type Engine struct {
	pin      StreamPin
	hostInit func() error
	lookup   func(name string) gpio.PinIO
	waves    map[transmit.WaveID][]bool
	sample   time.Duration
	pinNum   int
	nextID   transmit.WaveID
}

var _ transmit.Engine = (*Engine)(nil)

func New(opts ...Option) *Engine {
	e := &Engine{
		sample: transmit.DefaultSamplePeriod,
		lookup: gpioreg.ByName,
		hostInit: func() error {
			_, err := host.Init()
			return err //nolint:wrapcheck // wrapped by the driver
		},
		waves: make(map[transmit.WaveID][]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Open() error {
	if err := e.hostInit(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}

func (e *Engine) ConfigureOutput(pin int) error {
	name := fmt.Sprintf("GPIO%d", pin)
	p := e.lookup(name)
	if p == nil {
		return fmt.Errorf("pin %d (%s) not found in hardware", pin, name)
	}
	if r, ok := p.(gpio.RealPin); ok {
		p = r.Real()
	}
	sp, ok := p.(StreamPin)
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNoStream)
	}

	if err := sp.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("disable pull on %s: %w", name, err)
	}
	if err := sp.Out(gpio.Low); err != nil {
		return fmt.Errorf("drive %s low: %w", name, err)
	}

	e.pin = sp
	e.pinNum = pin
	return nil
}

func (e *Engine) ClearWaves() error {
	clear(e.waves)
	return nil
}

func (e *Engine) CreateWave(pin int, pulses []wave.Pulse) (transmit.WaveID, error) {
	if e.pin == nil {
		return 0, ErrNotConfigured
	}
	if pin != e.pinNum {
		return 0, fmt.Errorf("%w: %d != %d", ErrWrongPin, pin, e.pinNum)
	}

	id := e.nextID
	e.nextID++
	e.waves[id] = Samples(pulses, e.sample)
	return id, nil
}

func (e *Engine) SendRepeated(id transmit.WaveID, reps uint32) error {
	samples, ok := e.waves[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWave, id)
	}

	stream := &gpiostream.BitStream{
		Bits: Pack(samples, reps),
		Freq: physic.PeriodToFrequency(e.sample),
		LSBF: false,
	}
	log.Debug().
		Int("samples", len(samples)).
		Uint32("repetitions", reps).
		Stringer("duration", stream.Duration()).
		Msg("streaming wave")

	if err := e.pin.StreamOut(stream); err != nil {
		return fmt.Errorf("stream out: %w", err)
	}
	if err := e.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("drive low after stream: %w", err)
	}
	return nil
}

// Busy is always false, StreamOut returns once the stream is sent.
func (*Engine) Busy() (bool, error) {
	return false, nil
}

func (e *Engine) DeleteWave(id transmit.WaveID) error {
	if _, ok := e.waves[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWave, id)
	}
	delete(e.waves, id)
	return nil
}

func (e *Engine) Close() error {
	clear(e.waves)
	if e.pin == nil {
		return nil
	}
	p := e.pin
	e.pin = nil
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("drive low on close: %w", err)
	}
	return nil
}

// Samples converts pulses into one level per sample period. Edges are
// placed at the rounded cumulative time so rounding errors do not add up.
func Samples(pulses []wave.Pulse, sample time.Duration) []bool {
	var total time.Duration
	for _, p := range pulses {
		total += p.Duration
	}
	out := make([]bool, 0, int((total+sample/2)/sample))

	var elapsed time.Duration
	for _, p := range pulses {
		elapsed += p.Duration
		end := int((elapsed + sample/2) / sample)
		for len(out) < end {
			out = append(out, p.Level)
		}
	}
	return out
}

// Pack concatenates reps copies of samples into MSB first bytes. The last
// byte is padded with low samples.
func Pack(samples []bool, reps uint32) []byte {
	n := len(samples) * int(reps)
	out := make([]byte, (n+7)/8)
	i := 0
	for range reps {
		for _, s := range samples {
			if s {
				out[i/8] |= 0x80 >> (i % 8)
			}
			i++
		}
	}
	return out
}
