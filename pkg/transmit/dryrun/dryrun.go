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

// Package dryrun is a transmit engine without hardware. Every send is
// written to a writer as a level,duration_us capture of everything the pin
// would emit, repetitions back to back.
package dryrun

import (
	"errors"
	"fmt"
	"io"

	"github.com/rftx/rftx/pkg/transmit"
	"github.com/rftx/rftx/pkg/wave"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotOpen     = errors.New("engine not open")
	ErrUnknownWave = errors.New("unknown wave")
)

type storedWave struct {
	pulses []wave.Pulse
	pin    int
}

// Engine implements transmit.Engine by recording.
type Engine struct {
	out    io.Writer
	waves  map[transmit.WaveID]storedWave
	pin    int
	nextID transmit.WaveID
	open   bool
}

var _ transmit.Engine = (*Engine)(nil)

func New(out io.Writer) *Engine {
	if out == nil {
		out = io.Discard
	}
	return &Engine{
		out:   out,
		waves: make(map[transmit.WaveID]storedWave),
	}
}

func (e *Engine) Open() error {
	e.open = true
	log.Info().Msg("dry run: no hardware is used")
	return nil
}

func (e *Engine) ConfigureOutput(pin int) error {
	if !e.open {
		return ErrNotOpen
	}
	e.pin = pin
	log.Debug().Int("pin", pin).Msg("dry run: output configured")
	return nil
}

func (e *Engine) ClearWaves() error {
	clear(e.waves)
	return nil
}

func (e *Engine) CreateWave(pin int, pulses []wave.Pulse) (transmit.WaveID, error) {
	if !e.open {
		return 0, ErrNotOpen
	}
	id := e.nextID
	e.nextID++
	e.waves[id] = storedWave{pin: pin, pulses: append([]wave.Pulse(nil), pulses...)}
	return id, nil
}

func (e *Engine) SendRepeated(id transmit.WaveID, reps uint32) error {
	w, ok := e.waves[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWave, id)
	}

	b := wave.NewBuilder(wave.WithCapacity(len(w.pulses) * int(reps)))
	for range reps {
		for _, p := range w.pulses {
			b.AddPulse(p.Level, p.Duration)
		}
	}
	emitted := b.Sequence()

	if err := wave.MarshalCSV(e.out, emitted); err != nil {
		return fmt.Errorf("write dry run output: %w", err)
	}
	log.Info().
		Int("wave", int(id)).
		Int("pin", w.pin).
		Uint32("repetitions", reps).
		Int("pulses", emitted.Len()).
		Dur("duration", emitted.Total).
		Msg("dry run: wave sent")
	return nil
}

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
	e.open = false
	clear(e.waves)
	return nil
}
