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

// Package transmit drives a GPIO output through an Engine: initialisation
// with bounded retries, building a wave from a pulse sequence, sending it
// a number of times back to back and waiting for completion.
package transmit

import (
	"errors"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rftx/rftx/pkg/wave"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPin            = 24
	DefaultSamplePeriod   = 10 * time.Microsecond
	DefaultInitTries      = 100
	DefaultInitRetryDelay = 100 * time.Millisecond
	DefaultPollInterval   = 100 * time.Millisecond
)

var (
	ErrEmptySequence = errors.New("pulse sequence is empty")
	ErrNoRepetitions = errors.New("repetitions must be at least one")
)

// WaveID identifies a wave created by an engine.
type WaveID int

// Engine is the hardware primitive set the driver is built on. An engine
// starts with its output driven low, pulses are relative to that level.
type Engine interface {
	// Open acquires the hardware. It may be retried after a failure.
	Open() error
	// ConfigureOutput disables the pull resistor of pin, makes it an
	// output and drives it low.
	ConfigureOutput(pin int) error
	// ClearWaves drops every wave the engine holds.
	ClearWaves() error
	CreateWave(pin int, pulses []wave.Pulse) (WaveID, error)
	// SendRepeated starts sending id reps times without gaps.
	SendRepeated(id WaveID, reps uint32) error
	Busy() (bool, error)
	DeleteWave(id WaveID) error
	// Close releases the hardware.
	Close() error
}

// Options configures a Driver. Zero values select the defaults.
type Options struct {
	Clock          clockwork.Clock
	Debug          io.Writer
	Pin            int
	InitTries      int
	InitRetryDelay time.Duration
	PollInterval   time.Duration
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Pin == 0 {
		o.Pin = DefaultPin
	}
	if o.InitTries <= 0 {
		o.InitTries = DefaultInitTries
	}
	if o.InitRetryDelay <= 0 {
		o.InitRetryDelay = DefaultInitRetryDelay
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// Driver transmits pulse sequences on one pin.
type Driver struct {
	engine Engine
	opts   Options
	open   bool
}

func NewDriver(engine Engine, opts Options) *Driver {
	return &Driver{
		engine: engine,
		opts:   opts.withDefaults(),
	}
}

// Pin returns the output pin.
func (d *Driver) Pin() int {
	return d.opts.Pin
}

// Init acquires the engine, retrying Open up to InitTries times, then sets
// up the output pin and clears stale waves.
func (d *Driver) Init() error {
	var err error
	for attempt := 1; attempt <= d.opts.InitTries; attempt++ {
		err = d.engine.Open()
		if err == nil {
			break
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("engine open failed")
		if attempt < d.opts.InitTries {
			d.opts.Clock.Sleep(d.opts.InitRetryDelay)
		}
	}
	if err != nil {
		return hwErr("gpioInitialise", ErrHardwareInit, err)
	}
	d.open = true

	if err := d.engine.ConfigureOutput(d.opts.Pin); err != nil {
		return hwErr("gpioSetMode", ErrHardwareInit, err)
	}
	if err := d.engine.ClearWaves(); err != nil {
		return hwErr("gpioWaveClear", ErrHardwareInit, err)
	}

	log.Debug().Int("pin", d.opts.Pin).Msg("transmitter initialised")
	return nil
}

// Transmit sends seq reps times and blocks until the engine is idle.
func (d *Driver) Transmit(seq wave.Sequence, reps uint32) error {
	if seq.Len() == 0 {
		return hwErr("gpioWaveAddGeneric", ErrTransmit, ErrEmptySequence)
	}
	if reps == 0 {
		return hwErr("gpioWaveChain", ErrTransmit, ErrNoRepetitions)
	}

	if d.opts.Debug != nil {
		wave.WriteSummary(d.opts.Debug, seq, reps)
	}

	id, err := d.engine.CreateWave(d.opts.Pin, seq.Pulses)
	if err != nil {
		return hwErr("gpioWaveCreate", ErrResourceExhausted, err)
	}

	log.Debug().
		Int("wave", int(id)).
		Int("pulses", seq.Len()).
		Dur("duration", seq.Total).
		Uint32("repetitions", reps).
		Msg("sending wave")

	if err := d.engine.SendRepeated(id, reps); err != nil {
		return hwErr("gpioWaveChain", ErrTransmit, err)
	}

	if err := d.wait(); err != nil {
		return err
	}

	if err := d.engine.DeleteWave(id); err != nil {
		return hwErr("gpioWaveDelete", ErrRelease, err)
	}
	return nil
}

func (d *Driver) wait() error {
	for {
		busy, err := d.engine.Busy()
		if err != nil {
			return hwErr("gpioWaveTxBusy", ErrTransmitState, err)
		}
		if !busy {
			return nil
		}
		d.opts.Clock.Sleep(d.opts.PollInterval)
	}
}

// Close releases the engine. It is a no-op if Init never succeeded in
// opening it.
func (d *Driver) Close() error {
	if !d.open {
		return nil
	}
	d.open = false
	if err := d.engine.Close(); err != nil {
		return hwErr("gpioTerminate", ErrRelease, err)
	}
	return nil
}

// Send is the one-shot path: Init, Transmit and Close.
func Send(engine Engine, opts Options, seq wave.Sequence, reps uint32) (err error) {
	d := NewDriver(engine, opts)
	defer func() {
		if cerr := d.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := d.Init(); err != nil {
		return err
	}
	return d.Transmit(seq, reps)
}
