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

// Package wave builds GPIO waveforms as ordered sequences of timed pulses.
//
// A waveform always starts from a low pin. Protocol encoders append pulses
// with AddPulse or AddPair and hand the finished Sequence to a transmit
// driver.
package wave

import (
	"fmt"
	"io"
	"time"
)

// defaultCapacity covers the longest frame of the supported protocols.
const defaultCapacity = 64

// Pulse is one segment of a waveform: the pin is held at Level for Duration.
type Pulse struct {
	Level    bool
	Duration time.Duration
}

// TimePair holds the durations of two consecutive, opposite-level pulses.
// Every supported protocol encodes one logical bit as one TimePair.
type TimePair [2]time.Duration

// Sequence is a finished waveform.
type Sequence struct {
	Pulses []Pulse
	// Total is the sum of all pulse durations.
	Total time.Duration
}

// Len returns the number of pulses in the sequence.
func (s Sequence) Len() int {
	return len(s.Pulses)
}

// Sum recomputes the total duration from the pulses.
func (s Sequence) Sum() time.Duration {
	var total time.Duration
	for _, p := range s.Pulses {
		total += p.Duration
	}
	return total
}

// Micro is a pulse in whole microseconds, the unit waveform engines take.
type Micro struct {
	US    uint32
	Level bool
}

// Micros converts the pulses to microsecond records, truncating any
// sub-microsecond remainder.
func (s Sequence) Micros() []Micro {
	out := make([]Micro, len(s.Pulses))
	for i, p := range s.Pulses {
		out[i] = Micro{
			Level: p.Level,
			US:    uint32(p.Duration.Microseconds()), //nolint:gosec // pulses are far below 71 minutes
		}
	}
	return out
}

// Builder accumulates pulses into a Sequence and keeps the running wave
// time. The zero value is not usable, use NewBuilder.
type Builder struct {
	debug     io.Writer
	pulses    []Pulse
	total     time.Duration
	debugUnit time.Duration
	lastLevel bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithDebug renders every added pulse to w, one character per half of unit.
// A nil writer or a unit shorter than 2ns disables rendering.
func WithDebug(w io.Writer, unit time.Duration) Option {
	return func(b *Builder) {
		if w == nil || unit/2 <= 0 {
			return
		}
		b.debug = w
		b.debugUnit = unit
	}
}

// WithCapacity pre-sizes the pulse slice for n pulses.
func WithCapacity(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.pulses = make([]Pulse, 0, n)
		}
	}
}

// NewBuilder returns an empty builder with the pin at low level.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.pulses == nil {
		b.pulses = make([]Pulse, 0, defaultCapacity)
	}
	return b
}

// Reset empties the builder while keeping its debug settings.
func (b *Builder) Reset() {
	b.pulses = b.pulses[:0]
	b.total = 0
	b.lastLevel = false
}

// AddPulse appends a pulse at the given level. Durations must be positive,
// callers own that check.
func (b *Builder) AddPulse(level bool, d time.Duration) {
	b.pulses = append(b.pulses, Pulse{Level: level, Duration: d})
	b.total += d

	if b.debug != nil {
		b.render(level, d)
	}
}

// AddPair appends p[0] at level followed by p[1] at the opposite level.
func (b *Builder) AddPair(level bool, p TimePair) {
	b.AddPulse(level, p[0])
	b.AddPulse(!level, p[1])
}

// Duration returns the running wave time.
func (b *Builder) Duration() time.Duration {
	return b.total
}

// Len returns the number of pulses added so far.
func (b *Builder) Len() int {
	return len(b.pulses)
}

// Sequence returns a copy of the pulses built so far.
func (b *Builder) Sequence() Sequence {
	pulses := make([]Pulse, len(b.pulses))
	copy(pulses, b.pulses)
	return Sequence{
		Pulses: pulses,
		Total:  b.total,
	}
}

func (b *Builder) render(level bool, d time.Duration) {
	n := int(d / (b.debugUnit / 2))
	for range n {
		if level != b.lastLevel {
			if level {
				_, _ = io.WriteString(b.debug, "/")
			} else {
				_, _ = io.WriteString(b.debug, "\\")
			}
			b.lastLevel = level
		}
		if level {
			_, _ = io.WriteString(b.debug, "‾")
		} else {
			_, _ = io.WriteString(b.debug, "_")
		}
	}
}

// WriteSummary closes a rendered waveform line with its timing, e.g.
// " 24800 µS x 10 = 248 ms".
func WriteSummary(w io.Writer, seq Sequence, repetitions uint32) {
	us := seq.Total.Microseconds()
	_, _ = fmt.Fprintf(w, " %d µS x %d = %d ms\n", us, repetitions, us*int64(repetitions)/1000)
}
