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

package wave

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
)

var (
	ErrOddPulses    = errors.New("pulse count is not a multiple of two")
	ErrLevelOrder   = errors.New("pulse pair has unexpected levels")
	ErrUnknownTimes = errors.New("pulse pair matches neither zero nor one")
)

// Record is one pulse of a capture file, durations in microseconds.
type Record struct {
	Level      int   `csv:"level"`
	DurationUS int64 `csv:"duration_us"`
}

// Records converts the sequence into capture records.
func (s Sequence) Records() []Record {
	micros := s.Micros()
	out := make([]Record, len(micros))
	for i, m := range micros {
		if m.Level {
			out[i].Level = 1
		}
		out[i].DurationUS = int64(m.US)
	}
	return out
}

// MarshalCSV writes the sequence as a level,duration_us capture.
func MarshalCSV(w io.Writer, s Sequence) error {
	records := s.Records()
	if err := gocsv.Marshal(&records, w); err != nil {
		return fmt.Errorf("failed to marshal capture: %w", err)
	}
	return nil
}

// UnmarshalCSV reads a capture written by MarshalCSV or recorded from a
// reference transmitter.
func UnmarshalCSV(r io.Reader) (Sequence, error) {
	var records []Record
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return Sequence{}, fmt.Errorf("failed to unmarshal capture: %w", err)
	}

	seq := Sequence{Pulses: make([]Pulse, 0, len(records))}
	for i, rec := range records {
		if rec.DurationUS <= 0 {
			return Sequence{}, fmt.Errorf("record %d: non-positive duration %d", i, rec.DurationUS)
		}
		d := time.Duration(rec.DurationUS) * time.Microsecond
		seq.Pulses = append(seq.Pulses, Pulse{Level: rec.Level != 0, Duration: d})
		seq.Total += d
	}
	return seq, nil
}

// BitCoding describes a bit-pair encoding: the level of the first pulse of
// every pair and the pair durations for each bit value.
type BitCoding struct {
	Zero       TimePair
	One        TimePair
	FirstLevel bool
	// Tolerance is the allowed deviation per pulse when decoding.
	Tolerance time.Duration
}

// Pair returns the pulse durations for a bit.
func (c BitCoding) Pair(bit bool) TimePair {
	if bit {
		return c.One
	}
	return c.Zero
}

// Add appends one encoded bit to the builder.
func (c BitCoding) Add(b *Builder, bit bool) {
	b.AddPair(c.FirstLevel, c.Pair(bit))
}

// AddBits appends the low n bits of v, most significant first.
func (c BitCoding) AddBits(b *Builder, v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		c.Add(b, v&(1<<uint(i)) != 0)
	}
}

// Decode maps pulse pairs back to bits. It only exists to check captures
// against a coding, it is not a receiver.
func (c BitCoding) Decode(pulses []Pulse) ([]bool, error) {
	if len(pulses)%2 != 0 {
		return nil, ErrOddPulses
	}

	bits := make([]bool, 0, len(pulses)/2)
	for i := 0; i < len(pulses); i += 2 {
		first, second := pulses[i], pulses[i+1]
		if first.Level != c.FirstLevel || second.Level == c.FirstLevel {
			return nil, fmt.Errorf("pair %d: %w", i/2, ErrLevelOrder)
		}
		pair := TimePair{first.Duration, second.Duration}
		switch {
		case c.matches(pair, c.One):
			bits = append(bits, true)
		case c.matches(pair, c.Zero):
			bits = append(bits, false)
		default:
			return nil, fmt.Errorf("pair %d (%v): %w", i/2, pair, ErrUnknownTimes)
		}
	}
	return bits, nil
}

func (c BitCoding) matches(got, want TimePair) bool {
	return within(got[0], want[0], c.Tolerance) && within(got[1], want[1], c.Tolerance)
}

func within(got, want, tolerance time.Duration) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
