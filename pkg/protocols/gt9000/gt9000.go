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

// Package gt9000 encodes commands for GT9000 rolling code switches.
//
// A telegram is a short high start pulse and a low start pause followed by
// 24 bits. Each bit is a high pulse followed by a low pulse, a one starts
// with the long pulse. Bits, first transmitted first:
//
//	 4 preamble 1100
//	16 rolling code (MSB first)
//	 3 physical channel (MSB first)
//	 1 trailing 0
//
// The receiver accepts any of four codes for a channel and state. The code
// is picked from the current time so consecutive presses differ.
package gt9000

import (
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rftx/rftx/pkg/protocols"
	"github.com/rftx/rftx/pkg/wave"
)

const (
	ShortPulse = 400 * time.Microsecond

	// MsgBits is the number of encoded bits in a telegram.
	MsgBits = 24
	// FrameLen is the pulse count of one telegram.
	FrameLen = (1 + MsgBits) * 2
)

// Variant is one timing parameterization of the protocol.
type Variant struct {
	Name       string
	StartPulse time.Duration
	StartPause time.Duration
	LongPulse  time.Duration
	Repeats    uint32
}

var (
	// VariantStandard is the timing of current, hardware verified
	// transmitters.
	VariantStandard = Variant{
		Name:       "standard",
		StartPulse: ShortPulse,
		StartPause: 2300 * time.Microsecond,
		LongPulse:  1100 * time.Microsecond,
		Repeats:    8,
	}
	// VariantLegacy is the timing of early transmitters.
	VariantLegacy = Variant{
		Name:       "legacy",
		StartPulse: ShortPulse,
		StartPause: 2400 * time.Microsecond,
		LongPulse:  1200 * time.Microsecond,
		Repeats:    5,
	}
	// VariantAltStart uses the long start sequence some remotes send.
	VariantAltStart = Variant{
		Name:       "altstart",
		StartPulse: 3000 * time.Microsecond,
		StartPause: 7200 * time.Microsecond,
		LongPulse:  1100 * time.Microsecond,
		Repeats:    8,
	}
)

var variants = []Variant{VariantStandard, VariantLegacy, VariantAltStart}

// LookupVariant returns the variant with the given name.
func LookupVariant(name string) (Variant, error) {
	for _, v := range variants {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("unknown gt9000 variant: %s", name)
}

// Coding returns the bit-pair encoding of the variant.
func (v Variant) Coding() wave.BitCoding {
	return wave.BitCoding{
		FirstLevel: true,
		Zero:       wave.TimePair{ShortPulse, v.LongPulse},
		One:        wave.TimePair{v.LongPulse, ShortPulse},
		Tolerance:  150 * time.Microsecond,
	}
}

var preamble = [4]bool{true, true, false, false}

var (
	groupA = [4]uint16{0x8F24, 0xC357, 0x57DB, 0xE5C3}
	groupB = [4]uint16{0xBABA, 0x1842, 0x6D01, 0x42F9}
)

// codeTable assigns a code group to every state and channel.
var codeTable = [2][protocols.NumChannels]*[4]uint16{
	//                    Ch1      Ch2      Ch3      Ch4      All
	protocols.StateOff: {&groupB, &groupB, &groupB, &groupA, &groupA},
	protocols.StateOn:  {&groupA, &groupA, &groupA, &groupB, &groupB},
}

// channelTable maps logical channels Ch1..Ch4, All to physical channels.
var channelTable = [protocols.NumChannels]uint8{0, 2, 6, 1, 5}

// PhysicalChannel returns the 3 bit pattern a receiver matches for ch.
func PhysicalChannel(ch protocols.Channel) uint8 {
	return channelTable[ch]
}

// Codes returns the four codes valid for a channel and state.
func Codes(ch protocols.Channel, state protocols.State) [4]uint16 {
	return *codeTable[state][ch]
}

// Code picks the code sent at tick, a microsecond timestamp.
func Code(ch protocols.Channel, state protocols.State, tick uint32) uint16 {
	group := codeTable[state][ch]
	return group[tick%uint32(len(group))]
}

// Command switches a channel.
type Command struct {
	Channel protocols.Channel `validate:"lte=4"`
	State   protocols.State   `validate:"lte=1"`
}

func (Command) Protocol() protocols.Protocol {
	return protocols.GT9000
}

var fieldErrs = map[string]error{
	"Channel": protocols.ErrInvalidChannel,
	"State":   protocols.ErrInvalidState,
}

// Validate checks the command fields.
func (c Command) Validate() error {
	return protocols.CheckFields(c, fieldErrs)
}

// Usage returns the one line help of the module.
func Usage(prog string) string {
	return " " + prog + " gt9000 channel[1-5] state[0-1]"
}

// ParseArgs converts the module arguments (channel, state) into a Command.
func ParseArgs(args []string) (Command, error) {
	if err := protocols.CheckArgCount(args, 2); err != nil {
		return Command{}, protocols.NewArgumentError(protocols.GT9000, err)
	}

	ch, err := protocols.ParseChannel(args[0])
	if err != nil {
		return Command{}, protocols.NewArgumentError(protocols.GT9000, err)
	}
	state, err := protocols.ParseState(args[1])
	if err != nil {
		return Command{}, protocols.NewArgumentError(protocols.GT9000, err)
	}

	return Command{Channel: ch, State: state}, nil
}

// Encoder builds gt9000 telegrams.
type Encoder struct {
	clock   clockwork.Clock
	debug   io.Writer
	variant Variant
}

// New returns an encoder for variant that picks codes from clock. A nil
// clock uses the real time, a non-nil debug writer receives a rendering
// of every encoded waveform.
func New(clock clockwork.Clock, variant Variant, debug io.Writer) *Encoder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Encoder{
		clock:   clock,
		variant: variant,
		debug:   debug,
	}
}

func (*Encoder) Protocol() protocols.Protocol {
	return protocols.GT9000
}

func (e *Encoder) Repeats() uint32 {
	return e.variant.Repeats
}

// Variant returns the timing the encoder uses.
func (e *Encoder) Variant() Variant {
	return e.variant
}

func (e *Encoder) tick() uint32 {
	return uint32(e.clock.Now().UnixMicro()) //nolint:gosec // wraps like a hardware tick counter
}

// Encode builds one telegram. There is no trailing pause, the start pause
// separates repetitions.
func (e *Encoder) Encode(c protocols.Command) (wave.Sequence, error) {
	cmd, ok := c.(Command)
	if !ok {
		return wave.Sequence{}, protocols.EncodingError(protocols.GT9000, protocols.ErrInvalidArguments)
	}
	if err := cmd.Validate(); err != nil {
		return wave.Sequence{}, protocols.EncodingError(protocols.GT9000, err)
	}

	coding := e.variant.Coding()
	b := wave.NewBuilder(wave.WithCapacity(FrameLen), wave.WithDebug(e.debug, ShortPulse))

	b.AddPulse(true, e.variant.StartPulse)
	b.AddPulse(false, e.variant.StartPause)

	for _, bit := range preamble {
		coding.Add(b, bit)
	}

	coding.AddBits(b, uint32(Code(cmd.Channel, cmd.State, e.tick())), 16)
	coding.AddBits(b, uint32(PhysicalChannel(cmd.Channel)), 3)
	coding.Add(b, false)

	return b.Sequence(), nil
}
