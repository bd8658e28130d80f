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

// Package dmv7008 encodes commands for DMV7008 house code switches and
// dimmers.
//
// A telegram is a short high start pulse, 20 bits and a long low pause.
// Each bit is a low pulse followed by a high pulse, a one starts with the
// long pulse. Bits, first transmitted first:
//
//	12 house code (MSB first)
//	 3 physical channel (MSB first)
//	 1 switch state
//	 1 dim, always 0
//	 1 unknown, always 0
//	 2 checksum
package dmv7008

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rftx/rftx/pkg/protocols"
	"github.com/rftx/rftx/pkg/wave"
)

const (
	ShortPulse    = 630 * time.Microsecond
	LongPulse     = 1292 * time.Microsecond
	TelegramPause = 73700 * time.Microsecond
	NumRepeats    = 4

	// MaxHouseCode is the upper limit of the 12 bit house code.
	MaxHouseCode = 0xFFF
	// MsgBits is the number of encoded bits in a telegram.
	MsgBits = 20
	// FrameLen is the pulse count of one telegram.
	FrameLen = 1 + MsgBits*2 + 1
)

// Coding is the dmv7008 bit-pair encoding.
var Coding = wave.BitCoding{
	FirstLevel: false,
	Zero:       wave.TimePair{ShortPulse, LongPulse},
	One:        wave.TimePair{LongPulse, ShortPulse},
	Tolerance:  150 * time.Microsecond,
}

// channelTable maps logical channels Ch1..Ch4, All to physical channels.
var channelTable = [protocols.NumChannels]uint8{0, 4, 2, 6, 7}

// PhysicalChannel returns the 3 bit pattern a receiver matches for ch.
func PhysicalChannel(ch protocols.Channel) uint8 {
	return channelTable[ch]
}

// Checksum folds the physical channel bits and the state into the two
// checksum bits. Channel bits alternate between the accumulators starting
// with the first, the state goes into the second.
func Checksum(physical uint8, state protocols.State) [2]bool {
	var csum [2]bool
	for i := range 3 {
		bit := physical&(0x4>>i) != 0
		csum[i%2] = csum[i%2] != bit
	}
	csum[1] = csum[1] != (state == protocols.StateOn)
	return csum
}

// Command switches a channel of the receivers paired with HouseCode.
type Command struct {
	HouseCode uint16            `validate:"lte=4095"`
	Channel   protocols.Channel `validate:"lte=4"`
	State     protocols.State   `validate:"lte=1"`
}

func (Command) Protocol() protocols.Protocol {
	return protocols.DMV7008
}

var fieldErrs = map[string]error{
	"HouseCode": protocols.ErrInvalidHouseCode,
	"Channel":   protocols.ErrInvalidChannel,
	"State":     protocols.ErrInvalidState,
}

// Validate checks the command fields.
func (c Command) Validate() error {
	return protocols.CheckFields(c, fieldErrs)
}

// Usage returns the one line help of the module.
func Usage(prog string) string {
	return " " + prog + " dmv7008 housecode[000-FFF] channel[1-5] state[0-1]"
}

// ParseHouseCode parses a hexadecimal house code with an optional 0x
// prefix.
func ParseHouseCode(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	code, err := strconv.ParseUint(s, 16, 32)
	if err != nil || code > MaxHouseCode {
		return 0, protocols.ErrInvalidHouseCode
	}
	return uint16(code), nil
}

// ParseArgs converts the module arguments (house code, channel, state)
// into a Command.
func ParseArgs(args []string) (Command, error) {
	if err := protocols.CheckArgCount(args, 3); err != nil {
		return Command{}, protocols.NewArgumentError(protocols.DMV7008, err)
	}

	code, err := ParseHouseCode(args[0])
	if err != nil {
		return Command{}, protocols.NewArgumentError(protocols.DMV7008, err)
	}
	ch, err := protocols.ParseChannel(args[1])
	if err != nil {
		return Command{}, protocols.NewArgumentError(protocols.DMV7008, err)
	}
	state, err := protocols.ParseState(args[2])
	if err != nil {
		return Command{}, protocols.NewArgumentError(protocols.DMV7008, err)
	}

	return Command{HouseCode: code, Channel: ch, State: state}, nil
}

// Encoder builds dmv7008 telegrams.
type Encoder struct {
	debug io.Writer
}

// New returns an encoder. A non-nil debug writer receives a rendering of
// every encoded waveform.
func New(debug io.Writer) *Encoder {
	return &Encoder{debug: debug}
}

func (*Encoder) Protocol() protocols.Protocol {
	return protocols.DMV7008
}

func (*Encoder) Repeats() uint32 {
	return NumRepeats
}

// Encode builds one telegram including the trailing pause.
func (e *Encoder) Encode(c protocols.Command) (wave.Sequence, error) {
	cmd, ok := c.(Command)
	if !ok {
		return wave.Sequence{}, protocols.EncodingError(protocols.DMV7008, protocols.ErrInvalidArguments)
	}
	if err := cmd.Validate(); err != nil {
		return wave.Sequence{}, protocols.EncodingError(protocols.DMV7008, err)
	}

	b := wave.NewBuilder(wave.WithCapacity(FrameLen), wave.WithDebug(e.debug, ShortPulse))

	b.AddPulse(true, ShortPulse)

	Coding.AddBits(b, uint32(cmd.HouseCode), 12)

	ch := PhysicalChannel(cmd.Channel)
	Coding.AddBits(b, uint32(ch), 3)
	Coding.Add(b, cmd.State == protocols.StateOn)

	// dim level is not supported, it does not enter the checksum
	Coding.Add(b, false)
	Coding.Add(b, false)

	csum := Checksum(ch, cmd.State)
	Coding.Add(b, csum[0])
	Coding.Add(b, csum[1])

	b.AddPulse(false, TelegramPause)

	return b.Sequence(), nil
}
