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

// Package borga encodes commands for Borga ceiling fan remotes.
//
// A frame is a short high start pulse followed by 12 bits and a long low
// pause. Each bit is a low pulse followed by a high pulse:
//
//	0 -> ____/‾‾
//	1 -> __/‾‾‾‾
//
// Bit layout, first transmitted first:
//
//	| Bit  | Meaning          |
//	|------|------------------|
//	| 0-1  | unknown, 0       |
//	| 2    | fan toggle       |
//	| 3-4  | unknown, 0       |
//	| 5    | timer            |
//	| 6    | speed            |
//	| 7    | light toggle     |
//	| 8-11 | channel, MSB     |
package borga

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rftx/rftx/pkg/protocols"
	"github.com/rftx/rftx/pkg/wave"
)

const (
	ShortPulse  = 400 * time.Microsecond
	LongPulse   = 800 * time.Microsecond
	PauseLength = 10000 * time.Microsecond
	NumRepeats  = 10

	MaxChannel = 15
	// FrameLen is the pulse count of one frame.
	FrameLen = 1 + 12*2 + 1
)

// Coding is the borga bit-pair encoding.
var Coding = wave.BitCoding{
	FirstLevel: false,
	Zero:       wave.TimePair{LongPulse, ShortPulse},
	One:        wave.TimePair{ShortPulse, LongPulse},
	Tolerance:  100 * time.Microsecond,
}

// Action is the button pressed on the remote.
type Action string

const (
	ActionFan   Action = "F"
	ActionLight Action = "L"
	ActionSpeed Action = "S"
	ActionTimer Action = "T"
)

// Command is one button press addressed to a channel.
type Command struct {
	Action  Action `validate:"oneof=F L S T"`
	Channel uint8  `validate:"lte=15"`
}

func (Command) Protocol() protocols.Protocol {
	return protocols.Borga
}

var fieldErrs = map[string]error{
	"Channel": protocols.ErrInvalidChannel,
	"Action":  protocols.ErrInvalidArguments,
}

// Validate checks the command fields.
func (c Command) Validate() error {
	return protocols.CheckFields(c, fieldErrs)
}

// Usage returns the one line help of the module.
func Usage(prog string) string {
	return " " + prog + " borga channel[0-15] [F]an/[L]ight/[S]peed/[T]imer"
}

// ParseArgs converts the module arguments (channel, action) into a
// Command. Only the first character of the action is significant.
func ParseArgs(args []string) (Command, error) {
	if err := protocols.CheckArgCount(args, 2); err != nil {
		return Command{}, protocols.NewArgumentError(protocols.Borga, err)
	}

	ch, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 8)
	if err != nil || ch > MaxChannel {
		return Command{}, protocols.NewArgumentError(protocols.Borga, protocols.ErrInvalidChannel)
	}

	if args[1] == "" {
		return Command{}, protocols.NewArgumentError(protocols.Borga, protocols.ErrInvalidArguments)
	}

	cmd := Command{
		Channel: uint8(ch),
		Action:  Action(strings.ToUpper(args[1][:1])),
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, protocols.NewArgumentError(protocols.Borga, err)
	}
	return cmd, nil
}

// Encoder builds borga frames.
type Encoder struct {
	debug io.Writer
}

// New returns an encoder. A non-nil debug writer receives a rendering of
// every encoded waveform.
func New(debug io.Writer) *Encoder {
	return &Encoder{debug: debug}
}

func (*Encoder) Protocol() protocols.Protocol {
	return protocols.Borga
}

func (*Encoder) Repeats() uint32 {
	return NumRepeats
}

// Encode builds the waveform of one frame including the trailing pause.
func (e *Encoder) Encode(c protocols.Command) (wave.Sequence, error) {
	cmd, ok := c.(Command)
	if !ok {
		return wave.Sequence{}, protocols.EncodingError(protocols.Borga, protocols.ErrInvalidArguments)
	}
	if err := cmd.Validate(); err != nil {
		return wave.Sequence{}, protocols.EncodingError(protocols.Borga, err)
	}

	b := wave.NewBuilder(wave.WithCapacity(FrameLen), wave.WithDebug(e.debug, ShortPulse))

	b.AddPulse(true, ShortPulse)

	Coding.Add(b, false)
	Coding.Add(b, false)
	Coding.Add(b, cmd.Action == ActionFan)
	Coding.Add(b, false)
	// possibly reverse toggle
	Coding.Add(b, false)
	Coding.Add(b, cmd.Action == ActionTimer)
	Coding.Add(b, cmd.Action == ActionSpeed)
	Coding.Add(b, cmd.Action == ActionLight)
	Coding.AddBits(b, uint32(cmd.Channel), 4)

	b.AddPulse(false, PauseLength)

	return b.Sequence(), nil
}
