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

// Package protocols holds the pieces shared by the RF protocol encoders:
// the closed set of supported protocols, the command and encoder
// interfaces and the argument error taxonomy.
package protocols

import (
	"fmt"

	"github.com/rftx/rftx/pkg/wave"
)

// Protocol identifies one supported device family.
type Protocol int

const (
	// Borga is the 12 bit fan/light remote.
	Borga Protocol = iota
	// DMV7008 is the 12 bit house code dimmer/switch.
	DMV7008
	// GT9000 is the rolling code switch.
	GT9000
)

// All lists every protocol in usage order.
var All = []Protocol{Borga, DMV7008, GT9000}

var names = [...]string{
	Borga:   "borga",
	DMV7008: "dmv7008",
	GT9000:  "gt9000",
}

var byName = map[string]Protocol{
	"borga":   Borga,
	"dmv7008": DMV7008,
	"gt9000":  GT9000,
}

func (p Protocol) String() string {
	if p < 0 || int(p) >= len(names) {
		return fmt.Sprintf("protocol(%d)", int(p))
	}
	return names[p]
}

// Lookup resolves a module name to its protocol.
func Lookup(name string) (Protocol, bool) {
	p, ok := byName[name]
	return p, ok
}

// Command is a validated, immutable request for one protocol.
type Command interface {
	Protocol() Protocol
}

// Encoder turns a command into a waveform. Repeats is the number of
// back-to-back transmissions the receiver expects.
type Encoder interface {
	Protocol() Protocol
	Repeats() uint32
	Encode(cmd Command) (wave.Sequence, error)
}

// State is the switch state shared by the dmv7008 and gt9000 protocols.
type State uint8

const (
	StateOff State = 0
	StateOn  State = 1
)

// Channel is a zero based logical channel of the 5 channel remotes, where
// the fifth channel addresses all receivers.
type Channel uint8

const (
	Ch1 Channel = iota
	Ch2
	Ch3
	Ch4
	ChAll
)

// NumChannels is the channel count of the 5 channel remotes.
const NumChannels = 5
