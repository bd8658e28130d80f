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

package protocols

import (
	"strconv"
	"strings"
)

// ParseChannel converts a user facing channel number (1-5, where 5 is all
// channels) into a logical Channel.
func ParseChannel(s string) (Channel, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > NumChannels {
		return 0, ErrInvalidChannel
	}
	return Channel(n - 1), nil
}

// ParseState converts "0" or "1" into a State.
func ParseState(s string) (State, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < int(StateOff) || n > int(StateOn) {
		return 0, ErrInvalidState
	}
	return State(n), nil
}

// CheckArgCount returns ErrInvalidArguments unless args has exactly n
// entries.
func CheckArgCount(args []string, n int) error {
	if len(args) != n {
		return ErrInvalidArguments
	}
	return nil
}
