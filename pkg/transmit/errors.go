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

package transmit

import (
	"errors"
	"fmt"
)

// Hardware error kinds. Every hardware error is fatal for the invocation.
//
//	gpioInitialise, gpioSetMode, gpioWaveClear  ErrHardwareInit
//	gpioWaveCreate                              ErrResourceExhausted
//	gpioWaveAddGeneric, gpioWaveChain           ErrTransmit
//	gpioWaveTxBusy                              ErrTransmitState
//	gpioWaveDelete, gpioTerminate               ErrRelease
var (
	ErrHardwareInit = errors.New("hardware initialisation failed")
	ErrHardwareBusy = errors.New("hardware busy")

	// ErrResourceExhausted is a busy engine that has no waveform slot left.
	ErrResourceExhausted = fmt.Errorf("%w: no waveform slot available", ErrHardwareBusy)

	ErrTransmit      = errors.New("transmission failed")
	ErrTransmitState = errors.New("transmitter state unknown")
	ErrRelease       = errors.New("hardware release failed")
)

// HardwareError reports a failed engine call. Op names the primitive in
// the style of the pigpio library so messages read like perror output.
type HardwareError struct {
	Kind error
	Err  error
	Op   string
}

func (e *HardwareError) Error() string {
	cause := e.Err
	if cause == nil {
		cause = e.Kind
	}
	return fmt.Sprintf("%s(): %v", e.Op, cause)
}

func (e *HardwareError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func hwErr(op string, kind, err error) *HardwareError {
	return &HardwareError{Op: op, Kind: kind, Err: err}
}
