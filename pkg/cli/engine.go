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

package cli

import (
	"fmt"
	"io"

	"github.com/rftx/rftx/pkg/config"
	"github.com/rftx/rftx/pkg/transmit"
	"github.com/rftx/rftx/pkg/transmit/dryrun"
	"github.com/rftx/rftx/pkg/transmit/periph"
	"github.com/rftx/rftx/pkg/transmit/pigpiod"
)

// EngineFactory builds the transmit engine for the configured driver.
// out receives dry run output.
type EngineFactory func(cfg *config.Instance, out io.Writer) (transmit.Engine, error)

// NewEngine is the default EngineFactory.
func NewEngine(cfg *config.Instance, out io.Writer) (transmit.Engine, error) {
	switch cfg.Driver() {
	case config.DriverPeriph:
		return periph.New(periph.WithSamplePeriod(cfg.SamplePeriod())), nil
	case config.DriverPigpiod:
		return pigpiod.New(cfg.PigpiodAddress()), nil
	case config.DriverDryRun:
		return dryrun.New(out), nil
	default:
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver())
	}
}

func driverOptions(cfg *config.Instance, env *Env, debug io.Writer) transmit.Options {
	return transmit.Options{
		Clock:          env.Clock,
		Debug:          debug,
		Pin:            cfg.Pin(),
		InitTries:      cfg.InitTries(),
		InitRetryDelay: cfg.InitRetryDelay(),
		PollInterval:   cfg.PollInterval(),
	}
}
