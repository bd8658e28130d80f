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

	"github.com/rftx/rftx/internal/telemetry"
	"github.com/rftx/rftx/pkg/config"
	"github.com/rftx/rftx/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes logging and opt-in error reporting from the loaded
// config. It is the Env.Setup of the rftx binary.
func Setup(cfg *config.Instance) error {
	var writers []io.Writer
	if cfg.DebugLogging() {
		writers = append(writers, helpers.ConsoleWriter())
	}

	if err := helpers.InitLogging(helpers.LogDir(), writers); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Debug().
		Str("version", config.AppVersion).
		Str("config", cfg.Path()).
		Bool("config_loaded", cfg.Loaded()).
		Msg("rftx starting")

	if cfg.ErrorReporting() {
		if err := telemetry.Init(cfg.ErrorReportingDSN(), config.AppVersion, cfg.Driver()); err != nil {
			log.Warn().Err(err).Msg("failed to initialize error reporting")
		}
	}
	return nil
}
