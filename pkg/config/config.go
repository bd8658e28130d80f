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

// Package config loads the optional rftx TOML configuration. The file is
// only read, a missing file means defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rftx/rftx/pkg/helpers/syncutil"
	"github.com/rftx/rftx/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	CfgEnv        = "RFTX_CFG"
)

const (
	DriverPeriph  = "periph"
	DriverPigpiod = "pigpiod"
	DriverDryRun  = "dryrun"
)

var ErrSchemaMismatch = errors.New("schema version mismatch")

type Values struct {
	DefaultModule  string         `toml:"default_module" validate:"omitempty,oneof=borga dmv7008 gt9000"`
	ErrorReporting ErrorReporting `toml:"error_reporting"`
	GT9000         GT9000         `toml:"gt9000"`
	Transmitter    Transmitter    `toml:"transmitter"`
	ConfigSchema   int            `toml:"config_schema"`
	DebugLogging   bool           `toml:"debug_logging"`
}

type Transmitter struct {
	Driver         string `toml:"driver" validate:"oneof=periph pigpiod dryrun"`
	PigpiodAddress string `toml:"pigpiod_address" validate:"hostname_port"`
	InitRetryDelay string `toml:"init_retry_delay" validate:"positiveduration"`
	PollInterval   string `toml:"poll_interval" validate:"positiveduration"`
	Pin            int    `toml:"pin" validate:"gte=0,lte=53"`
	SamplePeriodUS int    `toml:"sample_period_us" validate:"oneof=1 2 4 5 8 10"`
	InitTries      int    `toml:"init_tries" validate:"gte=1,lte=1000"`
}

type GT9000 struct {
	Variant string `toml:"variant" validate:"oneof=standard legacy altstart"`
}

type ErrorReporting struct {
	DSN     string `toml:"dsn" validate:"omitempty,url"`
	Enabled bool   `toml:"enabled"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Transmitter: Transmitter{
		Driver:         DriverPeriph,
		Pin:            24,
		SamplePeriodUS: 10,
		InitTries:      100,
		InitRetryDelay: "100ms",
		PollInterval:   "100ms",
		PigpiodAddress: "localhost:8888",
	},
	GT9000: GT9000{
		Variant: "standard",
	},
}

type Instance struct {
	fs       afero.Fs
	cfgPath  string
	vals     Values
	defaults Values
	loaded   bool
	mu       syncutil.RWMutex
}

// DefaultPath returns the config file location when neither a flag nor
// the environment names one.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, CfgFile)
}

// ResolvePath picks the config file: an explicit path, then the CfgEnv
// environment variable, then DefaultPath.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(CfgEnv); env != "" {
		log.Debug().Msgf("env config path: %s", env)
		return env
	}
	return DefaultPath()
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(fs afero.Fs, cfgPath string, defaults Values) (*Instance, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	cfg := &Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the config file on top of the defaults and validates the
// result. A missing file leaves the defaults in place.
func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", c.cfgPath).Msg("no config file, using defaults")
		c.vals = c.defaults
		c.loaded = false
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	newVals := c.defaults
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return ErrSchemaMismatch
	}

	if err := validation.DefaultValidator.Validate(newVals); err != nil {
		return fmt.Errorf("invalid config %s: %w", c.cfgPath, err)
	}

	c.vals = newVals
	c.loaded = true
	return nil
}

// Path returns the config file location.
func (c *Instance) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfgPath
}

// Loaded reports whether a config file was found.
func (c *Instance) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

// SetDebugLogging overrides the file setting for this run. The file is
// not rewritten.
func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) DefaultModule() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DefaultModule
}

func (c *Instance) ErrorReporting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.ErrorReporting.Enabled && c.vals.ErrorReporting.DSN != ""
}

func (c *Instance) ErrorReportingDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.ErrorReporting.DSN
}
