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

package config

import (
	"fmt"
	"time"
)

func (c *Instance) Driver() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Transmitter.Driver
}

// SetDriver overrides the configured driver for this run.
func (c *Instance) SetDriver(driver string) error {
	switch driver {
	case DriverPeriph, DriverPigpiod, DriverDryRun:
	default:
		return fmt.Errorf("unknown driver: %s", driver)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Transmitter.Driver = driver
	return nil
}

func (c *Instance) Pin() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Transmitter.Pin
}

func (c *Instance) SamplePeriod() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Transmitter.SamplePeriodUS) * time.Microsecond
}

func (c *Instance) InitTries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Transmitter.InitTries
}

func (c *Instance) InitRetryDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Transmitter.InitRetryDelay, c.defaults.Transmitter.InitRetryDelay)
}

func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Transmitter.PollInterval, c.defaults.Transmitter.PollInterval)
}

func (c *Instance) PigpiodAddress() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Transmitter.PigpiodAddress
}

func (c *Instance) GT9000Variant() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.GT9000.Variant
}

// parseDuration returns val, or fallback when val is empty or invalid.
// Load has validated val already.
func parseDuration(val, fallback string) time.Duration {
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}
