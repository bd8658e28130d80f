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

package main

import (
	"fmt"
	"os"

	"github.com/rftx/rftx/internal/telemetry"
	"github.com/rftx/rftx/pkg/cli"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(cli.Report(os.Stderr, run()))
}

func run() error {
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	//nolint:wrapcheck // Run errors are printed as they are
	return cli.Run(cli.Env{Setup: cli.Setup}, os.Args[1:])
}
