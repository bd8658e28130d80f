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

// Package cli is the rftx command line: flag handling, module dispatch,
// encoding and transmission.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/rftx/rftx/pkg/config"
	"github.com/rftx/rftx/pkg/protocols"
	"github.com/rftx/rftx/pkg/transmit"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ErrUsage is returned after the usage text was printed.
var ErrUsage = errors.New("usage")

type Flags struct {
	Version *bool
	Config  *string
	Driver  *string
	Debug   *bool
	set     *flag.FlagSet
}

// SetupFlags defines the rftx flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		set: fs,
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Config: fs.String(
			"config",
			"",
			"path to config file (default $"+config.CfgEnv+" or the user config dir)",
		),
		Driver: fs.String(
			"driver",
			"",
			"transmit driver: periph, pigpiod or dryrun",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"render the waveform to stdout and enable debug logging",
		),
	}
}

func (f *Flags) isPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Env is everything Run touches outside its arguments. Zero fields are
// filled with the real implementations.
type Env struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Fs      afero.Fs
	Clock   clockwork.Clock
	Engines EngineFactory
	// Setup runs once the config is loaded, before any module work.
	Setup func(cfg *config.Instance) error
	Prog  string
}

func (e *Env) fill() {
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
	if e.Fs == nil {
		e.Fs = afero.NewOsFs()
	}
	if e.Clock == nil {
		e.Clock = clockwork.NewRealClock()
	}
	if e.Engines == nil {
		e.Engines = NewEngine
	}
	if e.Prog == "" {
		e.Prog = config.AppName
	}
}

// Run executes one rftx invocation. args excludes the program name.
func Run(env Env, args []string) error {
	env.fill()

	fs := flag.NewFlagSet(env.Prog, flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	flags := SetupFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			writeUsage(env.Stdout, env.Prog)
			return ErrUsage
		}
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if *flags.Version {
		_, _ = fmt.Fprintf(env.Stdout, "rftx v%s\n", config.AppVersion)
		return nil
	}

	cfg, err := config.NewConfig(env.Fs, config.ResolvePath(*flags.Config), config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flags.isPassed("driver") {
		if err := cfg.SetDriver(*flags.Driver); err != nil {
			return err
		}
	}

	if *flags.Debug {
		cfg.SetDebugLogging(true)
	}

	if env.Setup != nil {
		if err := env.Setup(cfg); err != nil {
			return err
		}
	}

	var debug io.Writer
	if *flags.Debug {
		line := &debugLine{w: env.Stdout}
		defer line.close()
		debug = line
	}

	rest := fs.Args()
	if len(rest) == 0 {
		writeUsage(env.Stdout, env.Prog)
		return ErrUsage
	}

	p, modArgs, err := selectModule(cfg, rest)
	if err != nil {
		writeUsage(env.Stderr, env.Prog)
		return err
	}
	mod := modules[p]

	cmd, err := mod.parse(modArgs)
	if err != nil {
		return err
	}

	enc, err := mod.encoder(cfg, env.Clock, debug)
	if err != nil {
		return err
	}
	seq, err := enc.Encode(cmd)
	if err != nil {
		return err
	}

	log.Info().
		Str("module", p.String()).
		Str("driver", cfg.Driver()).
		Int("pulses", seq.Len()).
		Uint32("repetitions", enc.Repeats()).
		Msg("transmitting")

	engine, err := env.Engines(cfg, env.Stdout)
	if err != nil {
		return err
	}
	if err := transmit.Send(engine, driverOptions(cfg, &env, debug), seq, enc.Repeats()); err != nil {
		log.Error().Err(err).Str("module", p.String()).Msg("transmission failed")
		return err
	}
	return nil
}

// debugLine is the waveform rendering output. The transmit summary
// normally ends the rendered line, close ends it when no summary was
// written.
type debugLine struct {
	w    io.Writer
	open bool
}

func (l *debugLine) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if n > 0 {
		l.open = p[n-1] != '\n'
	}
	return n, err
}

func (l *debugLine) close() {
	if l.open {
		_, _ = fmt.Fprintln(l.w)
		l.open = false
	}
}

// selectModule resolves the module name. Without a known module name the
// configured default module takes all arguments.
func selectModule(cfg *config.Instance, args []string) (protocols.Protocol, []string, error) {
	if p, ok := protocols.Lookup(args[0]); ok {
		return p, args[1:], nil
	}
	if name := cfg.DefaultModule(); name != "" {
		if p, ok := protocols.Lookup(name); ok {
			return p, args, nil
		}
	}
	return 0, nil, fmt.Errorf("unknown module: %s", args[0])
}

// Report prints err the way the user expects it and returns the process
// exit code. Argument and hardware errors are printed unadorned.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrUsage) {
		return 1
	}

	var argErr *protocols.ArgumentError
	var hwErr *transmit.HardwareError
	if errors.As(err, &argErr) || errors.As(err, &hwErr) {
		_, _ = fmt.Fprintln(w, err)
	} else {
		_, _ = fmt.Fprintf(w, "Error: %s\n", err)
	}
	return 1
}
