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

// Package pigpiod is a transmit engine backed by a running pigpio daemon,
// reached over its socket interface.
package pigpiod

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"time"

	"github.com/rftx/rftx/pkg/helpers/syncutil"
	"github.com/rftx/rftx/pkg/transmit"
	"github.com/rftx/rftx/pkg/wave"
	"github.com/rs/zerolog/log"
)

const DefaultAddress = "localhost:8888"

// Socket command numbers.
const (
	cmdModes uint32 = 0
	cmdPUD   uint32 = 2
	cmdWrite uint32 = 4
	cmdTick  uint32 = 16
	cmdWVCLR uint32 = 27
	cmdWVAG  uint32 = 28
	cmdWVBSY uint32 = 32
	cmdWVCRE uint32 = 49
	cmdWVDEL uint32 = 50
	cmdWVNEW uint32 = 53
	cmdWVCHA uint32 = 93
)

const (
	modeOutput = 1
	pudOff     = 0
	headerLen  = 16
	pulseLen   = 12
)

var (
	ErrNotConnected = errors.New("not connected to pigpiod")
	ErrDaemon       = errors.New("pigpiod command failed")
	ErrTooManyReps  = errors.New("repetitions exceed chain loop limit")
)

var cmdNames = map[uint32]string{
	cmdModes: "MODES",
	cmdPUD:   "PUD",
	cmdWrite: "WRITE",
	cmdTick:  "TICK",
	cmdWVCLR: "WVCLR",
	cmdWVAG:  "WVAG",
	cmdWVBSY: "WVBSY",
	cmdWVCRE: "WVCRE",
	cmdWVDEL: "WVDEL",
	cmdWVNEW: "WVNEW",
	cmdWVCHA: "WVCHA",
}

// DialFunc opens the daemon connection.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Option configures an Engine.
type Option func(*Engine)

// WithDialer replaces the network dialer.
func WithDialer(dial DialFunc) Option {
	return func(e *Engine) {
		e.dial = dial
	}
}

// WithTimeout bounds connecting and every command round trip.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// Engine implements transmit.Engine against pigpiod.
type Engine struct {
	conn    net.Conn
	dial    DialFunc
	address string
	timeout time.Duration
	mu      syncutil.Mutex
}

var _ transmit.Engine = (*Engine)(nil)

func New(address string, opts ...Option) *Engine {
	if address == "" {
		address = DefaultAddress
	}
	d := &net.Dialer{}
	e := &Engine{
		address: address,
		dial:    d.DialContext,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open connects and checks the daemon answers.
func (e *Engine) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	conn, err := e.dial(ctx, "tcp", e.address)
	if err != nil {
		return fmt.Errorf("connect to pigpiod at %s: %w", e.address, err)
	}
	e.conn = conn

	tick, err := e.command(cmdTick, 0, 0, nil)
	if err != nil {
		_ = conn.Close()
		e.conn = nil
		return err
	}
	log.Debug().Str("address", e.address).Uint32("tick", uint32(tick)).Msg("connected to pigpiod")
	return nil
}

func (e *Engine) ConfigureOutput(pin int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.command(cmdPUD, uint32(pin), pudOff, nil); err != nil {
		return err
	}
	if _, err := e.command(cmdModes, uint32(pin), modeOutput, nil); err != nil {
		return err
	}
	_, err := e.command(cmdWrite, uint32(pin), 0, nil)
	return err
}

func (e *Engine) ClearWaves() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.command(cmdWVCLR, 0, 0, nil)
	return err
}

func (e *Engine) CreateWave(pin int, pulses []wave.Pulse) (transmit.WaveID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.command(cmdWVNEW, 0, 0, nil); err != nil {
		return 0, err
	}
	if _, err := e.command(cmdWVAG, 0, 0, EncodePulses(pin, wave.Sequence{Pulses: pulses}.Micros())); err != nil {
		return 0, err
	}
	id, err := e.command(cmdWVCRE, 0, 0, nil)
	if err != nil {
		return 0, err
	}
	return transmit.WaveID(id), nil
}

func (e *Engine) SendRepeated(id transmit.WaveID, reps uint32) error {
	chain, err := Chain(id, reps)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	_, err = e.command(cmdWVCHA, 0, 0, chain)
	return err
}

func (e *Engine) Busy() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.command(cmdWVBSY, 0, 0, nil)
	return res == 1, err
}

func (e *Engine) DeleteWave(id transmit.WaveID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.command(cmdWVDEL, uint32(id), 0, nil) //nolint:gosec // wave ids are small and non-negative
	return err
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	if err != nil {
		return fmt.Errorf("close pigpiod connection: %w", err)
	}
	return nil
}

// command sends one request and returns the daemon result. The caller
// holds e.mu.
func (e *Engine) command(cmd, p1, p2 uint32, ext []byte) (int32, error) {
	if e.conn == nil {
		return 0, ErrNotConnected
	}
	name := cmdNames[cmd]

	if err := e.conn.SetDeadline(time.Now().Add(e.timeout)); err != nil {
		return 0, fmt.Errorf("%s: set deadline: %w", name, err)
	}

	req := make([]byte, headerLen+len(ext))
	binary.LittleEndian.PutUint32(req[0:], cmd)
	binary.LittleEndian.PutUint32(req[4:], p1)
	binary.LittleEndian.PutUint32(req[8:], p2)
	binary.LittleEndian.PutUint32(req[12:], uint32(len(ext))) //nolint:gosec // bounded by wave size
	copy(req[headerLen:], ext)

	if _, err := e.conn.Write(req); err != nil {
		return 0, fmt.Errorf("%s: write: %w", name, err)
	}

	var resp [headerLen]byte
	if _, err := io.ReadFull(e.conn, resp[:]); err != nil {
		return 0, fmt.Errorf("%s: read: %w", name, err)
	}
	res := int32(binary.LittleEndian.Uint32(resp[12:])) //nolint:gosec // result is a signed status
	if res < 0 {
		return res, fmt.Errorf("%s: %w: error %d", name, ErrDaemon, res)
	}
	return res, nil
}

// EncodePulses converts pulses to the daemon's generic pulse records:
// gpioOn and gpioOff bit masks and a microsecond delay.
func EncodePulses(pin int, pulses []wave.Micro) []byte {
	mask := uint32(1) << uint(pin) //nolint:gosec // pins are validated by config
	out := make([]byte, len(pulses)*pulseLen)
	for i, p := range pulses {
		rec := out[i*pulseLen:]
		if p.Level {
			binary.LittleEndian.PutUint32(rec[0:], mask)
		} else {
			binary.LittleEndian.PutUint32(rec[4:], mask)
		}
		binary.LittleEndian.PutUint32(rec[8:], p.US)
	}
	return out
}

// Chain builds the wave chain that loops id reps times.
func Chain(id transmit.WaveID, reps uint32) ([]byte, error) {
	if reps > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d", ErrTooManyReps, reps)
	}
	return []byte{
		255, 0, // loop start
		byte(id),
		255, 1, // loop end, count follows
		byte(reps), byte(reps >> 8),
	}, nil
}
