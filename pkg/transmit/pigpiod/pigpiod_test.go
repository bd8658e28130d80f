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

package pigpiod

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rftx/rftx/pkg/transmit"
	"github.com/rftx/rftx/pkg/wave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type request struct {
	ext []byte
	cmd uint32
	p1  uint32
	p2  uint32
}

// fakeDaemon answers socket commands on one end of a pipe.
type fakeDaemon struct {
	results  map[uint32]int32
	busy     []int32
	requests []request
	mu       sync.Mutex
	wg       sync.WaitGroup
}

func newFakeDaemon() *fakeDaemon {
	return &fakeDaemon{results: map[uint32]int32{cmdTick: 1234, cmdWVCRE: 7}}
}

func (d *fakeDaemon) serve(conn net.Conn) {
	defer d.wg.Done()
	defer func() { _ = conn.Close() }()

	for {
		var hdr [headerLen]byte
		if _, err := io.ReadFull(conn, hdr[:]); err != nil {
			return
		}
		req := request{
			cmd: binary.LittleEndian.Uint32(hdr[0:]),
			p1:  binary.LittleEndian.Uint32(hdr[4:]),
			p2:  binary.LittleEndian.Uint32(hdr[8:]),
		}
		if n := binary.LittleEndian.Uint32(hdr[12:]); n > 0 {
			req.ext = make([]byte, n)
			if _, err := io.ReadFull(conn, req.ext); err != nil {
				return
			}
		}

		d.mu.Lock()
		d.requests = append(d.requests, req)
		res := d.results[req.cmd]
		if req.cmd == cmdWVBSY && len(d.busy) > 0 {
			res = d.busy[0]
			d.busy = d.busy[1:]
		}
		d.mu.Unlock()

		binary.LittleEndian.PutUint32(hdr[12:], uint32(res))
		if _, err := conn.Write(hdr[:]); err != nil {
			return
		}
	}
}

func (d *fakeDaemon) dial(_ context.Context, _, _ string) (net.Conn, error) {
	client, server := net.Pipe()
	d.wg.Add(1)
	go d.serve(server)
	return client, nil
}

func (d *fakeDaemon) commands() []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]uint32, 0, len(d.requests))
	for _, r := range d.requests {
		out = append(out, r.cmd)
	}
	return out
}

func (d *fakeDaemon) last() request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests[len(d.requests)-1]
}

func openEngine(t *testing.T, d *fakeDaemon) *Engine {
	t.Helper()
	e := New("", WithDialer(d.dial), WithTimeout(time.Second))
	require.NoError(t, e.Open())
	t.Cleanup(func() {
		require.NoError(t, e.Close())
		d.wg.Wait()
	})
	return e
}

func TestOpen(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon()
	e := openEngine(t, d)
	assert.Equal(t, DefaultAddress, e.address)
	assert.Equal(t, []uint32{cmdTick}, d.commands())

	require.NoError(t, e.Open(), "open is idempotent")
	assert.Len(t, d.commands(), 1)
}

func TestOpen_DialError(t *testing.T) {
	t.Parallel()

	errRefused := errors.New("connection refused")
	e := New("pi:8888", WithDialer(func(context.Context, string, string) (net.Conn, error) {
		return nil, errRefused
	}))

	err := e.Open()
	require.ErrorIs(t, err, errRefused)
	assert.Contains(t, err.Error(), "pi:8888")
	require.ErrorIs(t, e.ClearWaves(), ErrNotConnected)
}

func TestConfigureOutput(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon()
	e := openEngine(t, d)

	require.NoError(t, e.ConfigureOutput(24))
	assert.Equal(t, []uint32{cmdTick, cmdPUD, cmdModes, cmdWrite}, d.commands())

	d.mu.Lock()
	pud, modes, write := d.requests[1], d.requests[2], d.requests[3]
	d.mu.Unlock()
	assert.Equal(t, request{cmd: cmdPUD, p1: 24, p2: pudOff}, pud)
	assert.Equal(t, request{cmd: cmdModes, p1: 24, p2: modeOutput}, modes)
	assert.Equal(t, request{cmd: cmdWrite, p1: 24, p2: 0}, write)
}

func TestCreateWave(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon()
	e := openEngine(t, d)

	pulses := []wave.Pulse{
		{Level: true, Duration: 400 * time.Microsecond},
		{Level: false, Duration: 10000 * time.Microsecond},
	}
	id, err := e.CreateWave(24, pulses)
	require.NoError(t, err)
	assert.Equal(t, transmit.WaveID(7), id)
	assert.Equal(t, []uint32{cmdTick, cmdWVNEW, cmdWVAG, cmdWVCRE}, d.commands())

	d.mu.Lock()
	wvag := d.requests[2]
	d.mu.Unlock()
	assert.Equal(t, EncodePulses(24, wave.Sequence{Pulses: pulses}.Micros()), wvag.ext)
}

func TestSendRepeated(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon()
	e := openEngine(t, d)

	require.NoError(t, e.SendRepeated(3, 300))
	last := d.last()
	assert.Equal(t, cmdWVCHA, last.cmd)
	assert.Equal(t, []byte{255, 0, 3, 255, 1, 44, 1}, last.ext)
}

func TestBusy(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon()
	d.busy = []int32{1, 0}
	e := openEngine(t, d)

	busy, err := e.Busy()
	require.NoError(t, err)
	assert.True(t, busy)

	busy, err = e.Busy()
	require.NoError(t, err)
	assert.False(t, busy)
}

func TestDaemonError(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon()
	d.results[cmdWVDEL] = -66
	e := openEngine(t, d)

	err := e.DeleteWave(2)
	require.ErrorIs(t, err, ErrDaemon)
	assert.EqualError(t, err, "WVDEL: pigpiod command failed: error -66")
	assert.Equal(t, uint32(2), d.last().p1)
}

func TestDriverCycle(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon()
	e := New("", WithDialer(d.dial))

	seq := wave.Sequence{Pulses: []wave.Pulse{{Level: true, Duration: time.Millisecond}}, Total: time.Millisecond}
	require.NoError(t, transmit.Send(e, transmit.Options{}, seq, 2))
	d.wg.Wait()

	assert.Equal(t, []uint32{
		cmdTick, cmdPUD, cmdModes, cmdWrite, cmdWVCLR,
		cmdWVNEW, cmdWVAG, cmdWVCRE, cmdWVCHA, cmdWVBSY, cmdWVDEL,
	}, d.commands())
}

func TestEncodePulses(t *testing.T) {
	t.Parallel()

	got := EncodePulses(4, []wave.Micro{
		{Level: true, US: 630},
		{Level: false, US: 1292},
	})
	want := []byte{
		0x10, 0, 0, 0, 0, 0, 0, 0, 0x76, 0x02, 0, 0,
		0, 0, 0, 0, 0x10, 0, 0, 0, 0x0c, 0x05, 0, 0,
	}
	assert.Equal(t, want, got)
}

func TestChain(t *testing.T) {
	t.Parallel()

	chain, err := Chain(5, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 5, 255, 1, 10, 0}, chain)

	_, err = Chain(5, 1<<16)
	require.ErrorIs(t, err, ErrTooManyReps)
}
