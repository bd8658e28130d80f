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

package mocks

import (
	"github.com/rftx/rftx/pkg/transmit"
	"github.com/rftx/rftx/pkg/wave"
	"github.com/stretchr/testify/mock"
)

// MockEngine is a mock implementation of the transmit.Engine interface
// using testify/mock.
type MockEngine struct {
	mock.Mock
}

var _ transmit.Engine = (*MockEngine)(nil)

func (m *MockEngine) Open() error {
	args := m.Called()
	return args.Error(0) //nolint:wrapcheck // mock passes the configured error through
}

func (m *MockEngine) ConfigureOutput(pin int) error {
	args := m.Called(pin)
	return args.Error(0) //nolint:wrapcheck // mock passes the configured error through
}

func (m *MockEngine) ClearWaves() error {
	args := m.Called()
	return args.Error(0) //nolint:wrapcheck // mock passes the configured error through
}

func (m *MockEngine) CreateWave(pin int, pulses []wave.Pulse) (transmit.WaveID, error) {
	args := m.Called(pin, pulses)
	id, _ := args.Get(0).(transmit.WaveID)
	return id, args.Error(1) //nolint:wrapcheck // mock passes the configured error through
}

func (m *MockEngine) SendRepeated(id transmit.WaveID, reps uint32) error {
	args := m.Called(id, reps)
	return args.Error(0) //nolint:wrapcheck // mock passes the configured error through
}

func (m *MockEngine) Busy() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1) //nolint:wrapcheck // mock passes the configured error through
}

func (m *MockEngine) DeleteWave(id transmit.WaveID) error {
	args := m.Called(id)
	return args.Error(0) //nolint:wrapcheck // mock passes the configured error through
}

func (m *MockEngine) Close() error {
	args := m.Called()
	return args.Error(0) //nolint:wrapcheck // mock passes the configured error through
}

// NewMockEngine returns an engine that accepts every call. Busy reports
// idle, CreateWave returns wave 0.
func NewMockEngine() *MockEngine {
	m := &MockEngine{}
	m.On("Open").Return(nil).Maybe()
	m.On("ConfigureOutput", mock.Anything).Return(nil).Maybe()
	m.On("ClearWaves").Return(nil).Maybe()
	m.On("CreateWave", mock.Anything, mock.Anything).Return(transmit.WaveID(0), nil).Maybe()
	m.On("SendRepeated", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("Busy").Return(false, nil).Maybe()
	m.On("DeleteWave", mock.Anything).Return(nil).Maybe()
	m.On("Close").Return(nil).Maybe()
	return m
}
