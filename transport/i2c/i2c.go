// go-openlatch
// Copyright (c) 2026 The OpenLatch Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-openlatch.
//
// go-openlatch is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-openlatch is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-openlatch; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package i2c provides the I2C bus transport for the reader module.
package i2c

import (
	"errors"
	"fmt"
	"time"

	openlatch "github.com/OpenLatchProject/go-openlatch"
	"github.com/OpenLatchProject/go-openlatch/internal/frame"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// readerAddr is the module's 7-bit I2C address.
	readerAddr = 0x24

	// readyStatus prefixes every I2C read when the module has data pending.
	readyStatus = 0x01

	// maxClockFreq is the module's maximum I2C clock (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	defaultTimeout = 500 * time.Millisecond
	readyPollDelay = 2 * time.Millisecond
)

// Transport implements the openlatch.Transport interface for I2C communication.
type Transport struct {
	dev     *i2c.Dev
	busName string
	timeout time.Duration
}

// New opens the I2C bus and addresses the reader module on it.
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	// Best effort; fall back to the bus default speed.
	_ = bus.SetSpeed(maxClockFreq)

	return &Transport{
		dev:     &i2c.Dev{Addr: readerAddr, Bus: bus},
		busName: busName,
		timeout: defaultTimeout,
	}, nil
}

// SendCommand sends a command to the reader module and waits for the response.
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, openlatch.NewTransportError("SendCommand", t.busName, err, openlatch.ErrorTypePermanent)
	}

	if err := t.dev.Tx(frm, nil); err != nil {
		return nil, openlatch.NewTransportError("SendCommand", t.busName, openlatch.ErrTransportWrite, openlatch.ErrorTypeTransient)
	}

	if err := t.readACK(); err != nil {
		return nil, err
	}
	return t.readResponse()
}

// waitReady polls the module's ready status until data is pending.
func (t *Transport) waitReady(deadline time.Time) error {
	status := make([]byte, 1)
	for {
		if err := t.dev.Tx(nil, status); err != nil {
			return openlatch.NewTransportError("waitReady", t.busName, openlatch.ErrTransportRead, openlatch.ErrorTypeTransient)
		}
		if status[0] == readyStatus {
			return nil
		}
		if time.Now().After(deadline) {
			return openlatch.NewTimeoutError("waitReady", t.busName)
		}
		time.Sleep(readyPollDelay)
	}
}

// readACK reads the flow-control frame that precedes every response. On I2C
// each read is prefixed with the ready status byte.
func (t *Transport) readACK() error {
	deadline := time.Now().Add(t.timeout)
	if err := t.waitReady(deadline); err != nil {
		return err
	}

	buf := make([]byte, 1+len(frame.ACKFrame))
	if err := t.dev.Tx(nil, buf); err != nil {
		return openlatch.NewTransportError("readACK", t.busName, openlatch.ErrTransportRead, openlatch.ErrorTypeTransient)
	}
	if !frame.IsACK(buf[1:]) {
		return openlatch.NewTransportError("readACK", t.busName, openlatch.ErrNoACK, openlatch.ErrorTypeTransient)
	}
	return nil
}

// readResponse reads a full response frame once the module signals readiness.
func (t *Transport) readResponse() ([]byte, error) {
	deadline := time.Now().Add(t.timeout)
	if err := t.waitReady(deadline); err != nil {
		return nil, err
	}

	// Ready byte plus the largest normal frame.
	buf := make([]byte, 1+5+frame.MaxDataLength+2)
	if err := t.dev.Tx(nil, buf); err != nil {
		return nil, openlatch.NewTransportError("readResponse", t.busName, openlatch.ErrTransportRead, openlatch.ErrorTypeTransient)
	}

	payload, err := frame.Parse(buf[1:])
	if err != nil {
		if errors.Is(err, frame.ErrFrameMarker) || errors.Is(err, frame.ErrFrameTooShort) {
			return nil, openlatch.NewTransportNotReadyError("readResponse", t.busName)
		}
		return nil, openlatch.NewTransportError("readResponse", t.busName, openlatch.ErrFrameCorrupted, openlatch.ErrorTypeTransient)
	}
	return payload, nil
}

// SetTimeout sets the response timeout for the transport.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return openlatch.ErrInvalidParameter
	}
	t.timeout = timeout
	return nil
}

// Close closes the transport connection.
func (t *Transport) Close() error {
	// periph.io handles bus cleanup automatically.
	t.dev = nil
	return nil
}

// IsConnected returns true if the transport is connected.
func (t *Transport) IsConnected() bool {
	return t.dev != nil
}

// Type returns the transport type.
func (*Transport) Type() openlatch.TransportType {
	return openlatch.TransportI2C
}
