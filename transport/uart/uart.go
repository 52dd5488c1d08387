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

// Package uart provides the UART/serial transport for the reader module.
package uart

import (
	"errors"
	"fmt"
	"time"

	openlatch "github.com/OpenLatchProject/go-openlatch"
	"github.com/OpenLatchProject/go-openlatch/internal/frame"
	"go.bug.st/serial"
)

const (
	defaultBaudRate = 115200
	defaultTimeout  = 500 * time.Millisecond

	// chunkTimeout bounds a single serial read; the overall response
	// deadline is enforced by the transport timeout.
	chunkTimeout = 50 * time.Millisecond
)

// wakeupSequence rouses the module from low-power mode before the first
// command after opening the port.
var wakeupSequence = []byte{0x55, 0x55, 0x00, 0x00, 0x00}

// Transport implements the openlatch.Transport interface over a serial port.
type Transport struct {
	port     serial.Port
	portName string
	timeout  time.Duration
}

// New opens the serial port and wakes the reader module.
func New(portName string) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: defaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(chunkTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	t := &Transport{
		port:     port,
		portName: portName,
		timeout:  defaultTimeout,
	}

	if _, err := port.Write(wakeupSequence); err != nil {
		_ = port.Close()
		return nil, openlatch.NewTransportError("wakeup", portName, openlatch.ErrTransportWrite, openlatch.ErrorTypeTransient)
	}
	time.Sleep(5 * time.Millisecond)
	_ = port.ResetInputBuffer()

	return t, nil
}

// SendCommand sends a command frame and waits for the ACK and response.
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, openlatch.NewTransportError("SendCommand", t.portName, err, openlatch.ErrorTypePermanent)
	}

	_ = t.port.ResetInputBuffer()
	if _, err := t.port.Write(frm); err != nil {
		return nil, openlatch.NewTransportError("SendCommand", t.portName, openlatch.ErrTransportWrite, openlatch.ErrorTypeTransient)
	}

	if err := t.readACK(); err != nil {
		return nil, err
	}
	return t.readResponse()
}

// readACK reads the 6-byte flow-control frame that precedes every response.
func (t *Transport) readACK() error {
	deadline := time.Now().Add(t.timeout)
	buf := make([]byte, 0, len(frame.ACKFrame))
	chunk := make([]byte, len(frame.ACKFrame))

	for len(buf) < len(frame.ACKFrame) {
		n, err := t.port.Read(chunk)
		if err != nil {
			return openlatch.NewTransportError("readACK", t.portName, openlatch.ErrTransportRead, openlatch.ErrorTypeTransient)
		}
		buf = append(buf, chunk[:n]...)

		if time.Now().After(deadline) {
			return openlatch.NewTimeoutError("readACK", t.portName)
		}
	}

	if !frame.IsACK(buf) {
		return openlatch.NewTransportError("readACK", t.portName, openlatch.ErrNoACK, openlatch.ErrorTypeTransient)
	}
	return nil
}

// readResponse accumulates serial data until a complete response frame
// parses or the transport timeout elapses.
func (t *Transport) readResponse() ([]byte, error) {
	deadline := time.Now().Add(t.timeout)
	buf := make([]byte, 0, 64)
	chunk := make([]byte, 64)

	for {
		n, err := t.port.Read(chunk)
		if err != nil {
			return nil, openlatch.NewTransportError("readResponse", t.portName, openlatch.ErrTransportRead, openlatch.ErrorTypeTransient)
		}
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			payload, perr := frame.Parse(buf)
			switch {
			case perr == nil:
				return payload, nil
			case errors.Is(perr, frame.ErrFrameTooShort),
				errors.Is(perr, frame.ErrTruncatedPayload),
				errors.Is(perr, frame.ErrFrameMarker):
				// incomplete, keep reading
			default:
				return nil, openlatch.NewTransportError("readResponse", t.portName, openlatch.ErrFrameCorrupted, openlatch.ErrorTypeTransient)
			}
		}

		if time.Now().After(deadline) {
			return nil, openlatch.NewTimeoutError("readResponse", t.portName)
		}
	}
}

// SetTimeout sets the response timeout for the transport.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return openlatch.ErrInvalidParameter
	}
	t.timeout = timeout
	return nil
}

// Close closes the serial port.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", t.portName, err)
	}
	t.port = nil
	return nil
}

// IsConnected returns true if the serial port is open.
func (t *Transport) IsConnected() bool {
	return t.port != nil
}

// Type returns the transport type.
func (*Transport) Type() openlatch.TransportType {
	return openlatch.TransportUART
}
