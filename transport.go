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

package openlatch

import "time"

// Transport defines the interface for communication with the proximity-card
// reader module. Implemented by the UART and I2C backends.
type Transport interface {
	// SendCommand sends a command to the reader module and waits for the
	// response. The returned slice starts with the response command byte.
	SendCommand(cmd byte, args []byte) ([]byte, error)

	// Close closes the transport connection.
	Close() error

	// SetTimeout sets the read timeout for the transport.
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is connected.
	IsConnected() bool

	// Type returns the transport type.
	Type() TransportType
}

// TransportType represents the type of transport.
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportI2C represents I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportMock represents a mock transport for testing.
	TransportMock TransportType = "mock"
)
