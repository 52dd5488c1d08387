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

import (
	"sync"
	"time"
)

// MockTransport is an in-memory Transport implementation for tests. Responses
// and errors are registered per command byte; unregistered commands return
// ErrInvalidResponse.
type MockTransport struct {
	responses map[byte][]byte
	errors    map[byte]error
	calls     map[byte]int
	timeout   time.Duration
	mu        sync.Mutex
	closed    bool
}

// NewMockTransport creates an empty mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][]byte),
		errors:    make(map[byte]error),
		calls:     make(map[byte]int),
		timeout:   time.Second,
	}
}

// SetResponse registers the response returned for cmd.
func (m *MockTransport) SetResponse(cmd byte, resp []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = resp
	delete(m.errors, cmd)
}

// SetError registers an error returned for cmd.
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[cmd] = err
	delete(m.responses, cmd)
}

// GetCallCount returns how many times cmd was sent.
func (m *MockTransport) GetCallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[cmd]
}

// SendCommand implements Transport.
func (m *MockTransport) SendCommand(cmd byte, _ []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrTransportRead
	}
	m.calls[cmd]++

	if err, ok := m.errors[cmd]; ok {
		return nil, err
	}
	if resp, ok := m.responses[cmd]; ok {
		return append([]byte(nil), resp...), nil
	}
	return nil, ErrInvalidResponse
}

// Close implements Transport.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout implements Transport.
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected implements Transport.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type implements Transport.
func (*MockTransport) Type() TransportType {
	return TransportMock
}
