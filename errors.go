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
	"errors"
	"fmt"
)

// Reader errors.
var (
	// ErrNoCardDetected indicates no card was present during a poll cycle.
	// This is the normal idle outcome, not a fault.
	ErrNoCardDetected = errors.New("no card detected")
	// ErrPartialRead indicates a card was present but its identifier could
	// not be fully read (collision, card pulled mid-read).
	ErrPartialRead = errors.New("card identifier could not be fully read")
	// ErrInvalidResponse indicates the reader module returned a malformed
	// or unexpected response.
	ErrInvalidResponse = errors.New("invalid reader response")
	// ErrInvalidParameter indicates an invalid argument or configuration value.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Transport errors.
var (
	ErrTransportTimeout  = errors.New("transport timeout")
	ErrTransportRead     = errors.New("transport read failed")
	ErrTransportWrite    = errors.New("transport write failed")
	ErrTransportNotReady = errors.New("transport not ready")
	ErrNoACK             = errors.New("no ACK received")
	ErrFrameCorrupted    = errors.New("frame corrupted")
	ErrDataTooLarge      = errors.New("data too large for frame")
)

// ErrorType classifies errors for callers that need to distinguish
// transient conditions from permanent ones.
type ErrorType int

const (
	// ErrorTypeUnknown is the zero value for unclassified errors.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransient errors may succeed on a later attempt.
	ErrorTypeTransient
	// ErrorTypePermanent errors will not succeed without intervention.
	ErrorTypePermanent
)

// TransportError wraps an error from the reader link with operation context.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError with the given classification.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient,
	}
}

// NewTimeoutError creates a transient TransportError wrapping ErrTransportTimeout.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTransient)
}

// NewTransportNotReadyError creates a transient TransportError wrapping
// ErrTransportNotReady.
func NewTransportNotReadyError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportNotReady, ErrorTypeTransient)
}

// GetErrorType returns the classification of err.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrTransportNotReady),
		errors.Is(err, ErrNoACK),
		errors.Is(err, ErrFrameCorrupted):
		return ErrorTypeTransient
	case errors.Is(err, ErrDataTooLarge),
		errors.Is(err, ErrInvalidParameter):
		return ErrorTypePermanent
	default:
		return ErrorTypeUnknown
	}
}

// IsRetryable reports whether err represents a transient condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	return GetErrorType(err) == ErrorTypeTransient
}
