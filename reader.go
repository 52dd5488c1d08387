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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ReaderConfig contains configuration options for the Reader.
type ReaderConfig struct {
	// Timeout is the default timeout for reader operations.
	Timeout time.Duration
}

// DefaultReaderConfig returns the default reader configuration.
func DefaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		Timeout: 1 * time.Second,
	}
}

// Reader represents the proximity-card reader module.
//
// Thread safety: Reader is NOT thread-safe. The access endpoint runs a single
// control flow, so all methods are called from one goroutine.
type Reader struct {
	transport Transport
	config    *ReaderConfig
	log       zerolog.Logger
}

// NewReader creates a new reader with the given transport.
func NewReader(transport Transport, opts ...Option) (*Reader, error) {
	reader := &Reader{
		transport: transport,
		config:    DefaultReaderConfig(),
		log:       zerolog.Nop(),
	}

	for _, opt := range opts {
		if err := opt(reader); err != nil {
			return nil, err
		}
	}

	return reader, nil
}

// Transport returns the underlying transport.
func (r *Reader) Transport() Transport {
	return r.transport
}

// SetTimeout sets the default timeout for reader operations.
func (r *Reader) SetTimeout(timeout time.Duration) error {
	r.config.Timeout = timeout
	if err := r.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// Init initializes the reader module.
func (r *Reader) Init() error {
	return r.InitContext(context.Background())
}

// InitContext initializes the reader module with context support. It
// configures the SAM for normal operation so the module behaves as a plain
// initiator.
func (r *Reader) InitContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("init cancelled: %w", err)
	}

	if version, err := r.firmwareVersion(); err == nil {
		r.log.Debug().Str("firmware", version).Msg("reader firmware")
	}

	// Mode, timeout (x 50ms), use IRQ.
	resp, err := r.transport.SendCommand(cmdSAMConfiguration, []byte{samModeNormal, 0x14, 0x01})
	if err != nil {
		return fmt.Errorf("SAM configuration failed: %w", err)
	}
	if len(resp) < 1 || resp[0] != responseFor(cmdSAMConfiguration) {
		return fmt.Errorf("unexpected SAM configuration response: %w", ErrInvalidResponse)
	}
	return nil
}

// firmwareVersion queries the module's firmware revision, for diagnostics only.
func (r *Reader) firmwareVersion() (string, error) {
	resp, err := r.transport.SendCommand(cmdGetFirmwareVersion, nil)
	if err != nil {
		return "", fmt.Errorf("firmware version query failed: %w", err)
	}
	if len(resp) < 5 || resp[0] != responseFor(cmdGetFirmwareVersion) {
		return "", fmt.Errorf("unexpected firmware version response: %w", ErrInvalidResponse)
	}
	return fmt.Sprintf("%d.%d", resp[2], resp[3]), nil
}

// Poll performs a single passive-target poll cycle.
func (r *Reader) Poll() (*DetectedCard, error) {
	return r.PollContext(context.Background())
}

// PollContext performs a single passive-target poll cycle with context
// support. It returns ErrNoCardDetected when no card is newly present, and a
// wrapped ErrPartialRead when a card was present but its identifier could not
// be fully read. Either way the caller is expected to simply poll again on
// its next iteration.
func (r *Reader) PollContext(ctx context.Context) (*DetectedCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("poll cancelled: %w", err)
	}

	resp, err := r.transport.SendCommand(cmdInListPassiveTarget, []byte{0x01, baudTypeA})
	if err != nil {
		// An absent card commonly surfaces as a read timeout on the
		// link rather than an explicit zero-target response.
		if errors.Is(err, ErrTransportTimeout) {
			return nil, ErrNoCardDetected
		}
		return nil, fmt.Errorf("passive target poll failed: %w", err)
	}

	if len(resp) < 2 || resp[0] != responseFor(cmdInListPassiveTarget) {
		return nil, fmt.Errorf("unexpected poll response: %w", ErrInvalidResponse)
	}
	if resp[1] == 0 {
		return nil, ErrNoCardDetected
	}

	card, err := parseTargetData(resp[2:])
	if err != nil {
		return nil, err
	}

	r.log.Debug().
		Str("uid", card.UID).
		Str("technology", string(card.Technology)).
		Hex("sak", []byte{card.SAK}).
		Msg("card detected")
	return card, nil
}

// Rearm halts the currently selected card and drops its authentication
// session, so a card lingering on the reader is not re-processed as the same
// authenticated presentation. It is called unconditionally after every fully
// read scan; both steps are best effort.
func (r *Reader) Rearm() error {
	var errs []error

	// Deselect ends the crypto session while keeping the card in the field.
	if _, err := r.transport.SendCommand(cmdInDeselect, []byte{0x00}); err != nil {
		errs = append(errs, fmt.Errorf("deselect failed: %w", err))
	}

	// Release halts the card entirely; it may be re-detected as a new
	// presentation on a later poll, which is accepted behavior.
	if _, err := r.transport.SendCommand(cmdInRelease, []byte{0x00}); err != nil {
		errs = append(errs, fmt.Errorf("release failed: %w", err))
	}

	return errors.Join(errs...)
}

// Close closes the reader's transport.
func (r *Reader) Close() error {
	if r.transport != nil {
		if err := r.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}
