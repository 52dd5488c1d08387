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

// Package gate runs the endpoint's control loop: poll the reader, gate on
// the card's technology class, ask the authority, and dispatch the outcome
// to the feedback controller. The loop is single-threaded and every step
// blocks; a scan is processed to completion before the next poll.
package gate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	openlatch "github.com/OpenLatchProject/go-openlatch"
	"github.com/OpenLatchProject/go-openlatch/authority"
)

// CardSource yields card presentations and re-arms the reader between scans.
type CardSource interface {
	PollContext(ctx context.Context) (*openlatch.DetectedCard, error)
	Rearm() error
}

// Authority issues the session token and per-scan decisions.
type Authority interface {
	AcquireToken(ctx context.Context, assetID string) (string, error)
	Authorize(ctx context.Context, assetID, token, uid string) (authority.Decision, error)
}

// Signaler runs the blocking feedback sequences.
type Signaler interface {
	SignalGranted()
	SignalDeclined()
	SignalReaderFault()
	SignalNetworkFault()
	SignalBootstrapOK()
	SignalBootstrapFailed()
}

// Config holds the loop's fixed parameters. It is constructed once at
// startup and never mutated.
type Config struct {
	// AssetID is the device identity sent with every authority request.
	AssetID string
	// AcceptedTechnologies is the card class allowlist. Scans outside it
	// are signaled as reader faults without contacting the network.
	AcceptedTechnologies []openlatch.Technology
	// PollInterval is the pause between idle poll cycles.
	PollInterval time.Duration
}

// DefaultAcceptedTechnologies returns the stock allowlist: the MIFARE
// Classic family.
func DefaultAcceptedTechnologies() []openlatch.Technology {
	return []openlatch.Technology{
		openlatch.TechnologyMifareMini,
		openlatch.TechnologyMifare1K,
		openlatch.TechnologyMifare4K,
	}
}

const defaultPollInterval = 250 * time.Millisecond

// Loop is the control loop. It is the sole owner of the session token: the
// token is written once during Bootstrap and only read afterwards.
type Loop struct {
	reader       CardSource
	authority    Authority
	signals      Signaler
	accepted     map[openlatch.Technology]struct{}
	log          zerolog.Logger
	cfg          Config
	token        string
	state        State
	bootstrapped bool
}

// Option is a functional option for configuring a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for loop events.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Loop) {
		l.log = log
	}
}

// New creates a control loop over the given collaborators.
func New(cfg Config, reader CardSource, auth Authority, signals Signaler, opts ...Option) (*Loop, error) {
	if cfg.AssetID == "" {
		return nil, errors.New("asset ID must not be empty")
	}
	if reader == nil || auth == nil || signals == nil {
		return nil, errors.New("reader, authority, and signaler are required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if len(cfg.AcceptedTechnologies) == 0 {
		cfg.AcceptedTechnologies = DefaultAcceptedTechnologies()
	}

	accepted := make(map[openlatch.Technology]struct{}, len(cfg.AcceptedTechnologies))
	for _, tech := range cfg.AcceptedTechnologies {
		accepted[tech] = struct{}{}
	}

	return &Loop{
		cfg:       cfg,
		reader:    reader,
		authority: auth,
		signals:   signals,
		accepted:  accepted,
		state:     StateIdle,
		log:       zerolog.Nop(),
	}, nil
}

// State returns the loop's current state.
func (l *Loop) State() State {
	return l.state
}

// Bootstrap performs the one-time session credential exchange. On failure
// the token stays empty and the device runs unauthenticated until reboot;
// there is no retry and no periodic re-bootstrap. Safe to call before Run;
// Run performs it if the caller has not.
func (l *Loop) Bootstrap(ctx context.Context) {
	if l.bootstrapped {
		return
	}
	l.bootstrapped = true

	token, err := l.authority.AcquireToken(ctx, l.cfg.AssetID)
	if err != nil {
		l.log.Warn().Err(err).Msg("session bootstrap failed, continuing unauthenticated")
		l.signals.SignalBootstrapFailed()
		return
	}

	l.token = token
	l.log.Info().Msg("session token adopted")
	l.signals.SignalBootstrapOK()
}

// Run iterates the control loop until ctx is cancelled. There is no other
// exit: every per-scan fault is absorbed at the iteration boundary.
func (l *Loop) Run(ctx context.Context) error {
	l.Bootstrap(ctx)
	l.log.Info().Str("asset_id", l.cfg.AssetID).Msg("control loop started")

	for {
		l.iterate(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.PollInterval):
		}
	}
}

// iterate runs one full scan cycle: Idle -> Reading -> Authorizing ->
// Actuating -> Idle, with the fault exits described in the state docs.
func (l *Loop) iterate(ctx context.Context) {
	l.transition(StateReading)
	card, err := l.reader.PollContext(ctx)
	if err != nil {
		// No new card, or the identifier could not be fully read.
		// Either way: no signal, no actuation, poll again next cycle.
		if !errors.Is(err, openlatch.ErrNoCardDetected) {
			l.log.Debug().Err(err).Msg("scan aborted")
		}
		l.transition(StateIdle)
		return
	}

	scanLog := l.log.With().
		Str("scan_id", uuid.NewString()).
		Str("uid", card.UID).
		Str("technology", string(card.Technology)).
		Logger()
	scanLog.Info().Msg("card presented")

	if _, ok := l.accepted[card.Technology]; !ok {
		// Fault exit: wrong card class never reaches the network.
		scanLog.Warn().Msg("card technology not accepted")
		l.signals.SignalReaderFault()
		l.rearm(scanLog)
		l.transition(StateIdle)
		return
	}

	l.transition(StateAuthorizing)
	decision, err := l.authority.Authorize(ctx, l.cfg.AssetID, l.token, card.UID)

	l.transition(StateActuating)
	switch {
	case err != nil:
		// No determination was made; this is signaled distinctly from an
		// authority-issued decline.
		scanLog.Warn().Err(err).Msg("authorization round-trip failed")
		l.signals.SignalNetworkFault()
	case decision == authority.DecisionGranted:
		scanLog.Info().Msg("access granted")
		l.signals.SignalGranted()
	default:
		scanLog.Info().Msg("access declined")
		l.signals.SignalDeclined()
	}

	l.rearm(scanLog)
	l.transition(StateIdle)
}

// rearm halts the card and clears its crypto session after a processed
// scan, regardless of outcome. A lingering card may be re-detected as a new
// presentation on a later poll; that is accepted behavior.
func (l *Loop) rearm(log zerolog.Logger) {
	if err := l.reader.Rearm(); err != nil {
		log.Debug().Err(err).Msg("reader re-arm failed")
	}
}

func (l *Loop) transition(next State) {
	if l.state == next {
		return
	}
	l.log.Trace().Stringer("from", l.state).Stringer("to", next).Msg("state transition")
	l.state = next
}
