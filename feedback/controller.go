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

// Package feedback drives the endpoint's physical outputs: the latch
// actuator and the two indicator lights. Every signal sequence is a fixed,
// blocking profile with no early exit; the control loop intentionally stalls
// for its full duration so actuations never overlap.
package feedback

import (
	"time"

	"github.com/rs/zerolog"
)

// Indicator is a single on/off indicator light.
type Indicator interface {
	Set(on bool) error
}

// Latch commands the lock actuator to a position in degrees.
type Latch interface {
	Move(position int) error
}

// Timing holds the fixed intervals of the signal sequences.
type Timing struct {
	// ShortPulse is the indicator on/off interval for ordinary outcomes.
	ShortPulse time.Duration
	// LongPulse is the slower interval used by fault patterns.
	LongPulse time.Duration
	// LatchTravel is the time the actuator needs to reach a commanded
	// position.
	LatchTravel time.Duration
	// HoldOpen is the passage interval with the latch open.
	HoldOpen time.Duration
}

// DefaultTiming returns the stock sequence intervals.
func DefaultTiming() Timing {
	return Timing{
		ShortPulse:  150 * time.Millisecond,
		LongPulse:   500 * time.Millisecond,
		LatchTravel: 700 * time.Millisecond,
		HoldOpen:    4 * time.Second,
	}
}

// Positions holds the latch motion profile in degrees.
type Positions struct {
	// Open releases the strike.
	Open int
	// Closed drives the bolt home against the strike.
	Closed int
	// Rest backs off slightly from Closed so the actuator is not left
	// straining against the frame.
	Rest int
}

// DefaultPositions returns the stock motion profile.
func DefaultPositions() Positions {
	return Positions{
		Open:   90,
		Closed: 0,
		Rest:   5,
	}
}

// Pulse counts per outcome. Decline and network fault deliberately use
// different patterns so the two are distinguishable on site.
const (
	grantedPulses       = 3
	declinedPulses      = 3
	readerFaultPulses   = 2
	networkFaultPulses  = 4
	bootstrapOKPulses   = 2
	bootstrapFailPulses = 5
)

// Controller runs the signal sequences. Its entry points are mutually
// exclusive by construction: the single-threaded control loop calls at most
// one per iteration.
type Controller struct {
	sleep     func(time.Duration)
	grant     Indicator
	deny      Indicator
	latch     Latch
	log       zerolog.Logger
	timing    Timing
	positions Positions
}

// Option is a functional option for configuring a Controller.
type Option func(*Controller)

// WithTiming overrides the sequence intervals.
func WithTiming(timing Timing) Option {
	return func(c *Controller) {
		c.timing = timing
	}
}

// WithPositions overrides the latch motion profile.
func WithPositions(positions Positions) Option {
	return func(c *Controller) {
		c.positions = positions
	}
}

// WithLogger sets the logger used for sequence diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// WithSleep replaces the delay function. Tests use this to run sequences
// without real-time waits.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Controller) {
		c.sleep = sleep
	}
}

// NewController creates a feedback controller for the given outputs.
func NewController(grant, deny Indicator, latch Latch, opts ...Option) *Controller {
	c := &Controller{
		grant:     grant,
		deny:      deny,
		latch:     latch,
		timing:    DefaultTiming(),
		positions: DefaultPositions(),
		sleep:     time.Sleep,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignalGranted pulses the allow indicator, then drives the latch through
// the open, hold, close profile. Blocks for the full sequence.
func (c *Controller) SignalGranted() {
	c.log.Info().Msg("access granted")
	c.blink(c.grant, grantedPulses, c.timing.ShortPulse)

	c.move(c.positions.Open)
	c.sleep(c.timing.LatchTravel)
	c.sleep(c.timing.HoldOpen)
	c.move(c.positions.Closed)
	c.sleep(c.timing.LatchTravel)
	c.move(c.positions.Rest)
}

// SignalDeclined pulses the deny indicator. The latch is not moved.
func (c *Controller) SignalDeclined() {
	c.log.Info().Msg("access declined")
	c.blink(c.deny, declinedPulses, c.timing.ShortPulse)
}

// SignalReaderFault runs the slow deny pattern for unreadable or
// wrong-class cards.
func (c *Controller) SignalReaderFault() {
	c.log.Warn().Msg("reader fault")
	c.blink(c.deny, readerFaultPulses, c.timing.LongPulse)
}

// SignalNetworkFault runs the slow deny pattern for authority transport
// failures. Distinct from SignalDeclined so an on-site observer can tell a
// refused card from an unreachable authority.
func (c *Controller) SignalNetworkFault() {
	c.log.Warn().Msg("network fault")
	c.blink(c.deny, networkFaultPulses, c.timing.LongPulse)
}

// SignalBootstrapOK reports a successful session bootstrap at startup.
func (c *Controller) SignalBootstrapOK() {
	c.log.Info().Msg("session bootstrap succeeded")
	c.blink(c.grant, bootstrapOKPulses, c.timing.ShortPulse)
}

// SignalBootstrapFailed reports a failed session bootstrap; the device will
// run unauthenticated until reboot.
func (c *Controller) SignalBootstrapFailed() {
	c.log.Warn().Msg("session bootstrap failed")
	c.blink(c.deny, bootstrapFailPulses, c.timing.ShortPulse)
}

// blink pulses an indicator count times with the given on/off interval.
func (c *Controller) blink(ind Indicator, count int, interval time.Duration) {
	for i := 0; i < count; i++ {
		if err := ind.Set(true); err != nil {
			c.log.Warn().Err(err).Msg("indicator drive failed")
		}
		c.sleep(interval)
		if err := ind.Set(false); err != nil {
			c.log.Warn().Err(err).Msg("indicator drive failed")
		}
		c.sleep(interval)
	}
}

// move commands the latch to a position, logging drive failures. Actuator
// faults are not recoverable within an iteration; the sequence continues so
// the loop's timing stays fixed.
func (c *Controller) move(position int) {
	if err := c.latch.Move(position); err != nil {
		c.log.Warn().Err(err).Int("position", position).Msg("latch drive failed")
	}
}
