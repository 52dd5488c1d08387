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

package feedback

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects a flat event trace so tests can assert ordering across
// indicators, latch, and sleeps.
type recorder struct {
	events []string
}

func (r *recorder) add(event string) {
	r.events = append(r.events, event)
}

type fakeIndicator struct {
	rec  *recorder
	name string
	err  error
}

func (f *fakeIndicator) Set(on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	f.rec.add(f.name + ":" + state)
	return f.err
}

type fakeLatch struct {
	rec *recorder
	err error
}

func (f *fakeLatch) Move(position int) error {
	f.rec.add(fmt.Sprintf("latch:%d", position))
	return f.err
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	grant := &fakeIndicator{rec: rec, name: "grant"}
	deny := &fakeIndicator{rec: rec, name: "deny"}
	latch := &fakeLatch{rec: rec}

	all := append([]Option{
		WithSleep(func(d time.Duration) { rec.add("sleep:" + d.String()) }),
	}, opts...)
	return NewController(grant, deny, latch, all...), rec
}

func countEvents(events []string, want string) int {
	n := 0
	for _, e := range events {
		if e == want {
			n++
		}
	}
	return n
}

func latchMoves(events []string) []string {
	var moves []string
	for _, e := range events {
		if len(e) > 6 && e[:6] == "latch:" {
			moves = append(moves, e)
		}
	}
	return moves
}

func TestSignalGranted(t *testing.T) {
	t.Parallel()

	c, rec := newTestController(t)
	c.SignalGranted()

	assert.Equal(t, grantedPulses, countEvents(rec.events, "grant:on"))
	assert.Equal(t, grantedPulses, countEvents(rec.events, "grant:off"))
	assert.Zero(t, countEvents(rec.events, "deny:on"))

	pos := DefaultPositions()
	require.Equal(t, []string{
		fmt.Sprintf("latch:%d", pos.Open),
		fmt.Sprintf("latch:%d", pos.Closed),
		fmt.Sprintf("latch:%d", pos.Rest),
	}, latchMoves(rec.events))

	// Passage hold happens between the open and close commands.
	assert.Equal(t, 1, countEvents(rec.events, "sleep:"+DefaultTiming().HoldOpen.String()))

	// All indicator pulses precede the latch opening.
	openIdx := -1
	lastBlinkIdx := -1
	for i, e := range rec.events {
		if e == fmt.Sprintf("latch:%d", pos.Open) {
			openIdx = i
		}
		if e == "grant:on" || e == "grant:off" {
			lastBlinkIdx = i
		}
	}
	assert.Greater(t, openIdx, lastBlinkIdx)
}

func TestSignalDeclined(t *testing.T) {
	t.Parallel()

	c, rec := newTestController(t)
	c.SignalDeclined()

	assert.Equal(t, declinedPulses, countEvents(rec.events, "deny:on"))
	assert.Zero(t, countEvents(rec.events, "grant:on"))
	assert.Empty(t, latchMoves(rec.events), "latch must not move on decline")
}

func TestFaultPatternsAreDistinct(t *testing.T) {
	t.Parallel()

	reader, readerRec := newTestController(t)
	reader.SignalReaderFault()

	network, networkRec := newTestController(t)
	network.SignalNetworkFault()

	declined, declinedRec := newTestController(t)
	declined.SignalDeclined()

	assert.Equal(t, readerFaultPulses, countEvents(readerRec.events, "deny:on"))
	assert.Equal(t, networkFaultPulses, countEvents(networkRec.events, "deny:on"))
	assert.Empty(t, latchMoves(readerRec.events))
	assert.Empty(t, latchMoves(networkRec.events))

	// Network fault must not look like an ordinary decline: slower pulses.
	long := "sleep:" + DefaultTiming().LongPulse.String()
	short := "sleep:" + DefaultTiming().ShortPulse.String()
	assert.Positive(t, countEvents(networkRec.events, long))
	assert.Zero(t, countEvents(networkRec.events, short))
	assert.Positive(t, countEvents(declinedRec.events, short))
	assert.Zero(t, countEvents(declinedRec.events, long))
}

func TestBootstrapSignals(t *testing.T) {
	t.Parallel()

	ok, okRec := newTestController(t)
	ok.SignalBootstrapOK()
	assert.Equal(t, bootstrapOKPulses, countEvents(okRec.events, "grant:on"))
	assert.Zero(t, countEvents(okRec.events, "deny:on"))

	failed, failedRec := newTestController(t)
	failed.SignalBootstrapFailed()
	assert.Equal(t, bootstrapFailPulses, countEvents(failedRec.events, "deny:on"))
	assert.Zero(t, countEvents(failedRec.events, "grant:on"))
	assert.Empty(t, latchMoves(failedRec.events))
}

func TestSequenceContinuesOnDriveFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	grant := &fakeIndicator{rec: rec, name: "grant", err: errors.New("pin stuck")}
	deny := &fakeIndicator{rec: rec, name: "deny"}
	latch := &fakeLatch{rec: rec, err: errors.New("servo stalled")}

	c := NewController(grant, deny, latch,
		WithSleep(func(time.Duration) {}))

	// Must not panic and must still issue every command in the profile.
	c.SignalGranted()
	assert.Len(t, latchMoves(rec.events), 3)
}

func TestCustomPositions(t *testing.T) {
	t.Parallel()

	c, rec := newTestController(t, WithPositions(Positions{Open: 120, Closed: 10, Rest: 15}))
	c.SignalGranted()

	require.Equal(t, []string{"latch:120", "latch:10", "latch:15"}, latchMoves(rec.events))
}
