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

package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openlatch "github.com/OpenLatchProject/go-openlatch"
	"github.com/OpenLatchProject/go-openlatch/authority"
)

type stubReader struct {
	card   *openlatch.DetectedCard
	err    error
	polls  int
	rearms int
}

func (s *stubReader) PollContext(_ context.Context) (*openlatch.DetectedCard, error) {
	s.polls++
	if s.err != nil {
		return nil, s.err
	}
	return s.card, nil
}

func (s *stubReader) Rearm() error {
	s.rearms++
	return nil
}

type stubAuthority struct {
	tokenErr   error
	authErr    error
	token      string
	gotAsset   string
	gotToken   string
	gotUID     string
	decision   authority.Decision
	tokenCalls int
	authCalls  int
}

func (s *stubAuthority) AcquireToken(_ context.Context, assetID string) (string, error) {
	s.tokenCalls++
	s.gotAsset = assetID
	if s.tokenErr != nil {
		return "", s.tokenErr
	}
	return s.token, nil
}

func (s *stubAuthority) Authorize(_ context.Context, assetID, token, uid string) (authority.Decision, error) {
	s.authCalls++
	s.gotAsset = assetID
	s.gotToken = token
	s.gotUID = uid
	if s.authErr != nil {
		return authority.DecisionDeclined, s.authErr
	}
	return s.decision, nil
}

type stubSignaler struct {
	granted      int
	declined     int
	readerFault  int
	networkFault int
	bootOK       int
	bootFail     int
}

func (s *stubSignaler) SignalGranted()         { s.granted++ }
func (s *stubSignaler) SignalDeclined()        { s.declined++ }
func (s *stubSignaler) SignalReaderFault()     { s.readerFault++ }
func (s *stubSignaler) SignalNetworkFault()    { s.networkFault++ }
func (s *stubSignaler) SignalBootstrapOK()     { s.bootOK++ }
func (s *stubSignaler) SignalBootstrapFailed() { s.bootFail++ }

func acceptedCard() *openlatch.DetectedCard {
	return &openlatch.DetectedCard{
		UID:        "04A1B2C3",
		Technology: openlatch.TechnologyMifare1K,
		SAK:        0x08,
	}
}

func newTestLoop(t *testing.T, reader *stubReader, auth *stubAuthority, signals *stubSignaler) *Loop {
	t.Helper()
	loop, err := New(Config{AssetID: "door-17"}, reader, auth, signals)
	require.NoError(t, err)
	return loop
}

func TestScenarioGranted(t *testing.T) {
	t.Parallel()

	reader := &stubReader{card: acceptedCard()}
	auth := &stubAuthority{token: "tok123", decision: authority.DecisionGranted}
	signals := &stubSignaler{}
	loop := newTestLoop(t, reader, auth, signals)

	loop.Bootstrap(context.Background())
	loop.iterate(context.Background())

	assert.Equal(t, 1, signals.granted)
	assert.Zero(t, signals.declined)
	assert.Zero(t, signals.networkFault)
	assert.Zero(t, signals.readerFault)
	assert.Equal(t, 1, reader.rearms, "reader must be re-armed after a granted scan")
	assert.Equal(t, "tok123", auth.gotToken, "adopted token must ride every authorization")
	assert.Equal(t, "04A1B2C3", auth.gotUID)
	assert.Equal(t, "door-17", auth.gotAsset)
	assert.Equal(t, StateIdle, loop.State())
}

func TestScenarioDeclined(t *testing.T) {
	t.Parallel()

	reader := &stubReader{card: acceptedCard()}
	auth := &stubAuthority{decision: authority.DecisionDeclined}
	signals := &stubSignaler{}
	loop := newTestLoop(t, reader, auth, signals)

	loop.iterate(context.Background())

	assert.Equal(t, 1, signals.declined)
	assert.Zero(t, signals.granted)
	assert.Zero(t, signals.networkFault, "an authority decline is not a network fault")
	assert.Equal(t, 1, reader.rearms)
}

func TestScenarioNetworkFault(t *testing.T) {
	t.Parallel()

	reader := &stubReader{card: acceptedCard()}
	auth := &stubAuthority{authErr: errors.New("connection refused")}
	signals := &stubSignaler{}
	loop := newTestLoop(t, reader, auth, signals)

	loop.iterate(context.Background())

	assert.Equal(t, 1, signals.networkFault)
	assert.Zero(t, signals.declined, "a transport failure must not be signaled as a decline")
	assert.Zero(t, signals.granted)
	assert.Equal(t, 1, reader.rearms)
}

func TestScenarioWrongTechnologyClass(t *testing.T) {
	t.Parallel()

	reader := &stubReader{card: &openlatch.DetectedCard{
		UID:        "041A2B3C4D5E6F",
		Technology: openlatch.TechnologyUltralight,
	}}
	auth := &stubAuthority{decision: authority.DecisionGranted}
	signals := &stubSignaler{}
	loop := newTestLoop(t, reader, auth, signals)

	loop.iterate(context.Background())

	assert.Equal(t, 1, signals.readerFault)
	assert.Zero(t, auth.authCalls, "wrong card class must never reach the network")
	assert.Zero(t, signals.granted)
	assert.Zero(t, signals.declined)
	assert.Equal(t, 1, reader.rearms)
}

func TestIdlePathIsSilent(t *testing.T) {
	t.Parallel()

	reader := &stubReader{err: openlatch.ErrNoCardDetected}
	auth := &stubAuthority{}
	signals := &stubSignaler{}
	loop := newTestLoop(t, reader, auth, signals)

	loop.iterate(context.Background())

	assert.Equal(t, stubSignaler{}, *signals, "absence of a card must produce no signal")
	assert.Zero(t, reader.rearms)
	assert.Zero(t, auth.authCalls)
}

func TestPartialReadShortCircuits(t *testing.T) {
	t.Parallel()

	reader := &stubReader{err: openlatch.ErrPartialRead}
	auth := &stubAuthority{}
	signals := &stubSignaler{}
	loop := newTestLoop(t, reader, auth, signals)

	loop.iterate(context.Background())

	assert.Equal(t, stubSignaler{}, *signals, "a partial read must produce no signal")
	assert.Zero(t, auth.authCalls)
}

func TestBootstrapTokenAdoption(t *testing.T) {
	t.Parallel()

	auth := &stubAuthority{token: "tok123"}
	signals := &stubSignaler{}
	loop := newTestLoop(t, &stubReader{err: openlatch.ErrNoCardDetected}, auth, signals)

	loop.Bootstrap(context.Background())
	assert.Equal(t, "tok123", loop.token)
	assert.Equal(t, 1, signals.bootOK)
	assert.Zero(t, signals.bootFail)

	// Bootstrap runs exactly once per boot.
	loop.Bootstrap(context.Background())
	assert.Equal(t, 1, auth.tokenCalls)
}

func TestBootstrapFailureLeavesTokenEmpty(t *testing.T) {
	t.Parallel()

	reader := &stubReader{card: acceptedCard()}
	auth := &stubAuthority{tokenErr: authority.ErrTokenRejected, decision: authority.DecisionGranted}
	signals := &stubSignaler{}
	loop := newTestLoop(t, reader, auth, signals)

	loop.Bootstrap(context.Background())
	assert.Empty(t, loop.token)
	assert.Equal(t, 1, signals.bootFail)

	// The device keeps operating unauthenticated: authorization requests
	// carry the empty token for the rest of the uptime.
	loop.iterate(context.Background())
	assert.Equal(t, 1, auth.authCalls)
	assert.Empty(t, auth.gotToken)
	assert.Equal(t, 1, signals.granted)
}

func TestHeldCardIsRearmedEveryScan(t *testing.T) {
	t.Parallel()

	reader := &stubReader{card: acceptedCard()}
	auth := &stubAuthority{decision: authority.DecisionDeclined}
	signals := &stubSignaler{}
	loop := newTestLoop(t, reader, auth, signals)

	// A card held on the reader is re-detected each cycle as a fresh
	// presentation; each scan ends with its own re-arm.
	loop.iterate(context.Background())
	loop.iterate(context.Background())

	assert.Equal(t, 2, reader.rearms)
	assert.Equal(t, 2, auth.authCalls)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	reader := &stubReader{err: openlatch.ErrNoCardDetected}
	signals := &stubSignaler{}
	loop, err := New(Config{AssetID: "door-17", PollInterval: time.Millisecond},
		reader, &stubAuthority{token: "tok123"}, signals)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case runErr := <-done:
		assert.ErrorIs(t, runErr, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
	assert.Positive(t, reader.polls)
	assert.Equal(t, 1, signals.bootOK, "Run performs the bootstrap when the caller has not")
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, &stubReader{}, &stubAuthority{}, &stubSignaler{})
	assert.Error(t, err, "empty asset ID must be rejected")

	_, err = New(Config{AssetID: "door-17"}, nil, &stubAuthority{}, &stubSignaler{})
	assert.Error(t, err)
}

func TestDefaultAcceptedTechnologiesGateUltralight(t *testing.T) {
	t.Parallel()

	loop := newTestLoop(t, &stubReader{}, &stubAuthority{}, &stubSignaler{})
	_, mini := loop.accepted[openlatch.TechnologyMifareMini]
	_, oneK := loop.accepted[openlatch.TechnologyMifare1K]
	_, fourK := loop.accepted[openlatch.TechnologyMifare4K]
	_, ul := loop.accepted[openlatch.TechnologyUltralight]

	assert.True(t, mini && oneK && fourK)
	assert.False(t, ul)
}
