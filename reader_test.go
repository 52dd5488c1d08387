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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCardResponse(sak byte, uid []byte) []byte {
	resp := []byte{responseFor(cmdInListPassiveTarget), 0x01, 0x01, 0x00, 0x04, sak, byte(len(uid))}
	return append(resp, uid...)
}

func setupInitResponses(mock *MockTransport) {
	mock.SetResponse(cmdGetFirmwareVersion, []byte{responseFor(cmdGetFirmwareVersion), 0x32, 0x01, 0x06, 0x07})
	mock.SetResponse(cmdSAMConfiguration, []byte{responseFor(cmdSAMConfiguration)})
}

func TestReaderInit(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	setupInitResponses(mock)

	reader, err := NewReader(mock)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, reader.InitContext(ctx))
	assert.Equal(t, 1, mock.GetCallCount(cmdSAMConfiguration))
}

func TestReaderPoll(t *testing.T) {
	t.Parallel()
	tests := []struct {
		setupMock   func(mock *MockTransport)
		wantErr     error
		name        string
		wantUID     string
		wantTech    Technology
		expectError bool
	}{
		{
			name: "card detected",
			setupMock: func(mock *MockTransport) {
				mock.SetResponse(cmdInListPassiveTarget,
					buildCardResponse(0x08, []byte{0x04, 0xA1, 0xB2, 0xC3}))
			},
			wantUID:  "04A1B2C3",
			wantTech: TechnologyMifare1K,
		},
		{
			name: "no card present",
			setupMock: func(mock *MockTransport) {
				mock.SetResponse(cmdInListPassiveTarget,
					[]byte{responseFor(cmdInListPassiveTarget), 0x00})
			},
			expectError: true,
			wantErr:     ErrNoCardDetected,
		},
		{
			name: "link timeout reads as absent card",
			setupMock: func(mock *MockTransport) {
				mock.SetError(cmdInListPassiveTarget, NewTimeoutError("SendCommand", "mock"))
			},
			expectError: true,
			wantErr:     ErrNoCardDetected,
		},
		{
			name: "partial identifier read",
			setupMock: func(mock *MockTransport) {
				mock.SetResponse(cmdInListPassiveTarget,
					[]byte{responseFor(cmdInListPassiveTarget), 0x01, 0x01, 0x00, 0x04, 0x08, 0x04, 0x04})
			},
			expectError: true,
			wantErr:     ErrPartialRead,
		},
		{
			name: "transport failure",
			setupMock: func(mock *MockTransport) {
				mock.SetError(cmdInListPassiveTarget, ErrTransportRead)
			},
			expectError: true,
			wantErr:     ErrTransportRead,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			tt.setupMock(mock)

			reader, err := NewReader(mock)
			require.NoError(t, err)

			card, err := reader.Poll()
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, card)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, card)
			assert.Equal(t, tt.wantUID, card.UID)
			assert.Equal(t, tt.wantTech, card.Technology)
		})
	}
}

func TestReaderPollCancelledContext(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	reader, err := NewReader(mock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = reader.PollContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mock.GetCallCount(cmdInListPassiveTarget))
}

func TestReaderRearm(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(cmdInDeselect, []byte{responseFor(cmdInDeselect), 0x00})
	mock.SetResponse(cmdInRelease, []byte{responseFor(cmdInRelease), 0x00})

	reader, err := NewReader(mock)
	require.NoError(t, err)

	require.NoError(t, reader.Rearm())
	assert.Equal(t, 1, mock.GetCallCount(cmdInDeselect))
	assert.Equal(t, 1, mock.GetCallCount(cmdInRelease))
}

func TestReaderRearmBestEffort(t *testing.T) {
	t.Parallel()

	// A deselect failure must not prevent the release from being issued.
	mock := NewMockTransport()
	mock.SetError(cmdInDeselect, errors.New("deselect refused"))
	mock.SetResponse(cmdInRelease, []byte{responseFor(cmdInRelease), 0x00})

	reader, err := NewReader(mock)
	require.NoError(t, err)

	err = reader.Rearm()
	assert.Error(t, err)
	assert.Equal(t, 1, mock.GetCallCount(cmdInRelease))
}

func TestReaderOptions(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	reader, err := NewReader(mock, WithTimeout(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, reader.config.Timeout)

	_, err = NewReader(mock, WithTimeout(0))
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
