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
	"encoding/hex"
	"fmt"
	"strings"
)

// Technology identifies the proximity-card standard family of a detected card.
type Technology string

const (
	// TechnologyMifareMini is a MIFARE Classic Mini (320 byte) card.
	TechnologyMifareMini Technology = "MIFARE_MINI"
	// TechnologyMifare1K is a MIFARE Classic 1K card.
	TechnologyMifare1K Technology = "MIFARE_1K"
	// TechnologyMifare4K is a MIFARE Classic 4K card.
	TechnologyMifare4K Technology = "MIFARE_4K"
	// TechnologyUltralight is a MIFARE Ultralight / NTAG2xx card.
	TechnologyUltralight Technology = "MIFARE_UL"
	// TechnologyISO14443_4 is an ISO14443-4 compliant card (DESFire and
	// similar).
	TechnologyISO14443_4 Technology = "ISO14443_4"
	// TechnologyUnknown is a card whose SEL_RES does not match a known family.
	TechnologyUnknown Technology = "UNKNOWN"
)

// DetectedCard holds the identity of a card found during a poll cycle.
type DetectedCard struct {
	// UID is the canonical card identifier: uppercase hex, two digits per
	// identifier byte.
	UID string
	// Technology is the card's standard family, derived from SEL_RES.
	Technology Technology
	// ATQ is the raw SENS_RES (answer to request) value.
	ATQ [2]byte
	// SAK is the raw SEL_RES (select acknowledge) value.
	SAK byte
}

// String returns a short human-readable description of the card.
func (c *DetectedCard) String() string {
	return fmt.Sprintf("%s (%s)", c.UID, c.Technology)
}

// NormalizeUID converts raw identifier bytes to the canonical card
// identifier form: uppercase hex, fixed two digits per byte.
func NormalizeUID(raw []byte) string {
	return strings.ToUpper(hex.EncodeToString(raw))
}

// classifyTechnology maps a SEL_RES (SAK) byte to a card technology.
func classifyTechnology(sak byte) Technology {
	// Mask out the cascade bit; it only signals an incomplete UID during
	// anticollision.
	switch sak & 0x7F {
	case 0x09:
		return TechnologyMifareMini
	case 0x08:
		return TechnologyMifare1K
	case 0x18:
		return TechnologyMifare4K
	case 0x00:
		return TechnologyUltralight
	case 0x20:
		return TechnologyISO14443_4
	default:
		return TechnologyUnknown
	}
}

// parseTargetData decodes the per-target portion of an InListPassiveTarget
// response: Tg(1) SENS_RES(2) SEL_RES(1) NFCIDLength(1) NFCID(n).
func parseTargetData(data []byte) (*DetectedCard, error) {
	const header = 5
	if len(data) < header+1 {
		return nil, fmt.Errorf("target data too short (%d bytes): %w", len(data), ErrInvalidResponse)
	}

	uidLen := int(data[4])
	if uidLen == 0 || uidLen > 10 {
		return nil, fmt.Errorf("identifier length %d out of range: %w", uidLen, ErrInvalidResponse)
	}
	if len(data) < header+uidLen {
		return nil, fmt.Errorf("identifier truncated (%d of %d bytes): %w",
			len(data)-header, uidLen, ErrPartialRead)
	}

	sak := data[3]
	card := &DetectedCard{
		UID:        NormalizeUID(data[header : header+uidLen]),
		Technology: classifyTechnology(sak),
		ATQ:        [2]byte{data[1], data[2]},
		SAK:        sak,
	}
	return card, nil
}
