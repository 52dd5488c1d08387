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

// Reader module command bytes (PN532 command set subset).
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSAMConfiguration    = 0x14
	cmdInListPassiveTarget = 0x4A
	cmdInDeselect          = 0x44
	cmdInRelease           = 0x52
)

// SAM configuration modes.
const (
	samModeNormal = 0x01
)

// Baud rate / modulation selectors for InListPassiveTarget.
const (
	// baudTypeA selects 106 kbps ISO14443 Type A, the modulation used by
	// the MIFARE family cards this endpoint accepts.
	baudTypeA = 0x00
)

// responseFor returns the expected response command byte for a command.
func responseFor(cmd byte) byte {
	return cmd + 1
}
