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

// Package frame builds and parses the wire frames spoken by PN532-family
// reader modules over UART and I2C.
package frame

import (
	"bytes"
	"errors"
)

// Frame direction identifiers (TFI byte).
const (
	HostToReader = 0xD4 // commands from host to reader module
	ReaderToHost = 0xD5 // responses from reader module to host
)

// Frame markers and control bytes.
const (
	Preamble   = 0x00
	StartCode1 = 0x00
	StartCode2 = 0xFF
	Postamble  = 0x00
)

// Frame size limits.
const (
	// MaxDataLength is the maximum payload length of a normal frame
	// (extended frames are not supported).
	MaxDataLength = 255
	// MinResponseLength is the shortest parseable response frame:
	// preamble + start code (2) + len + lcs + tfi + dcs + postamble.
	MinResponseLength = 8
)

// ACK and NACK frames used for flow control.
var (
	ACKFrame  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NACKFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)

// Frame parse errors.
var (
	ErrFrameTooShort    = errors.New("frame too short")
	ErrFrameMarker      = errors.New("frame start code not found")
	ErrLengthChecksum   = errors.New("frame length checksum mismatch")
	ErrDataChecksum     = errors.New("frame data checksum mismatch")
	ErrFrameDirection   = errors.New("unexpected frame direction")
	ErrDataTooLarge     = errors.New("frame data exceeds maximum length")
	ErrTruncatedPayload = errors.New("frame payload truncated")
)

// CalculateChecksum returns the 8-bit sum of data, truncated to a byte.
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// ValidateChecksum reports whether data (including its trailing checksum
// byte) fails validation, i.e. whether the receiver should NACK.
func ValidateChecksum(data []byte) bool {
	return CalculateChecksum(data) != 0
}

// Build constructs a complete command frame for the given command byte and
// arguments, ready to write to the transport.
func Build(cmd byte, args []byte) ([]byte, error) {
	dataLen := 2 + len(args) // TFI + cmd + args
	if dataLen > MaxDataLength {
		return nil, ErrDataTooLarge
	}

	frm := make([]byte, 0, 5+dataLen+2)
	frm = append(frm, Preamble, StartCode1, StartCode2)
	frm = append(frm, byte(dataLen), ^byte(dataLen)+1)
	frm = append(frm, HostToReader, cmd)
	frm = append(frm, args...)

	dcs := HostToReader + cmd
	for _, b := range args {
		dcs += b
	}
	frm = append(frm, ^byte(dcs)+1, Postamble)

	return frm, nil
}

// IsACK reports whether buf begins with the ACK frame.
func IsACK(buf []byte) bool {
	return len(buf) >= len(ACKFrame) && bytes.Equal(buf[:len(ACKFrame)], ACKFrame)
}

// Parse validates a response frame and returns its payload: the response
// command byte followed by the response data. The input may carry trailing
// bytes past the postamble; they are ignored.
func Parse(buf []byte) ([]byte, error) {
	if len(buf) < MinResponseLength {
		return nil, ErrFrameTooShort
	}

	// Locate the start code; some modules emit extra idle bytes before the
	// preamble.
	idx := bytes.Index(buf, []byte{StartCode1, StartCode2})
	if idx < 0 || idx+2 >= len(buf) {
		return nil, ErrFrameMarker
	}
	body := buf[idx+2:]

	if len(body) < 2 {
		return nil, ErrFrameTooShort
	}
	dataLen := int(body[0])
	if body[0]+body[1] != 0 {
		return nil, ErrLengthChecksum
	}
	if len(body) < 2+dataLen+1 {
		return nil, ErrTruncatedPayload
	}

	data := body[2 : 2+dataLen]
	dcs := body[2+dataLen]
	if ValidateChecksum(append(append([]byte(nil), data...), dcs)) {
		return nil, ErrDataChecksum
	}
	if len(data) < 2 {
		return nil, ErrFrameTooShort
	}
	if data[0] != ReaderToHost {
		return nil, ErrFrameDirection
	}

	return data[1:], nil
}
