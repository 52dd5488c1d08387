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

/*
Package openlatch provides the card-reader core of an access-control
endpoint: a device that reads a proximity card's identifier, asks a remote
authority whether that identifier may pass, and actuates a physical latch
with indicator feedback.

This package covers the reader side: a Transport interface with UART and I2C
backends (PN532-family modules), single-shot polling that yields a normalized
card identifier and its technology class, and re-arming so a lingering card is
not re-processed as the same authenticated presentation.

Basic usage:

	import (
	    "github.com/OpenLatchProject/go-openlatch"
	    "github.com/OpenLatchProject/go-openlatch/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	reader, err := openlatch.NewReader(transport)
	if err != nil {
	    log.Fatal(err)
	}
	if err := reader.Init(); err != nil {
	    log.Fatal(err)
	}

	card, err := reader.Poll()
	if errors.Is(err, openlatch.ErrNoCardDetected) {
	    // nothing on the reader this cycle
	}

The remaining endpoint components live in subpackages: authority (session
bootstrap and per-scan authorization over HTTP), feedback (blocking latch and
indicator sequences), and gate (the control loop tying them together).

Thread safety: reader operations are not thread-safe. The endpoint is a
single-threaded control loop, so no synchronization is provided or needed.
*/
package openlatch
