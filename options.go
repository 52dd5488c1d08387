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
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Reader.
type Option func(*Reader) error

// WithTimeout sets the default timeout for reader operations.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Reader) error {
		if timeout <= 0 {
			return ErrInvalidParameter
		}
		return r.SetTimeout(timeout)
	}
}

// WithLogger sets the logger used for reader diagnostics. The default is a
// no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Reader) error {
		r.log = log
		return nil
	}
}
