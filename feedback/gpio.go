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
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var hostInit sync.Once

// initHost initializes the periph host drivers exactly once.
func initHost() error {
	var err error
	hostInit.Do(func() {
		_, err = host.Init()
	})
	if err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return nil
}

// PinIndicator drives an indicator light on a GPIO pin.
type PinIndicator struct {
	pin gpio.PinOut
}

// NewPinIndicator opens the named GPIO pin as an indicator output.
func NewPinIndicator(name string) (*PinIndicator, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("indicator pin %q not found", name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to initialize indicator pin %q: %w", name, err)
	}
	return &PinIndicator{pin: pin}, nil
}

// Set implements Indicator.
func (i *PinIndicator) Set(on bool) error {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := i.pin.Out(level); err != nil {
		return fmt.Errorf("failed to drive indicator pin %s: %w", i.pin.Name(), err)
	}
	return nil
}

// Hobby-servo drive parameters: 50 Hz frame with a 0.5–2.5 ms pulse mapping
// to 0–180 degrees.
const (
	servoFrequency = 50 * physic.Hertz
	servoPeriod    = 20 * time.Millisecond
	servoMinPulse  = 500 * time.Microsecond
	servoMaxPulse  = 2500 * time.Microsecond
	servoMaxAngle  = 180
)

// ServoLatch drives the lock actuator, a hobby servo, over GPIO PWM.
type ServoLatch struct {
	pin gpio.PinOut
}

// NewServoLatch opens the named GPIO pin as the latch actuator output.
func NewServoLatch(name string) (*ServoLatch, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("latch pin %q not found", name)
	}
	return &ServoLatch{pin: pin}, nil
}

// Move implements Latch. The position is in degrees from 0 to 180.
func (s *ServoLatch) Move(position int) error {
	if position < 0 || position > servoMaxAngle {
		return fmt.Errorf("latch position %d out of range 0-%d", position, servoMaxAngle)
	}

	pulse := servoMinPulse + time.Duration(position)*(servoMaxPulse-servoMinPulse)/servoMaxAngle
	duty := gpio.Duty(int64(gpio.DutyMax) * pulse.Nanoseconds() / servoPeriod.Nanoseconds())
	if err := s.pin.PWM(duty, servoFrequency); err != nil {
		return fmt.Errorf("failed to drive latch pin %s: %w", s.pin.Name(), err)
	}
	return nil
}
