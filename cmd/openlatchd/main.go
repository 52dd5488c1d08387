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

// openlatchd is the access-control endpoint daemon: it polls the card
// reader, asks the authority for decisions, and drives the latch and
// indicators until terminated.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	openlatch "github.com/OpenLatchProject/go-openlatch"
	"github.com/OpenLatchProject/go-openlatch/authority"
	"github.com/OpenLatchProject/go-openlatch/feedback"
	"github.com/OpenLatchProject/go-openlatch/gate"
	"github.com/OpenLatchProject/go-openlatch/internal/config"
	"github.com/OpenLatchProject/go-openlatch/transport/i2c"
	"github.com/OpenLatchProject/go-openlatch/transport/uart"
)

func main() {
	var configFile string
	var validateOnly bool
	flag.StringVar(&configFile, "config", "/etc/openlatch/openlatch.yaml", "configuration file path")
	flag.BoolVar(&validateOnly, "validate", false, "validate the configuration and exit")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if validateOnly {
		fmt.Println("configuration ok")
		return
	}

	setupLogging(cfg.Log)
	log.Info().Str("asset_id", cfg.Device.AssetID).Msg("openlatchd starting")

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("openlatchd stopped")
	}
	log.Info().Msg("openlatchd stopped")
}

func setupLogging(cfg config.LogConfig) {
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// newTransport opens the configured reader transport.
func newTransport(cfg config.ReaderConfig) (openlatch.Transport, error) {
	switch cfg.Transport {
	case "uart":
		transport, err := uart.New(cfg.Port)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return transport, nil
	case "i2c":
		transport, err := i2c.New(cfg.Bus)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", cfg.Transport)
	}
}

func newSignaler(cfg config.FeedbackConfig) (*feedback.Controller, error) {
	grant, err := feedback.NewPinIndicator(cfg.GrantPin)
	if err != nil {
		return nil, err
	}
	deny, err := feedback.NewPinIndicator(cfg.DenyPin)
	if err != nil {
		return nil, err
	}
	latch, err := feedback.NewServoLatch(cfg.LatchPin)
	if err != nil {
		return nil, err
	}

	opts := []feedback.Option{feedback.WithLogger(log.Logger)}
	if cfg.OpenPosition != 0 || cfg.ClosedPosition != 0 || cfg.RestPosition != 0 {
		opts = append(opts, feedback.WithPositions(feedback.Positions{
			Open:   cfg.OpenPosition,
			Closed: cfg.ClosedPosition,
			Rest:   cfg.RestPosition,
		}))
	}
	return feedback.NewController(grant, deny, latch, opts...), nil
}

func run(cfg *config.Config) error {
	transport, err := newTransport(cfg.Reader)
	if err != nil {
		return err
	}

	readerOpts := []openlatch.Option{openlatch.WithLogger(log.Logger)}
	if cfg.Reader.Timeout > 0 {
		readerOpts = append(readerOpts, openlatch.WithTimeout(cfg.Reader.Timeout))
	}
	reader, err := openlatch.NewReader(transport, readerOpts...)
	if err != nil {
		_ = transport.Close()
		return err
	}
	defer func() { _ = reader.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := reader.InitContext(ctx); err != nil {
		return fmt.Errorf("failed to initialize reader: %w", err)
	}

	authorityCfg := authority.DefaultConfig(cfg.Authority.BaseURL)
	if cfg.Authority.TokenPath != "" {
		authorityCfg.TokenPath = cfg.Authority.TokenPath
	}
	if cfg.Authority.AuthorizePath != "" {
		authorityCfg.AuthorizePath = cfg.Authority.AuthorizePath
	}
	if cfg.Authority.Timeout > 0 {
		authorityCfg.Timeout = cfg.Authority.Timeout
	}
	client := authority.NewClient(authorityCfg, authority.WithLogger(log.Logger))

	signaler, err := newSignaler(cfg.Feedback)
	if err != nil {
		return fmt.Errorf("failed to set up feedback outputs: %w", err)
	}

	techs, err := cfg.Technologies()
	if err != nil {
		return err
	}

	loop, err := gate.New(gate.Config{
		AssetID:              cfg.Device.AssetID,
		AcceptedTechnologies: techs,
		PollInterval:         cfg.Reader.PollInterval,
	}, reader, client, signaler, gate.WithLogger(log.Logger))
	if err != nil {
		return err
	}

	return loop.Run(ctx)
}
