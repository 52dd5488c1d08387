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

// Package config loads the endpoint's YAML configuration file and applies
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	openlatch "github.com/OpenLatchProject/go-openlatch"
)

// Config is the full endpoint configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Authority AuthorityConfig `yaml:"authority"`
	Reader    ReaderConfig    `yaml:"reader"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
	Log       LogConfig       `yaml:"log"`
}

// DeviceConfig identifies this endpoint to the authority.
type DeviceConfig struct {
	AssetID string `yaml:"asset_id"`
}

// AuthorityConfig points at the decision service.
type AuthorityConfig struct {
	BaseURL       string        `yaml:"base_url"`
	TokenPath     string        `yaml:"token_path"`
	AuthorizePath string        `yaml:"authorize_path"`
	Timeout       time.Duration `yaml:"timeout"`
}

// ReaderConfig selects and tunes the card reader transport.
type ReaderConfig struct {
	// Transport is "uart" or "i2c".
	Transport string `yaml:"transport"`
	// Port is the serial device path for the uart transport.
	Port string `yaml:"port"`
	// Bus is the bus name or number for the i2c transport. Empty selects
	// the platform's first bus.
	Bus string `yaml:"bus"`
	// Timeout bounds a single reader command round-trip.
	Timeout time.Duration `yaml:"timeout"`
	// PollInterval is the pause between idle poll cycles.
	PollInterval time.Duration `yaml:"poll_interval"`
	// AcceptedTechnologies restricts which card classes are authorized.
	// Empty means the MIFARE Classic family.
	AcceptedTechnologies []string `yaml:"accepted_technologies"`
}

// FeedbackConfig names the output pins and the latch motion profile.
type FeedbackConfig struct {
	GrantPin string `yaml:"grant_pin"`
	DenyPin  string `yaml:"deny_pin"`
	LatchPin string `yaml:"latch_pin"`
	// Positions in degrees; zero values fall back to the stock profile.
	OpenPosition   int `yaml:"open_position"`
	ClosedPosition int `yaml:"closed_position"`
	RestPosition   int `yaml:"rest_position"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the stock configuration for a Raspberry Pi style build.
func Default() *Config {
	return &Config{
		Authority: AuthorityConfig{
			TokenPath:     "/api/token",
			AuthorizePath: "/api/authorize",
			Timeout:       5 * time.Second,
		},
		Reader: ReaderConfig{
			Transport:    "uart",
			Port:         "/dev/ttyAMA0",
			Timeout:      time.Second,
			PollInterval: 250 * time.Millisecond,
		},
		Feedback: FeedbackConfig{
			GrantPin: "GPIO17",
			DenyPin:  "GPIO27",
			LatchPin: "GPIO18",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the configuration file, layers it over the defaults, applies
// environment overrides, and validates the result.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides. These win over
// both defaults and the file, so a fleet can share one file and vary only
// the identity and the authority endpoint.
func (c *Config) applyEnvOverrides() {
	if assetID := os.Getenv("OPENLATCH_ASSET_ID"); assetID != "" {
		c.Device.AssetID = assetID
	}
	if baseURL := os.Getenv("OPENLATCH_AUTHORITY_URL"); baseURL != "" {
		c.Authority.BaseURL = baseURL
	}
	if port := os.Getenv("OPENLATCH_READER_PORT"); port != "" {
		c.Reader.Port = port
	}
	if level := os.Getenv("OPENLATCH_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// Validate checks that the configuration can run a device.
func (c *Config) Validate() error {
	if c.Device.AssetID == "" {
		return fmt.Errorf("device.asset_id is required")
	}
	if c.Authority.BaseURL == "" {
		return fmt.Errorf("authority.base_url is required")
	}

	switch c.Reader.Transport {
	case "uart":
		if c.Reader.Port == "" {
			return fmt.Errorf("reader.port is required for the uart transport")
		}
	case "i2c":
		// An empty bus selects the platform default.
	default:
		return fmt.Errorf("unknown reader.transport %q (want uart or i2c)", c.Reader.Transport)
	}

	if _, err := c.Technologies(); err != nil {
		return err
	}
	return nil
}

// Technologies resolves the accepted technology names to reader constants.
func (c *Config) Technologies() ([]openlatch.Technology, error) {
	if len(c.Reader.AcceptedTechnologies) == 0 {
		return nil, nil
	}
	known := map[string]openlatch.Technology{
		string(openlatch.TechnologyMifareMini): openlatch.TechnologyMifareMini,
		string(openlatch.TechnologyMifare1K):   openlatch.TechnologyMifare1K,
		string(openlatch.TechnologyMifare4K):   openlatch.TechnologyMifare4K,
		string(openlatch.TechnologyUltralight): openlatch.TechnologyUltralight,
		string(openlatch.TechnologyISO14443_4): openlatch.TechnologyISO14443_4,
	}
	techs := make([]openlatch.Technology, 0, len(c.Reader.AcceptedTechnologies))
	for _, name := range c.Reader.AcceptedTechnologies {
		tech, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown technology %q in reader.accepted_technologies", name)
		}
		techs = append(techs, tech)
	}
	return techs, nil
}
