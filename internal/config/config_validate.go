// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package config

import (
	"fmt"

	"github.com/tomtom215/pagetracker/internal/logging"
	"github.com/tomtom215/pagetracker/internal/validation"
)

// Validate checks struct-tag rules first, then the rules that span fields.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateIdentity(); err != nil {
		return err
	}

	if err := c.validateIntake(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateIdentity() error {
	if c.Identity.Backend == "badger" && !c.Identity.InMemory && c.Identity.Path == "" {
		return fmt.Errorf("identity.path is required for the badger backend unless identity.in_memory is set")
	}
	return nil
}

func (c *Config) validateIntake() error {
	if c.Intake.Enabled && c.Intake.Listen == "" {
		return fmt.Errorf("intake.listen is required when intake.enabled is set")
	}
	if c.Intake.Enabled && c.Intake.RateLimit > 0 && c.Intake.RateWindow <= 0 {
		return fmt.Errorf("intake.rate_window must be positive when intake.rate_limit is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	return nil
}
