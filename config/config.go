// Package config loads the decision core configuration from YAML or JSON
// files and applies environment overrides.
package config

import (
	"fmt"

	"github.com/nstehr/pitch/pitch-core/behavior"
	"github.com/nstehr/pitch/pitch-core/model"
	"github.com/nstehr/pitch/pitch-core/radio"
	"github.com/nstehr/pitch/pitch-core/referee"
)

// Config is the complete file configuration.
type Config struct {
	PlayerNumber model.PlayerNumber    `json:"playerNumber" yaml:"player_number"`
	Behavior     behavior.Config       `json:"behavior" yaml:"behavior"`
	Referee      referee.Config        `json:"referee" yaml:"referee"`
	Radio        radio.Config          `json:"radio" yaml:"radio"`
	Field        model.FieldDimensions `json:"field" yaml:"field"`
}

// Default returns a configuration that runs as player 1 on a standard field.
func Default() Config {
	return Config{
		PlayerNumber: 1,
		Behavior:     behavior.DefaultConfig(),
		Referee:      referee.DefaultConfig(),
		Radio:        radio.DefaultConfig(),
		Field:        model.StandardField(),
	}
}

// Validate checks every section, normalizing values where the section
// allows it.
func (c *Config) Validate() error {
	if err := c.PlayerNumber.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if !c.Field.Valid() {
		return fmt.Errorf("%w: field dimensions must be positive and fit the field", ErrValidationFailed)
	}
	if err := c.Behavior.Validate(); err != nil {
		return fmt.Errorf("%w: behavior: %w", ErrValidationFailed, err)
	}
	if err := c.Referee.Validate(); err != nil {
		return fmt.Errorf("%w: referee: %w", ErrValidationFailed, err)
	}
	return nil
}
