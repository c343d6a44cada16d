// Package config loads pymove settings from file, environment, and
// defaults, and maps them onto a move request.
package config

import (
	"errors"
	"fmt"
)

// Alias policy names accepted in configuration.
const (
	PolicyAuto = "auto"
	PolicyFrom = "from"
	PolicyNone = "none"
)

// Config is the top-level configuration struct for pymove.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Root string     `mapstructure:"root"`
	Move MoveConfig `mapstructure:"move"`
}

// MoveConfig holds the knobs of a move run.
type MoveConfig struct {
	// AliasPolicy picks the spelling of inserted imports: auto, from,
	// or none.
	AliasPolicy string `mapstructure:"alias_policy"`
	// Automove relocates definitions along with references.
	Automove bool `mapstructure:"automove"`
	// Exclude lists glob patterns for files the project walk skips.
	Exclude []string `mapstructure:"exclude"`
	// UnusedMarkers lists comment markers that keep a dead import in
	// place.
	UnusedMarkers []string `mapstructure:"unused_markers"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidAliasPolicy indicates an unknown alias policy name.
	ErrInvalidAliasPolicy = errors.New("move.alias_policy must be auto, from, or none")
	// ErrEmptyMarker indicates a blank unused-import marker.
	ErrEmptyMarker = errors.New("move.unused_markers entries must be non-empty")
	// ErrEmptyExclude indicates a blank exclude pattern.
	ErrEmptyExclude = errors.New("move.exclude entries must be non-empty")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	switch c.Move.AliasPolicy {
	case PolicyAuto, PolicyFrom, PolicyNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAliasPolicy, c.Move.AliasPolicy)
	}

	for _, m := range c.Move.UnusedMarkers {
		if m == "" {
			return ErrEmptyMarker
		}
	}

	for _, pat := range c.Move.Exclude {
		if pat == "" {
			return ErrEmptyExclude
		}
	}

	return nil
}
