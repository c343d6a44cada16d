package config

import (
	"fmt"

	"github.com/Sumatoshi-tech/pymove/internal/move"
	"github.com/Sumatoshi-tech/pymove/internal/project"
	"github.com/Sumatoshi-tech/pymove/internal/rewrite"
)

// ParsePolicy maps an alias policy name to its rewrite value.
func ParsePolicy(name string) (rewrite.AliasPolicy, error) {
	switch name {
	case PolicyAuto:
		return rewrite.PolicyAuto, nil
	case PolicyFrom:
		return rewrite.PolicyFrom, nil
	case PolicyNone:
		return rewrite.PolicyNone, nil
	default:
		return rewrite.PolicyAuto, fmt.Errorf("%w: %q", ErrInvalidAliasPolicy, name)
	}
}

// Policy converts the configured alias policy name. Validate has
// already rejected anything else, so unknown names fall back to auto.
func (c *Config) Policy() rewrite.AliasPolicy {
	policy, err := ParsePolicy(c.Move.AliasPolicy)
	if err != nil {
		return rewrite.PolicyAuto
	}

	return policy
}

// ApplyToRequest seeds a move request with the configured defaults.
// Flag handling layers command-line overrides on top afterwards.
func (c *Config) ApplyToRequest(req *move.Request) {
	req.Policy = c.Policy()
	req.Automove = c.Move.Automove
	req.UnusedMarkers = c.Move.UnusedMarkers
}

// ApplyToTree installs the configured exclude patterns on the walk.
func (c *Config) ApplyToTree(tree *project.Tree) {
	tree.Exclude = c.Move.Exclude
}
