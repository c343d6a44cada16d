package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pymove/internal/config"
	"github.com/Sumatoshi-tech/pymove/internal/move"
	"github.com/Sumatoshi-tech/pymove/internal/project"
	"github.com/Sumatoshi-tech/pymove/internal/rewrite"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:   "defaults pass",
			mutate: func(*config.Config) {},
		},
		{
			name:    "unknown alias policy",
			mutate:  func(c *config.Config) { c.Move.AliasPolicy = "implicit" },
			wantErr: config.ErrInvalidAliasPolicy,
		},
		{
			name:    "blank marker",
			mutate:  func(c *config.Config) { c.Move.UnusedMarkers = []string{""} },
			wantErr: config.ErrEmptyMarker,
		},
		{
			name:    "blank exclude pattern",
			mutate:  func(c *config.Config) { c.Move.Exclude = []string{"*.py", ""} },
			wantErr: config.ErrEmptyExclude,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Config{
				Root: ".",
				Move: config.MoveConfig{AliasPolicy: config.PolicyAuto},
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want rewrite.AliasPolicy
	}{
		{config.PolicyAuto, rewrite.PolicyAuto},
		{config.PolicyFrom, rewrite.PolicyFrom},
		{config.PolicyNone, rewrite.PolicyNone},
	}

	for _, tt := range tests {
		cfg := config.Config{Move: config.MoveConfig{AliasPolicy: tt.name}}
		assert.Equal(t, tt.want, cfg.Policy(), tt.name)
	}
}

func TestApplyToRequest(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Move: config.MoveConfig{
			AliasPolicy:   config.PolicyFrom,
			Automove:      true,
			UnusedMarkers: []string{"@Keep"},
		},
	}

	var req move.Request

	cfg.ApplyToRequest(&req)

	assert.Equal(t, rewrite.PolicyFrom, req.Policy)
	assert.True(t, req.Automove)
	assert.Equal(t, []string{"@Keep"}, req.UnusedMarkers)
}

func TestApplyToTree(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Move: config.MoveConfig{Exclude: []string{"*_test.py"}},
	}

	tree := project.NewTree(t.TempDir())
	cfg.ApplyToTree(tree)

	assert.Equal(t, []string{"*_test.py"}, tree.Exclude)
}
