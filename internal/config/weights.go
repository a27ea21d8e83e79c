package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yaml3 "gopkg.in/yaml.v3"
)

// Weights drives the match formula. Resolution order: defaults, then the
// optional YAML file, then environment overrides.
type Weights struct {
	Critic              float64 `koanf:"critic_weight" yaml:"critic_weight"`
	Audience            float64 `koanf:"audience_weight" yaml:"audience_weight"`
	CommitmentCostScale float64 `koanf:"commitment_cost_scale" yaml:"commitment_cost_scale"`
	MatchCut            float64 `koanf:"min_match_cut" yaml:"min_match_cut"`
}

func defaultWeights() Weights {
	return Weights{
		Critic:              0.25,
		Audience:            0.75,
		CommitmentCostScale: 1.0,
		MatchCut:            58,
	}
}

// LoadWeights reads weights from path (may be empty or missing; both are
// fine) with env vars like AUDIENCE_WEIGHT taking precedence.
func LoadWeights(path string) (Weights, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultWeights(), "koanf"), nil); err != nil {
		return defaultWeights(), fmt.Errorf("load weight defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return defaultWeights(), fmt.Errorf("parse weights file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return defaultWeights(), fmt.Errorf("load weight env overrides: %w", err)
	}

	var w Weights
	if err := k.Unmarshal("", &w); err != nil {
		return defaultWeights(), fmt.Errorf("unmarshal weights: %w", err)
	}
	return w, nil
}

// WriteDefaultWeights seeds path with the default weights so the knobs are
// discoverable in the data dir. An existing file is left alone.
func WriteDefaultWeights(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	b, err := yaml3.Marshal(defaultWeights())
	if err != nil {
		return fmt.Errorf("marshal default weights: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
