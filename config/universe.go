package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// UniverseGroup names a set of underlyings evaluated together.
type UniverseGroup struct {
	Name        string   `yaml:"name"`
	Underlyings []string `yaml:"underlyings"`
}

// Universe restricts which underlyings a run evaluates. An empty universe
// admits everything in the snapshot.
type Universe struct {
	Groups []UniverseGroup `yaml:"groups"`
}

// LoadUniverse loads a universe file from the given path.
func LoadUniverse(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file: %w", err)
	}
	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}
	for i, g := range u.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("universe group %d has no name", i)
		}
	}
	return &u, nil
}

// Symbols returns every underlying listed in the universe.
func (u *Universe) Symbols() []string {
	if u == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, g := range u.Groups {
		for _, s := range g.Underlyings {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
