package seed

import (
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/huddle/internal/domain"
)

// ErrEmptySeed is returned when a seed file yields no usable sport.
var ErrEmptySeed = errors.New("no valid sports found in seed")

// Map converts a seed file into sports. Entries without a name are skipped,
// the first of several same-named entries wins, and every sport starts visible.
func Map(config Config) ([]domain.Sport, error) {
	sports := make([]domain.Sport, 0, len(config.Sports))
	seen := make(map[string]struct{}, len(config.Sports))

	for _, e := range config.Sports {
		sport := domain.Sport{Name: e.Name, Color: e.Color, Icon: e.Icon}.Normalize()
		if sport.Validate() != nil {
			continue
		}
		if _, dup := seen[sport.Name]; dup {
			continue
		}
		seen[sport.Name] = struct{}{}
		sports = append(sports, sport.WithDefaults())
	}

	if len(sports) == 0 {
		return nil, ErrEmptySeed
	}
	return sports, nil
}

// LoadFile reads path and maps it in one step.
func LoadFile(path string) ([]domain.Sport, error) {
	config, err := NewLoader(path).Load()
	if err != nil {
		return nil, err
	}
	sports, err := Map(config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sports, nil
}
