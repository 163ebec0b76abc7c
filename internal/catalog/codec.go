package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/huddle/internal/domain"
)

// encode serializes the whole collection. nil encodes as [] so the blob is
// always a JSON array.
func encode(sports []domain.Sport) (string, error) {
	if sports == nil {
		sports = []domain.Sport{}
	}
	data, err := json.Marshal(sports)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sports: %w", err)
	}
	return string(data), nil
}

// decode parses a persisted blob. A JSON null decodes to an empty collection.
func decode(raw string) ([]domain.Sport, error) {
	var sports []domain.Sport
	if err := json.Unmarshal([]byte(raw), &sports); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if sports == nil {
		sports = []domain.Sport{}
	}
	return sports, nil
}
