package files

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/de-tools/backcountry/pkg/models/domain"
)

// LoadMountains reads the mountain list, a JSON array of mountains.
func LoadMountains(path string) ([]domain.Mountain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mountain list: %w", err)
	}

	var mountains []domain.Mountain
	if err := json.Unmarshal(data, &mountains); err != nil {
		return nil, fmt.Errorf("parse mountain list %s: %w", path, err)
	}

	seen := make(map[string]bool, len(mountains))
	for i, m := range mountains {
		if m.MountainID == "" {
			return nil, fmt.Errorf("mountain #%d in %s has no mountain_id", i+1, path)
		}
		if seen[m.MountainID] {
			return nil, fmt.Errorf("duplicate mountain_id %q in %s", m.MountainID, path)
		}
		seen[m.MountainID] = true
		if mountains[i].Sources == nil {
			mountains[i].Sources = map[string]string{}
		}
	}
	return mountains, nil
}
