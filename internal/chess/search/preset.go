package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const DefaultPreset = "medium"

// DifficultyPreset maps a user-facing level to a search depth in plies.
type DifficultyPreset struct {
	Name  string
	Depth int
}

var presetMu sync.RWMutex

var presets = map[string]DifficultyPreset{
	"easy":   {Name: "easy", Depth: 2},
	"medium": {Name: "medium", Depth: 3},
	"hard":   {Name: "hard", Depth: 4},
}

// GetPreset resolves a preset by name; empty selects DefaultPreset.
func GetPreset(name string) (DifficultyPreset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultPreset
	}
	presetMu.RLock()
	defer presetMu.RUnlock()
	p, ok := presets[key]
	if !ok {
		return DifficultyPreset{}, fmt.Errorf("unknown preset %q", name)
	}
	return p, nil
}

// RegisterPreset adds or replaces a preset.
func RegisterPreset(p DifficultyPreset) error {
	if err := ValidatePreset(p); err != nil {
		return err
	}
	presetMu.Lock()
	presets[strings.ToLower(p.Name)] = p
	presetMu.Unlock()
	return nil
}

func ValidatePreset(p DifficultyPreset) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("preset name is required")
	}
	if p.Depth < 1 || p.Depth > 6 {
		return fmt.Errorf("preset %s depth %d out of range [1,6]", p.Name, p.Depth)
	}
	return nil
}

// PresetNames lists registered presets ordered by depth.
func PresetNames() []string {
	presetMu.RLock()
	list := make([]DifficultyPreset, 0, len(presets))
	for _, p := range presets {
		list = append(list, p)
	}
	presetMu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].Depth != list[j].Depth {
			return list[i].Depth < list[j].Depth
		}
		return list[i].Name < list[j].Name
	})
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	return names
}
