package model

import (
	"strings"
	"time"
)

// NewModelWindow is the age under which a model counts as newly released.
const NewModelWindow = 30 * 24 * time.Hour

// Model is the canonical, source-independent representation of one AI
// model's metadata. Known fields are typed; anything a source reports
// beyond them lands in Extra and stays reachable via dot-path lookup.
type Model struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Provider            string   `json:"provider"`
	ContextWindow       int      `json:"context_window"`
	MaxOutputTokens     int      `json:"max_output_tokens"`
	InputCost           float64  `json:"input_cost"`
	OutputCost          float64  `json:"output_cost"`
	CacheReadCost       float64  `json:"cache_read_cost"`
	CacheWriteCost      float64  `json:"cache_write_cost"`
	Modalities          []string `json:"modalities"`
	Capabilities        []string `json:"capabilities"`
	ReleaseDate         string   `json:"release_date"`
	LastUpdated         string   `json:"last_updated"`
	Knowledge           string   `json:"knowledge"`
	OpenWeights         bool     `json:"open_weights"`
	SupportsTemperature bool     `json:"supports_temperature"`
	SupportsAttachments bool     `json:"supports_attachments"`
	IsNew               bool     `json:"is_new"`

	Extra map[string]any `json:"extra,omitempty"`
}

// ReleasedWithinWindow reports whether an ISO date string falls inside
// the new-model window relative to now. Malformed or empty dates are
// never "new".
func ReleasedWithinWindow(releaseDate string, now time.Time) bool {
	if releaseDate == "" {
		return false
	}
	parsed, err := time.Parse("2006-01-02", releaseDate)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, releaseDate)
		if err != nil {
			return false
		}
	}
	age := now.Sub(parsed)
	return age >= 0 && age <= NewModelWindow
}

// Field resolves a dot-separated path against the model. Known fields
// are served from the typed record; unknown paths traverse Extra.
// The second return is false when the path does not resolve.
func (m Model) Field(path string) (any, bool) {
	segments := strings.Split(path, ".")
	if len(segments) == 0 || segments[0] == "" {
		return nil, false
	}

	if len(segments) == 1 {
		if value, ok := m.knownField(segments[0]); ok {
			return value, true
		}
	}

	return traverse(m.Extra, segments)
}

func (m Model) knownField(name string) (any, bool) {
	switch name {
	case "id":
		return m.ID, true
	case "name":
		return m.Name, true
	case "provider":
		return m.Provider, true
	case "contextWindow", "context_window":
		return m.ContextWindow, true
	case "maxOutputTokens", "max_output_tokens":
		return m.MaxOutputTokens, true
	case "inputCost", "input_cost":
		return m.InputCost, true
	case "outputCost", "output_cost":
		return m.OutputCost, true
	case "cacheReadCost", "cache_read_cost":
		return m.CacheReadCost, true
	case "cacheWriteCost", "cache_write_cost":
		return m.CacheWriteCost, true
	case "modalities":
		return m.Modalities, true
	case "capabilities":
		return m.Capabilities, true
	case "releaseDate", "release_date":
		return m.ReleaseDate, true
	case "lastUpdated", "last_updated":
		return m.LastUpdated, true
	case "knowledge":
		return m.Knowledge, true
	case "openWeights", "open_weights":
		return m.OpenWeights, true
	case "supportsTemperature", "supports_temperature":
		return m.SupportsTemperature, true
	case "supportsAttachments", "supports_attachments":
		return m.SupportsAttachments, true
	case "isNew", "is_new":
		return m.IsNew, true
	}
	return nil, false
}

func traverse(extra map[string]any, segments []string) (any, bool) {
	if extra == nil {
		return nil, false
	}
	var current any = extra
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
