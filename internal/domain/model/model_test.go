package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFieldKnownPaths(t *testing.T) {
	m := Model{
		ID:            "gpt-4",
		Provider:      "openai",
		ContextWindow: 128000,
		InputCost:     2.5,
		OpenWeights:   false,
		Capabilities:  []string{"tools"},
	}

	tests := []struct {
		path string
		want any
	}{
		{"id", "gpt-4"},
		{"provider", "openai"},
		{"contextWindow", 128000},
		{"context_window", 128000},
		{"inputCost", 2.5},
		{"input_cost", 2.5},
		{"openWeights", false},
		{"capabilities", []string{"tools"}},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got, ok := m.Field(tc.path)
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFieldExtraTraversal(t *testing.T) {
	m := Model{
		ID: "llama-3",
		Extra: map[string]any{
			"downloads": 12345.0,
			"benchmarks": map[string]any{
				"mmlu": 0.79,
			},
		},
	}

	got, ok := m.Field("downloads")
	assert.True(t, ok)
	assert.Equal(t, 12345.0, got)

	got, ok = m.Field("benchmarks.mmlu")
	assert.True(t, ok)
	assert.Equal(t, 0.79, got)

	_, ok = m.Field("benchmarks.gsm8k")
	assert.False(t, ok)

	_, ok = m.Field("benchmarks.mmlu.deeper")
	assert.False(t, ok)
}

func TestFieldUnresolvedPaths(t *testing.T) {
	m := Model{ID: "gpt-4"}

	_, ok := m.Field("")
	assert.False(t, ok)

	_, ok = m.Field("nonexistent")
	assert.False(t, ok)

	// Dotted paths never resolve against typed fields.
	_, ok = m.Field("provider.name")
	assert.False(t, ok)
}

func TestReleasedWithinWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date string
		want bool
	}{
		{"recent", "2025-06-01", true},
		{"near boundary", now.AddDate(0, 0, -29).Format("2006-01-02"), true},
		{"old", "2024-01-01", false},
		{"future", "2025-07-01", false},
		{"rfc3339", "2025-06-10T08:00:00Z", true},
		{"empty", "", false},
		{"malformed", "June 1st", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReleasedWithinWindow(tc.date, now))
		})
	}
}
