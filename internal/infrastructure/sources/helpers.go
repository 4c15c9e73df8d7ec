package sources

import (
	"strconv"
	"strings"
)

// Defensive field extraction: every getter type-checks before casting
// and falls back to a zero value on mismatch, so a malformed upstream
// record degrades instead of aborting a batch.

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return parsed
	}
	return 0
}

func asInt(v any) int {
	return int(asFloat(v))
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asStringSlice(v any) []string {
	raw := asSlice(v)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// firstString returns the first non-blank string among the given keys;
// used for snake_case/camelCase field variants.
func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(asString(m[key])); s != "" {
			return s
		}
	}
	return ""
}

func firstMap(m map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if sub := asMap(m[key]); sub != nil {
			return sub
		}
	}
	return nil
}

func firstFloat(m map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if _, ok := m[key]; ok {
			return asFloat(m[key])
		}
	}
	return 0
}

func firstBool(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := m[key]; ok {
			return asBool(m[key])
		}
	}
	return false
}

// providerOrUnknown guards against indexing garbage records under a
// real provider name: blank id and name force "Unknown".
func providerOrUnknown(id, name string) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	if s := strings.TrimSpace(id); s != "" {
		return s
	}
	return "Unknown"
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
