package answers

import (
	"encoding/json"
	"strings"
)

// NormalizeFiles turns any stored representation of a file field into an
// ordered list of names. Accepted: []string, []interface{}, a JSON array
// string, a comma-separated string or a single bare name.
func NormalizeFiles(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return cleanNames(t)
	case []interface{}:
		names := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return cleanNames(names)
	case string:
		return parseFileString(t)
	default:
		return nil
	}
}

func parseFileString(s string) []string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var decoded []interface{}
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return NormalizeFiles(decoded)
		}
	}
	if strings.Contains(trimmed, ",") {
		return cleanNames(strings.Split(trimmed, ","))
	}
	return []string{trimmed}
}

func cleanNames(names []string) []string {
	var out []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// IsFileField reports whether a field id names an upload list.
func IsFileField(id string) bool {
	return strings.Contains(id, "_path") || strings.Contains(id, "_image")
}
