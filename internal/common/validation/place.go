package validation

import "strings"

const MsgPlaceName = "No spaces at start, no double spaces, no periods or commas"

// ValidatePlaceName rejects empty values, a leading space, double spaces and
// any period or comma.
func ValidatePlaceName(value string) bool {
	if value == "" {
		return false
	}
	if strings.HasPrefix(value, " ") || strings.Contains(value, "  ") {
		return false
	}
	return !strings.ContainsAny(value, ".,")
}
