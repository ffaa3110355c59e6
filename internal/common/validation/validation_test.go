package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		valid   bool
		message string
	}{
		{"simple", "a@b.com", true, ""},
		{"trimmed", "  john.doe@example.co.uk ", true, ""},
		{"empty", "   ", false, MsgEmailRequired},
		{"empty local", "@b.com", false, MsgEmailShape},
		{"no tld", "a@b", false, MsgEmailShape},
		{"bad characters", "jo!n@b.com", false, MsgEmailCharacters},
		{"one letter tld", "a@b.c", false, MsgEmailCharacters},
		{"consecutive dots", "a..b@c.com", false, MsgEmailConsecutiveDots},
		{"too long", strings.Repeat("a", 60) + "@" + strings.Repeat("b", 190) + ".com", false, MsgEmailTooLong},
		{"local too long", strings.Repeat("a", 65) + "@b.com", false, MsgEmailLocalTooLong},
		{"local leading dot", ".a@b.com", false, MsgEmailLocalDot},
		{"local trailing dot", "a.@b.com", false, MsgEmailLocalDot},
		{"domain leading hyphen", "a@-b.com", false, MsgEmailDomainHyphen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateEmail(tt.email)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.message, got.Message)
		})
	}
}

func TestValidatePlaceName(t *testing.T) {
	assert.True(t, ValidatePlaceName("New Delhi"))
	assert.False(t, ValidatePlaceName(""))
	assert.False(t, ValidatePlaceName(" Delhi"))
	assert.False(t, ValidatePlaceName("New  Delhi"))
	assert.False(t, ValidatePlaceName("St. Louis"))
	assert.False(t, ValidatePlaceName("Paris, France"))
}

func TestSchemaValidate(t *testing.T) {
	s := MustSchema(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"status"},
		"properties": map[string]interface{}{
			"status": map[string]interface{}{"type": "string", "enum": []interface{}{"success", "error"}},
		},
	})

	res, err := s.Validate(map[string]interface{}{"status": "success"})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "valid", res.String())

	res, err = s.Validate(map[string]interface{}{"status": "maybe"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "status", res.Errors[0].Field)
}
