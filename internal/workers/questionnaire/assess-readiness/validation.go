package assessreadiness

import "visa-locker/internal/common/validation"

var inputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"token"},
	"properties": map[string]interface{}{
		"token": map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 128},
	},
})
