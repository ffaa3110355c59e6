package notifysubmission

import "visa-locker/internal/common/validation"

var inputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"token"},
	"properties": map[string]interface{}{
		"token":     map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 128},
		"firstName": map[string]interface{}{"type": "string", "maxLength": 100},
		"lastName":  map[string]interface{}{"type": "string", "maxLength": 100},
		"email":     map[string]interface{}{"type": "string", "maxLength": 255},
		"phone":     map[string]interface{}{"type": "string", "maxLength": 32},
		"country":   map[string]interface{}{"type": "string"},
		"visaType":  map[string]interface{}{"type": "string"},
		"center":    map[string]interface{}{"type": "string"},
		"header":    map[string]interface{}{"type": "string"},
	},
})
