package completion

import (
	"strings"

	"visa-locker/internal/common/validation"
	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/catalog"
)

// CheckPersonalInfo gates leaving the personal details step.
func CheckPersonalInfo(store *answers.Store) Result {
	var r Result
	for _, id := range catalog.MandatoryPersonalFields {
		if strings.TrimSpace(store.PersonalValue(id)) == "" {
			r.fail(id, CodeMissingRequired, MsgMissingRequired)
		}
	}
	if email := strings.TrimSpace(store.PersonalValue("email")); email != "" {
		if res := validation.ValidateEmail(email); !res.Valid {
			r.fail("email", CodeInvalidEmail, res.Message)
		}
	}
	return r.done()
}
