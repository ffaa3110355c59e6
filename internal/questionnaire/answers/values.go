package answers

import (
	"strings"

	"visa-locker/internal/models"
)

// PersonalInfo is the applicant's personal table, string valued.
type PersonalInfo map[string]string

// QuestionAnswers holds question values: strings, file lists or scalars.
type QuestionAnswers map[string]interface{}

func (p PersonalInfo) Get(key string) string {
	return p[key]
}

// Lower returns the trimmed, lowercased value of key.
func (p PersonalInfo) Lower(key string) string {
	return strings.ToLower(strings.TrimSpace(p[key]))
}

// String renders the value at key as display text. Lists are comma-joined.
func (q QuestionAnswers) String(key string) string {
	switch v := q[key].(type) {
	case []string:
		return strings.Join(v, ", ")
	case []interface{}:
		return strings.Join(NormalizeFiles(v), ", ")
	default:
		return models.Stringify(v)
	}
}

func (q QuestionAnswers) Has(key string) bool {
	_, ok := q[key]
	return ok
}

func (p PersonalInfo) clone() PersonalInfo {
	out := make(PersonalInfo, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (q QuestionAnswers) clone() QuestionAnswers {
	out := make(QuestionAnswers, len(q))
	for k, v := range q {
		if list, ok := v.([]string); ok {
			v = append([]string(nil), list...)
		}
		out[k] = v
	}
	return out
}
