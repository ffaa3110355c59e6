package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ApplicantRecord is the verify payload returned by the portal.
type ApplicantRecord struct {
	Personal    map[string]interface{} `json:"personal"`
	Questions   map[string]interface{} `json:"questions"`
	CoTravelers []CoTraveler           `json:"co_travelers"`
}

// IsLocked reads questions.form_complete, which the portal sends as '1', 1
// or true.
func (r *ApplicantRecord) IsLocked() bool {
	if r == nil || r.Questions == nil {
		return false
	}
	switch v := r.Questions["form_complete"].(type) {
	case string:
		return v == "1"
	case float64:
		return v == 1
	case int:
		return v == 1
	case bool:
		return v
	case json.Number:
		return v.String() == "1"
	default:
		return false
	}
}

type CoTraveler struct {
	ID            FlexString `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Gender        string     `json:"gender,omitempty"`
	DOB           string     `json:"dob,omitempty"`
	DOBRaw        string     `json:"dob_raw,omitempty"`
	Nationality   string     `json:"nationality,omitempty"`
	PassportNo    string     `json:"passport_no,omitempty"`
	ContactNumber string     `json:"contact_number,omitempty"`
}

func (c CoTraveler) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// FlexString accepts JSON strings and numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Stringify renders a scalar portal value the way the UI displays it.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
