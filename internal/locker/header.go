package locker

import (
	"fmt"
	"strings"
	"time"

	"visa-locker/internal/questionnaire/answers"
)

const (
	defaultName    = "Valued Traveler"
	defaultCountry = "your destination"
	defaultVisa    = "visa"
	defaultCenter  = "the visa center"

	// NoPassword is shown for dependents without a usable date of birth.
	NoPassword = "N/A"
)

// Header is the applicant headline, e.g. "Ada Lovelace – Applied for a
// France tourist. Appointment scheduled in London.". Records without a
// first name get "VISA INFO".
func Header(p answers.PersonalInfo) string {
	first := strings.TrimSpace(p.Get("first_name"))
	if first == "" {
		return "VISA INFO"
	}
	return fmt.Sprintf("%s – Applied for %s %s %s. Appointment scheduled in %s.",
		FullName(p),
		article(orDefault(p.Get("travel_country"), defaultCountry)),
		orDefault(p.Get("travel_country"), defaultCountry),
		strings.ToLower(orDefault(p.Get("visa_type"), defaultVisa)),
		orDefault(p.Get("visa_center"), defaultCenter),
	)
}

func FullName(p answers.PersonalInfo) string {
	first := strings.TrimSpace(p.Get("first_name"))
	last := strings.TrimSpace(p.Get("last_name"))
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	default:
		return defaultName
	}
}

func article(word string) string {
	if word != "" && strings.ContainsRune("AEIOUaeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

var appointmentLayouts = []struct {
	layout  string
	hasTime bool
}{
	{"2006-01-02 15:04:05", true},
	{"02/01/2006 15:04:05", true},
	{"2006-01-02", false},
	{"02/01/2006", false},
}

// AppointmentDate renders the portal's doc_date for display, e.g.
// "Monday, 3 March 2025 at 09:30 am". Blank, zero and unparseable dates
// report false.
func AppointmentDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "0000-00-00") {
		return "", false
	}
	for _, l := range appointmentLayouts {
		t, err := time.Parse(l.layout, raw)
		if err != nil {
			continue
		}
		out := t.Format("Monday, 2 January 2006")
		if l.hasTime {
			out += " at " + t.Format("03:04 pm")
		}
		return out, true
	}
	return "", false
}

// DependentPassword formats a raw YYYY-MM-DD birth date as ddmmyyyy.
func DependentPassword(dobRaw string) string {
	dobRaw = strings.TrimSpace(dobRaw)
	if dobRaw == "" || strings.HasPrefix(dobRaw, "0000-00-00") {
		return NoPassword
	}
	if len(dobRaw) > 10 {
		dobRaw = dobRaw[:10]
	}
	t, err := time.Parse("2006-01-02", dobRaw)
	if err != nil {
		return NoPassword
	}
	return t.Format("02012006")
}
