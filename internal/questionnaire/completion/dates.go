package completion

import (
	"fmt"
	"strings"
	"time"

	"visa-locker/internal/questionnaire/answers"
)

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// TripClass grades a trip length.
type TripClass string

const (
	TripAdvisory TripClass = "advisory"
	TripOptimal  TripClass = "optimal"
	TripLong     TripClass = "long"
	TripTooLong  TripClass = "too-long"
	TripInvalid  TripClass = "invalid"
)

const (
	MaxTripDays = 30

	MsgReturnBeforeDeparture = "Return date must be after departure date"
	MsgTripTooLong           = "Maximum trip duration is 30 days"
)

// TripDuration is the inclusive length of a trip and its grade.
type TripDuration struct {
	Days    int       `json:"days"`
	Class   TripClass `json:"class"`
	Message string    `json:"message,omitempty"`
}

// Valid reports whether the trip can be submitted.
func (t TripDuration) Valid() bool {
	return t.Class != TripInvalid && t.Class != TripTooLong
}

// ClassifyTrip counts both the departure and the return day.
func ClassifyTrip(from, to time.Time) TripDuration {
	if !DateOnly(to).After(DateOnly(from)) {
		return TripDuration{Class: TripInvalid, Message: MsgReturnBeforeDeparture}
	}
	days := daysBetween(from, to) + 1
	switch {
	case days > MaxTripDays:
		return TripDuration{Days: days, Class: TripTooLong, Message: MsgTripTooLong}
	case days >= 15:
		return TripDuration{Days: days, Class: TripLong}
	case days >= 6:
		return TripDuration{Days: days, Class: TripAdvisory}
	case days >= 2:
		return TripDuration{Days: days, Class: TripOptimal}
	default:
		return TripDuration{Days: days, Class: TripAdvisory}
	}
}

const (
	MsgEvisaExpiring     = "Please renew your UK E-visa or Contact Visa Support Team Soon. Your eVisa should be valid for at least 3 months after your planned return date."
	MsgShareCodeExpiring = "Please get a new share code because the share code is expiring. Your share code should be valid for at least 2 months from today."
)

// ExpiryCheck is the outcome of a document validity rule.
type ExpiryCheck struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// CheckEvisaExpiry requires the eVisa to outlive the return by 3 calendar
// months.
func CheckEvisaExpiry(expiry, returnDate time.Time) ExpiryCheck {
	if DateOnly(expiry).Before(DateOnly(returnDate).AddDate(0, 3, 0)) {
		return ExpiryCheck{Message: MsgEvisaExpiring}
	}
	return ExpiryCheck{Valid: true}
}

// CheckShareCodeExpiry requires the share code to be valid 2 calendar months
// from today.
func CheckShareCodeExpiry(expiry, today time.Time) ExpiryCheck {
	if DateOnly(expiry).Before(DateOnly(today).AddDate(0, 2, 0)) {
		return ExpiryCheck{Message: MsgShareCodeExpiring}
	}
	return ExpiryCheck{Valid: true}
}

// Warning codes.
const (
	WarnDepartureTooFar  = "DEPARTURE_TOO_FAR"
	WarnDepartureTooSoon = "DEPARTURE_TOO_SOON"
	WarnDepartureInPast  = "DEPARTURE_IN_PAST"
	WarnEvisaExpiring    = "EVISA_EXPIRING"
	WarnShareCodeExpiry  = "SHARE_CODE_EXPIRING"
)

// MinDaysBeforeDeparture is the processing window below which a notice is shown.
const MinDaysBeforeDeparture = 25

// Warning is an advisory that never blocks submission.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warnings collects the advisories for the stored answers as of today.
func Warnings(qa answers.QuestionAnswers, today time.Time) []Warning {
	var out []Warning
	today = DateOnly(today)

	if departure, ok := ParseDate(qa.String("travel_date_from")); ok {
		days := daysBetween(today, departure)
		switch {
		case departure.After(today.AddDate(0, 6, 0)):
			out = append(out, Warning{
				Code:    WarnDepartureTooFar,
				Message: "Please choose a travel date within 6 months duration. Your selected departure date is more than 6 months from today.",
			})
		case days >= 0 && days < MinDaysBeforeDeparture:
			out = append(out, Warning{
				Code:    WarnDepartureTooSoon,
				Message: fmt.Sprintf("The visa processing time is approximately 20-30 days after the appointment. Please change your travel date accordingly. Your departure is only %d %s away.", days, plural(days, "day")),
			})
		case days < 0:
			out = append(out, Warning{
				Code:    WarnDepartureInPast,
				Message: "Your departure date is in the past. Please select a future date.",
			})
		}
	}

	expiry, okExpiry := ParseDate(qa.String("evisa_expiry_date"))
	ret, okReturn := ParseDate(qa.String("travel_date_to"))
	if okExpiry && okReturn {
		if c := CheckEvisaExpiry(expiry, ret); !c.Valid {
			out = append(out, Warning{Code: WarnEvisaExpiring, Message: c.Message})
		}
	}

	if share, ok := ParseDate(qa.String("share_code_expiry_date")); ok {
		if c := CheckShareCodeExpiry(share, today); !c.Valid {
			out = append(out, Warning{Code: WarnShareCodeExpiry, Message: c.Message})
		}
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
