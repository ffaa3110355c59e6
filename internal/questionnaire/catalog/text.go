package catalog

import (
	"fmt"
	"strings"

	"visa-locker/internal/questionnaire/answers"
)

// NotSet is shown for empty dates.
const NotSet = "Not set"

// FormatDisplayDate renders YYYY-MM-DD as DD/MM/YYYY. Other shapes are
// returned unchanged.
func FormatDisplayDate(d string) string {
	d = strings.TrimSpace(d)
	if d == "" || d == "0000-00-00" {
		return NotSet
	}
	parts := strings.Split(d, "-")
	if len(parts) == 3 && len(parts[0]) == 4 {
		return parts[2] + "/" + parts[1] + "/" + parts[0]
	}
	return d
}

// BookingsText is the bookings prompt with destination and dates filled in.
func BookingsText(qa answers.QuestionAnswers) string {
	destination := strings.TrimSpace(qa.String("primary_destination"))
	if destination == "" {
		destination = "your primary destination"
	}
	return fmt.Sprintf(
		"Have any of the following been booked? (Flight, Train, travel ticket) to %s\nPlanned Departure Date: %s\nPlanned Return Date: %s",
		destination, bookingDate(qa.String("travel_date_from")), bookingDate(qa.String("travel_date_to")),
	)
}

func bookingDate(d string) string {
	if strings.TrimSpace(d) == "" {
		return "[Not Set]"
	}
	return FormatDisplayDate(d)
}
