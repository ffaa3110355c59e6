package notifysubmission

import (
	"fmt"
	"html"
	"strings"

	"visa-locker/internal/locker"
	"visa-locker/internal/questionnaire/answers"
)

const confirmationSubject = "We have received your travel information"

func (in *Input) personal() answers.PersonalInfo {
	return answers.PersonalInfo{
		"first_name":     in.FirstName,
		"last_name":      in.LastName,
		"travel_country": in.Country,
		"visa_type":      in.VisaType,
		"visa_center":    in.Center,
	}
}

func (in *Input) headline() string {
	if h := strings.TrimSpace(in.Header); h != "" {
		return h
	}
	return locker.Header(in.personal())
}

func confirmationText(in *Input) string {
	return fmt.Sprintf("Dear %s,\n\n%s\n\nYour travel information has been submitted and locked. Our team will review your documents and contact you if anything else is needed.\n",
		locker.FullName(in.personal()), in.headline())
}

func confirmationHTML(in *Input) string {
	return fmt.Sprintf("<p>Dear %s,</p><p><strong>%s</strong></p><p>Your travel information has been submitted and locked. Our team will review your documents and contact you if anything else is needed.</p>",
		html.EscapeString(locker.FullName(in.personal())), html.EscapeString(in.headline()))
}

func confirmationSMS(in *Input) string {
	country := strings.TrimSpace(in.Country)
	if country == "" {
		return "Your visa application details have been submitted. We will be in touch."
	}
	return fmt.Sprintf("Your %s visa application details have been submitted. We will be in touch.", country)
}
