// Package completion decides whether a question card may be left, and
// carries the date and document rules shown as advisories.
package completion

import (
	"strings"

	"visa-locker/internal/common/validation"
	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/catalog"
)

// Code identifies why a card is incomplete.
type Code string

const (
	CodeMissingRequired       Code = "MISSING_REQUIRED"
	CodeUploadRequired        Code = "UPLOAD_REQUIRED"
	CodeBookingRequired       Code = "BOOKING_REQUIRED"
	CodeNotConfirmed          Code = "NOT_CONFIRMED"
	CodeNoSelection           Code = "NO_SELECTION"
	CodeInvalidEmail          Code = "INVALID_EMAIL"
	CodeInvalidPlaceName      Code = "INVALID_PLACE_NAME"
	CodeInvalidDate           Code = "INVALID_DATE"
	CodeReturnBeforeDeparture Code = "RETURN_BEFORE_DEPARTURE"
	CodeTripTooLong           Code = "TRIP_TOO_LONG"
	CodeInvalidOption         Code = "INVALID_OPTION"
)

const (
	MsgMissingRequired = "This field is required"
	MsgUploadRequired  = "Please upload at least one document"
	MsgBookingRequired = "Bookings are required for this destination"
	MsgNotConfirmed    = "Please confirm your travel dates"
	MsgNoSelection     = "Please select an option"
	MsgInvalidDate     = "Please enter a valid date"
	MsgInvalidOption   = "Please choose one of the listed options"
)

// ConfirmedKey records the confirm-dates checkbox.
const ConfirmedKey = "travel_dates_confirmed"

// DefaultExemptCountries may answer No to the bookings question.
var DefaultExemptCountries = map[string]bool{"germany": true, "switzerland": true}

// Failure is one reason a card cannot be left.
type Failure struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a completion check.
type Result struct {
	Complete bool      `json:"complete"`
	Failures []Failure `json:"failures,omitempty"`
}

// Has reports whether the result carries code.
func (r Result) Has(code Code) bool {
	for _, f := range r.Failures {
		if f.Code == code {
			return true
		}
	}
	return false
}

func (r *Result) fail(field string, code Code, message string) {
	for _, f := range r.Failures {
		if f.Field == field && f.Code == code {
			return
		}
	}
	r.Failures = append(r.Failures, Failure{Field: field, Code: code, Message: message})
}

func (r Result) done() Result {
	r.Complete = len(r.Failures) == 0
	return r
}

// Card is what the applicant has entered on the current question.
type Card struct {
	Values    map[string]string
	Confirmed bool
}

func (c Card) value(id string) string {
	return strings.TrimSpace(c.Values[id])
}

// CardFromStore builds the card a question would show from stored answers.
func CardFromStore(q catalog.Question, store *answers.Store) Card {
	personal := store.Personal()
	layout := catalog.LayoutFor(personal)
	values := make(map[string]string)

	add := func(id string) {
		if id == "" {
			return
		}
		if v := store.Answer(id); v != "" {
			values[id] = v
			return
		}
		if v := store.PersonalValue(id); v != "" {
			values[id] = v
		}
	}

	add(q.Field)
	for _, f := range q.Fields {
		add(f.ID)
	}
	switch q.Type {
	case catalog.TypeSponsor:
		for _, f := range catalog.SponsorFields(store.Answer(q.Field), layout) {
			add(f.ID)
		}
	case catalog.TypeAccommodation:
		for _, f := range catalog.AccommodationFields(personal.Get("visa_type"), layout) {
			add(f.ID)
		}
	}
	return Card{Values: values, Confirmed: store.Answer(ConfirmedKey) == "1"}
}

// Validator checks cards against the rules of their question type.
type Validator struct {
	exempt map[string]bool
}

// New returns a validator. A nil exempt set uses DefaultExemptCountries.
func New(exempt map[string]bool) *Validator {
	if exempt == nil {
		exempt = DefaultExemptCountries
	}
	return &Validator{exempt: exempt}
}

// BookingExempt reports whether country may skip the bookings upload.
func (v *Validator) BookingExempt(country string) bool {
	return v.exempt[strings.ToLower(strings.TrimSpace(country))]
}

// IsComplete is Check reduced to a boolean.
func (v *Validator) IsComplete(q catalog.Question, card Card, store *answers.Store) bool {
	return v.Check(q, card, store).Complete
}

// Check validates card for q. Files are read from store since uploads are
// recorded there as soon as they finish.
func (v *Validator) Check(q catalog.Question, card Card, store *answers.Store) Result {
	var r Result
	if !q.Mandatory {
		return r.done()
	}

	switch q.Type {
	case catalog.TypeText, catalog.TypeGroupedSelect:
		if card.value(q.Field) == "" {
			r.fail(q.Field, CodeMissingRequired, MsgMissingRequired)
		}
	case catalog.TypeRadio:
		if card.value(q.Field) == "" {
			r.fail(q.Field, CodeNoSelection, MsgNoSelection)
		}
	case catalog.TypeGroup:
		v.checkGroup(&r, q, card)
	case catalog.TypeRadioUpload:
		v.checkRadioUpload(&r, q, card, store)
	case catalog.TypeFile:
		if len(store.Files(q.Field)) == 0 {
			r.fail(q.Field, CodeUploadRequired, MsgUploadRequired)
		}
	case catalog.TypeSponsor:
		selection := card.value(q.Field)
		if selection == "" {
			r.fail(q.Field, CodeNoSelection, MsgNoSelection)
			break
		}
		layout := catalog.LayoutFor(store.Personal())
		requireAll(&r, card, catalog.SponsorFields(selection, layout))
	case catalog.TypeConfirmDates:
		if !card.Confirmed && card.value(ConfirmedKey) != "1" {
			r.fail(ConfirmedKey, CodeNotConfirmed, MsgNotConfirmed)
		}
	case catalog.TypeAccommodation:
		personal := store.Personal()
		requireAll(&r, card, catalog.AccommodationFields(personal.Get("visa_type"), catalog.LayoutFor(personal)))
	case catalog.TypeEvisa, catalog.TypeShareCode:
		field := q.UploadFieldID()
		if len(store.Files(field)) == 0 {
			r.fail(field, CodeUploadRequired, MsgUploadRequired)
		}
	}
	return r.done()
}

func requireAll(r *Result, card Card, fields []catalog.Field) {
	for _, f := range fields {
		if f.Mandatory && card.value(f.ID) == "" {
			r.fail(f.ID, CodeMissingRequired, MsgMissingRequired)
		}
	}
}

func (v *Validator) checkGroup(r *Result, q catalog.Question, card Card) {
	requireAll(r, card, q.Fields)

	// blank fields were reported as missing above, or are optional
	for _, f := range q.Fields {
		value := card.Values[f.ID]
		if strings.TrimSpace(value) == "" {
			continue
		}
		switch f.Input {
		case catalog.InputDate:
			if _, ok := ParseDate(value); !ok {
				r.fail(f.ID, CodeInvalidDate, MsgInvalidDate)
			}
		case catalog.InputEmail:
			if res := validation.ValidateEmail(value); !res.Valid {
				r.fail(f.ID, CodeInvalidEmail, res.Message)
			}
		}
		if f.Validate == catalog.RulePlaceName && !validation.ValidatePlaceName(value) {
			r.fail(f.ID, CodeInvalidPlaceName, validation.MsgPlaceName)
		}
	}

	if q.ID != catalog.QuestionTravelDates {
		return
	}
	from, okFrom := ParseDate(card.Values["travel_date_from"])
	to, okTo := ParseDate(card.Values["travel_date_to"])
	if !okFrom || !okTo {
		return
	}
	trip := ClassifyTrip(from, to)
	switch trip.Class {
	case TripInvalid:
		r.fail("travel_date_to", CodeReturnBeforeDeparture, trip.Message)
	case TripTooLong:
		r.fail("travel_date_to", CodeTripTooLong, trip.Message)
	}
}

func (v *Validator) checkRadioUpload(r *Result, q catalog.Question, card Card, store *answers.Store) {
	selection := card.value(q.Field)
	switch {
	case selection == "":
		r.fail(q.Field, CodeNoSelection, MsgNoSelection)
	case q.ID == catalog.QuestionBookings && selection == catalog.No:
		if !v.BookingExempt(store.PersonalValue("travel_country")) {
			r.fail(q.Field, CodeBookingRequired, MsgBookingRequired)
		}
	case selection == catalog.Yes && q.Upload != nil:
		if len(store.Files(q.Upload.Field)) == 0 {
			r.fail(q.Upload.Field, CodeUploadRequired, MsgUploadRequired)
		}
	}
}
