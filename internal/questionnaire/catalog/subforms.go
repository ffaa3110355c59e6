package catalog

import (
	"strings"

	"visa-locker/internal/questionnaire/answers"
)

// AddressLayout selects the shape of address groups.
type AddressLayout int

const (
	LayoutStandard AddressLayout = iota
	// LayoutGermany asks for house number and street instead of two lines.
	LayoutGermany
)

func (l AddressLayout) String() string {
	if l == LayoutGermany {
		return "germany"
	}
	return "standard"
}

// LayoutFor derives the address layout from the destination country.
func LayoutFor(personal answers.PersonalInfo) AddressLayout {
	if personal.Lower("travel_country") == "germany" {
		return LayoutGermany
	}
	return LayoutStandard
}

// AddressFields builds the five address inputs for prefix.
func AddressFields(prefix string, layout AddressLayout) []Field {
	var lines []Field
	if layout == LayoutGermany {
		lines = []Field{
			{ID: prefix + "_address_1", Label: "House Number *", Short: "House Number", Placeholder: "e.g., 42", Input: InputText, Mandatory: true},
			{ID: prefix + "_address_2", Label: "Street *", Short: "Street", Placeholder: "e.g., Hauptstraße", Input: InputText, Mandatory: true},
		}
	} else {
		lines = []Field{
			{ID: prefix + "_address_1", Label: "Address Line 1 *", Short: "Address Line 1", Placeholder: "Street address", Input: InputText, Mandatory: true},
			{ID: prefix + "_address_2", Label: "Address Line 2", Short: "Address Line 2", Placeholder: "Apartment, suite, etc. (optional)", Input: InputText},
		}
	}
	return append(lines,
		Field{ID: prefix + "_city", Label: "City *", Short: "City", Placeholder: "City name", Input: InputText, Mandatory: true},
		Field{ID: prefix + "_state", Label: "State/Province *", Short: "State/Province", Placeholder: "State or province", Input: InputText, Mandatory: true},
		Field{ID: prefix + "_zip", Label: "Postal Code *", Short: "Postal Code", Placeholder: "ZIP or postal code", Input: InputText, Mandatory: true},
	)
}

// Sponsor categories of the travel_covered_by radio.
const (
	SponsorSelf   = "Myself"
	SponsorFamily = "Family Member / Family Member in the EU"
	SponsorHost   = "Host / Company / Organisation"
)

var SponsorOptions = []string{SponsorSelf, SponsorFamily, SponsorHost}

var SponsorRelations = []string{"Spouse / Civil Partner", "Parent(s)", "Sibling"}

// SponsorFields returns the expanded sub-form for a sponsor category. Myself
// and unknown selections have none.
func SponsorFields(selection string, layout AddressLayout) []Field {
	switch selection {
	case SponsorFamily:
		fields := []Field{
			{ID: "sponsor_relation", Label: "Select Relation *", Short: "Relation", Input: InputSelect, Options: SponsorRelations, Mandatory: true},
			{ID: "sponsor_full_name", Label: "Full Name *", Short: "Full Name", Placeholder: "e.g., John Smith", Input: InputText, Mandatory: true},
		}
		fields = append(fields, AddressFields("sponsor", layout)...)
		return append(fields,
			Field{ID: "sponsor_email", Label: "Email *", Short: "Email", Placeholder: "e.g., john@example.com", Input: InputEmail, Mandatory: true},
			Field{ID: "sponsor_phone", Label: "Phone *", Short: "Phone", Placeholder: "e.g., +44 20 1234 5678", Input: InputTel, Mandatory: true},
		)
	case SponsorHost:
		fields := []Field{
			{ID: "host_name", Label: "Host / Inviting Person Name *", Short: "Host Name", Placeholder: "e.g., Jane Doe", Input: InputText, Mandatory: true},
			{ID: "host_phone", Label: "Host Contact Number *", Short: "Host Phone", Placeholder: "e.g., +49 30 1234567", Input: InputTel, Mandatory: true},
			{ID: "host_company_name", Label: "Company / Organisation Name *", Short: "Company Name", Placeholder: "e.g., ABC Company Ltd", Input: InputText, Mandatory: true},
		}
		fields = append(fields, AddressFields("host", layout)...)
		return append(fields,
			Field{ID: "host_email", Label: "Email *", Short: "Email", Placeholder: "e.g., contact@company.com", Input: InputEmail, Mandatory: true},
			Field{ID: "host_company_phone", Label: "Phone *", Short: "Company Phone", Placeholder: "e.g., +49 30 7654321", Input: InputTel, Mandatory: true},
		)
	default:
		return nil
	}
}

// Stay purposes derived from the declared visa type.
const (
	StayTourism  = "Tourism"
	StayFamily   = "Family/Friend Visit"
	StayBusiness = "Business"
)

// StayFor classifies a visa type. Tourist wins over family, which wins over
// business. Unknown types return "".
func StayFor(visaType string) string {
	v := strings.ToLower(visaType)
	switch {
	case strings.Contains(v, "tourist"):
		return StayTourism
	case strings.Contains(v, "family") || strings.Contains(v, "friend"):
		return StayFamily
	case strings.Contains(v, "business"):
		return StayBusiness
	default:
		return ""
	}
}

// AccommodationFields returns the active accommodation sub-section for a
// visa type.
func AccommodationFields(visaType string, layout AddressLayout) []Field {
	switch StayFor(visaType) {
	case StayTourism:
		fields := []Field{
			{ID: "hotel_name", Label: "Hotel Name *", Short: "Hotel Name", Placeholder: "e.g., Grand Hotel", Input: InputText, Mandatory: true},
		}
		fields = append(fields, AddressFields("hotel", layout)...)
		return append(fields,
			Field{ID: "hotel_contact_number", Label: "Hotel Contact Number *", Short: "Hotel Contact", Input: InputText, Mandatory: true},
			Field{ID: "hotel_booking_reference", Label: "Booking Reference (Optional)", Short: "Booking Reference", Placeholder: "e.g., BK123456", Input: InputText},
		)
	case StayFamily:
		fields := []Field{
			{ID: "inviting_person_first_name", Label: "Inviting Person’s First Name *", Short: "Inviting Person First Name", Input: InputText, Mandatory: true},
			{ID: "inviting_person_surname", Label: "Inviting Person’s Surname *", Short: "Inviting Person Surname", Input: InputText, Mandatory: true},
			{ID: "inviting_person_email", Label: "Inviting Person’s Email ID *", Short: "Inviting Person Email", Input: InputEmail, Mandatory: true},
			{ID: "inviting_person_phone_code", Label: "Code *", Short: "Inviting Person Phone Code", Input: InputText, Mandatory: true},
			{ID: "inviting_person_phone", Label: "Inviting Person’s Phone *", Short: "Inviting Person Phone", Input: InputTel, Mandatory: true},
			{ID: "inviting_person_relationship", Label: "Relationship to Applicant *", Short: "Relationship", Input: InputText, Mandatory: true},
		}
		return append(fields, AddressFields("inviting_person", layout)...)
	case StayBusiness:
		fields := []Field{
			{ID: "inviting_company_name", Label: "Company Name *", Short: "Company Name", Input: InputText, Mandatory: true},
			{ID: "inviting_company_contact_person", Label: "Contact Person *", Short: "Contact Person", Input: InputText, Mandatory: true},
		}
		fields = append(fields, AddressFields("inviting_company", layout)...)
		return append(fields,
			Field{ID: "inviting_company_phone", Label: "Company Phone *", Short: "Company Phone", Input: InputTel, Mandatory: true},
		)
	default:
		return nil
	}
}
