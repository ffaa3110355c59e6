package catalog

// Condition names referenced by the catalog. The condition package registers
// a predicate for each.
const (
	CondEmployee      = "occupation.employee"
	CondSelfEmployed  = "occupation.self_employed"
	CondStudent       = "occupation.student"
	CondRetired       = "occupation.retired"
	CondUnemployed    = "occupation.unemployed"
	CondTouristVisa   = "visa.tourist"
	CondAccommodation = "accommodation.required"
)

// Occupation options of the occupation_status radio.
const (
	OccupationEmployee     = "Employee"
	OccupationSelfEmployed = "Self-Employed / Freelancer"
	OccupationStudent      = "Student"
	OccupationRetired      = "Retired"
	OccupationUnemployed   = "Unemployed / Homemaker / Volunteer / Intern"
)

const (
	Yes = "Yes"
	No  = "No"
)

// Question ids referenced outside the catalog.
const (
	QuestionTravelSponsor = "travel_sponsor"
	QuestionTravelDates   = "travel_dates"
	QuestionAccommodation = "accommodation_details"
	QuestionEvisa         = "evisa_details"
	QuestionShareCode     = "share_code_details"
	QuestionBookings      = "bookings"
)

func buildQuestions(layout AddressLayout, destinations []DestinationGroup) []Question {
	yesNo := []string{Yes, No}

	return []Question{
		{
			ID: "marital_status", Text: "What is the marital status?", Type: TypeRadio,
			Field: "marital_status", Options: []string{"Single", "Married", "Divorced", "Widowed"},
			Mandatory: true, Category: CategoryPersonalProfile,
			Note: "This information helps complete the profile for the application.",
		},
		{
			ID: "birth_place", Text: "What is the place and country of birth?", Type: TypeGroup,
			Mandatory: true, Category: CategoryPersonalProfile,
			Fields: []Field{
				{ID: "place_of_birth", Label: "Place of Birth *", Placeholder: "e.g., Kottayam Kerala", Input: InputText, Mandatory: true, Validate: RulePlaceName},
				{ID: "country_of_birth", Label: "Country of Birth *", Placeholder: "Select country", Input: InputSelect, Options: Countries, Mandatory: true},
			},
			Note: "This must match passport details exactly.",
		},
		{
			ID: QuestionTravelSponsor, Text: "Who will cover the costs of the trip?", Type: TypeSponsor,
			Field: "travel_covered_by", Options: SponsorOptions, Mandatory: true, Category: CategoryFinancial,
			Note: "Please select the primary source of funding for the trip.",
		},
		{
			ID: "occupation_status", Text: "What is the current occupation?", Type: TypeRadio,
			Field: "occupation_status", Mandatory: true, Category: CategoryEmployment,
			Options: []string{OccupationEmployee, OccupationSelfEmployed, OccupationStudent, OccupationRetired, OccupationUnemployed},
			Note:    "This helps us understand ties to home country.",
		},
		{
			ID: "employee_details", Text: "Please provide employment details.", Type: TypeGroup,
			Mandatory: true, Condition: CondEmployee, Category: CategoryEmployment,
			Fields: concat(
				[]Field{
					{ID: "occupation_title", Label: "Job Title *", Placeholder: "e.g., Software Engineer", Input: InputText, Mandatory: true},
					{ID: "company_name", Label: "Company Name *", Placeholder: "e.g., ABC Corporation", Input: InputText, Mandatory: true},
				},
				AddressFields("company", layout),
				[]Field{
					{ID: "company_phone", Label: "Company Phone *", Placeholder: "e.g., +44 20 1234 5678", Input: InputTel, Mandatory: true},
					{ID: "company_email", Label: "Company Email *", Placeholder: "e.g., contact@company.com", Input: InputEmail, Mandatory: true},
				},
			),
			Note: "This information is used to verify employment status.",
		},
		{
			ID: "self_employed_details", Text: "Please provide your business details.", Type: TypeGroup,
			Mandatory: true, Condition: CondSelfEmployed, Category: CategoryEmployment,
			Fields: concat(
				[]Field{{ID: "company_name", Label: "Business Name *", Placeholder: "e.g., ABC Consulting", Input: InputText, Mandatory: true}},
				AddressFields("company", layout),
				[]Field{{ID: "company_phone", Label: "Business Phone / Email", Placeholder: "Contact information", Input: InputText}},
			),
			Note: "Details about your business help establish your financial ties.",
		},
		{
			ID: "student_details", Text: "Please provide your school/university details.", Type: TypeGroup,
			Mandatory: true, Condition: CondStudent, Category: CategoryEmployment,
			Fields: concat(
				[]Field{{ID: "company_name", Label: "School / University Name *", Placeholder: "e.g., University of Oxford", Input: InputText, Mandatory: true}},
				AddressFields("company", layout),
				[]Field{{ID: "company_phone", Label: "School Contact Information", Placeholder: "Phone or email", Input: InputText}},
			),
			Note: "This helps confirm your status as a student.",
		},
		{
			ID: "retired_details", Text: "Please confirm your retired status.", Type: TypeText,
			Field: "occupation_title", Placeholder: "e.g., Retired *",
			Mandatory: true, Condition: CondRetired, Category: CategoryEmployment,
			Note: "Confirming your status helps in understanding your financial support.",
		},
		{
			ID: "unemployed_details", Text: "Please confirm your current status.", Type: TypeText,
			Field: "occupation_title", Placeholder: "e.g., Homemaker *",
			Mandatory: true, Condition: CondUnemployed, Category: CategoryEmployment,
			Note: "Please specify your current primary role.",
		},
		{
			ID: "credit_card", Text: "Do you have a credit card?", Type: TypeRadio,
			Field: "has_credit_card", Options: yesNo, Mandatory: true, Category: CategoryFinancial,
			Note: "You don’t need a credit card to get a Schengen visa. If you don’t have one, you can show bank statements, a sponsorship letter, or proof of prepaid travel and accommodation instead.",
		},
		{
			ID: "fingerprints", Text: "Have fingerprints been collected for a previous Schengen visa?", Type: TypeRadioUpload,
			Field: "fingerprints_taken", Options: yesNo, Mandatory: true, Category: CategoryTravelHistory,
			Note: "If yes, VIS data may be reused, simplifying the process.",
			Upload: &Upload{
				Field: "schengen_visa_image", InputName: "visa_image[]",
				Label: "Please upload a clear picture of that visa.",
				Note:  "Upload one or more files (PNG, JPG, PDF).",
			},
		},
		{
			ID: QuestionTravelDates, Text: "What are the planned travel dates?", Type: TypeGroup,
			Mandatory: true, Category: CategoryTravelPlans,
			Fields: []Field{
				{ID: "travel_date_from", Label: "Planned Departure: *", Input: InputDate, Mandatory: true},
				{ID: "travel_date_to", Label: "Planned Return: *", Input: InputDate, Mandatory: true},
			},
			Note: "Tip: A travel date at least 30 days after the appointment and a short trip of 2-3 days can improve approval chances.",
		},
		{
			ID: "travel_dates_confirm", Text: "Please confirm your travel dates.", Type: TypeConfirmDates,
			Mandatory: true, Category: CategoryTravelPlans,
			Note: "Please double-check the dates you have entered.",
		},
		{
			ID: "destination", Text: "What will be the primary destination city?", Type: TypeGroupedSelect,
			Field: "primary_destination", Destinations: destinations, Mandatory: true, Category: CategoryTravelPlans,
			Note: "Select the main city where the most time will be spent.",
		},
		{
			ID: "has_stay_booking", Text: "Have you booked any hotels for this trip?", Type: TypeRadio,
			Field: "has_stay_booking", Options: yesNo, Mandatory: true, Condition: CondTouristVisa, Category: CategoryAccommodation,
			Note: "This applies if traveling as a tourist.",
		},
		{
			ID: QuestionAccommodation, Text: "Where will the stay be based on the purpose of visit?", Type: TypeAccommodation,
			Mandatory: true, Condition: CondAccommodation, Category: CategoryAccommodation,
			Note: "Provide the full details of the stay.",
		},
		{
			ID: QuestionEvisa, Text: "eVisa Information", Type: TypeEvisa,
			Mandatory: true, Category: CategoryImmigration,
			Note: "Please provide your eVisa details and upload documentation.",
			Fields: []Field{
				{ID: "evisa_issue_date", Label: "eVisa Issue Date", Input: InputDate},
				{ID: "evisa_expiry_date", Label: "eVisa Expiry Date", Input: InputDate},
				{ID: "evisa_no_date_settled", Label: "No date found - This is showing settled status", Input: InputCheckbox},
				{ID: "evisa_document_path", Label: "Upload eVisa (Screenshot or PDF) *", Input: InputFile, InputName: "evisa_document[]", Mandatory: true},
			},
		},
		{
			ID: QuestionShareCode, Text: "Most Recent Share Code (Immigration Status)", Type: TypeShareCode,
			Mandatory: true, Category: CategoryImmigration,
			Note: "Share code must be valid for at least 30 days from the appointment date.",
			Fields: []Field{
				{ID: "share_code", Label: "Enter Share Code", Input: InputText},
				{ID: "share_code_expiry_date", Label: "Share Code Expiry Date", Input: InputDate},
				{ID: "share_code_document_path", Label: "Upload Share Code Document (PDF format) *", Input: InputFile, InputName: "share_code_document[]", Mandatory: true, Accept: "application/pdf"},
			},
		},
		{
			ID: QuestionBookings, Text: "Have any of the following been booked? (Flight, Train, travel ticket)", Type: TypeRadioUpload,
			Field: "has_bookings", Options: yesNo, Mandatory: true, Category: CategoryBookings,
			Note: "This includes flights, trains, cruises, or any.",
			Upload: &Upload{
				Field: "booking_documents_path", InputName: "booking_document[]",
				Label: "Please upload Flight/Travel ticket document(s).",
				Note:  "Upload one or more files (PNG, JPG, PDF).",
			},
		},
	}
}

func concat(parts ...[]Field) []Field {
	var out []Field
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
