package catalog

// PersonalField is a field of the applicant's personal table.
type PersonalField struct {
	ID    string
	Label string
}

// EditablePersonalFields can be changed by the applicant.
var EditablePersonalFields = []PersonalField{
	{ID: "contact_number", Label: "Contact Number"},
	{ID: "email", Label: "Email"},
	{ID: "address_line_1", Label: "Address Line 1"},
	{ID: "address_line_2", Label: "Address Line 2"},
	{ID: "city", Label: "City"},
	{ID: "state_province", Label: "State / Province"},
	{ID: "zip_code", Label: "Postal Code"},
}

// MandatoryPersonalFields must be filled before the question flow starts.
var MandatoryPersonalFields = []string{"contact_number", "email", "address_line_1", "city", "state_province", "zip_code"}

// StaticPersonalFields come from the passport and are read-only.
var StaticPersonalFields = []PersonalField{
	{ID: "first_name", Label: "First Name"},
	{ID: "last_name", Label: "Last Name"},
	{ID: "dob", Label: "Date of Birth"},
	{ID: "nationality", Label: "Nationality"},
	{ID: "passport_no", Label: "Passport Number"},
	{ID: "passport_issue", Label: "Passport Issue Date"},
	{ID: "passport_expire", Label: "Passport Expiry Date"},
}

// IsEditablePersonal reports whether id is an applicant-editable field.
func IsEditablePersonal(id string) bool {
	for _, f := range EditablePersonalFields {
		if f.ID == id {
			return true
		}
	}
	return false
}

func IsMandatoryPersonal(id string) bool {
	for _, m := range MandatoryPersonalFields {
		if m == id {
			return true
		}
	}
	return false
}
