// Package catalog defines the ordered questionnaire and the sub-forms whose
// shape depends on earlier answers.
package catalog

import "strings"

// Type tags a question variant. Every consumer switches over the full set.
type Type string

const (
	TypeText          Type = "text"
	TypeGroup         Type = "group"
	TypeRadio         Type = "radio"
	TypeRadioUpload   Type = "radio-with-upload"
	TypeFile          Type = "file"
	TypeGroupedSelect Type = "grouped-select"
	TypeSponsor       Type = "sponsor-details"
	TypeConfirmDates  Type = "confirm-dates"
	TypeAccommodation Type = "accommodation"
	TypeEvisa         Type = "evisa-details"
	TypeShareCode     Type = "share-code-details"
)

// Types lists every question variant.
var Types = []Type{
	TypeText, TypeGroup, TypeRadio, TypeRadioUpload, TypeFile, TypeGroupedSelect,
	TypeSponsor, TypeConfirmDates, TypeAccommodation, TypeEvisa, TypeShareCode,
}

type Category string

const (
	CategoryPersonalProfile Category = "Personal Profile"
	CategoryFinancial       Category = "Financial & Sponsorship"
	CategoryEmployment      Category = "Employment / Occupation"
	CategoryTravelPlans     Category = "Travel Plans"
	CategoryAccommodation   Category = "Accommodation"
	CategoryImmigration     Category = "Immigration Status"
	CategoryTravelHistory   Category = "Travel History"
	CategoryBookings        Category = "Bookings"
)

// Categories is the fixed display order of the summary.
var Categories = []Category{
	CategoryPersonalProfile,
	CategoryFinancial,
	CategoryEmployment,
	CategoryTravelPlans,
	CategoryAccommodation,
	CategoryImmigration,
	CategoryTravelHistory,
	CategoryBookings,
}

// InputType is the control a field renders as.
type InputType string

const (
	InputText     InputType = "text"
	InputSelect   InputType = "select"
	InputTel      InputType = "tel"
	InputEmail    InputType = "email"
	InputDate     InputType = "date"
	InputFile     InputType = "file"
	InputCheckbox InputType = "checkbox-text"
	InputRadio    InputType = "radio"
)

// RulePlaceName rejects leading spaces, double spaces, periods and commas.
const RulePlaceName = "place_name"

// Table names where a field is persisted.
type Table string

const (
	TableQuestions Table = "questions"
	TablePersonal  Table = "personal"
)

// Field is one input of a composite question or sub-form.
type Field struct {
	ID          string
	Label       string
	Short       string // summary label
	Placeholder string
	Input       InputType
	Mandatory   bool
	Options     []string
	Validate    string
	InputName   string
	Accept      string
}

// SummaryLabel is the label shown on the review page.
func (f Field) SummaryLabel() string {
	if strings.HasSuffix(f.ID, "_zip") {
		return "Postal Code"
	}
	if f.Short != "" {
		return f.Short
	}
	label := strings.TrimSpace(strings.ReplaceAll(f.Label, " *", ""))
	label = strings.TrimSuffix(label, ":")
	if label == "" {
		return f.ID
	}
	return label
}

func (f Field) IsFile() bool {
	return f.Input == InputFile
}

// Upload links a radio question to the file list it unlocks.
type Upload struct {
	Field     string
	InputName string
	Label     string
	Note      string
	Accept    string
}

// DestinationGroup is one option group of a grouped select.
type DestinationGroup struct {
	Label  string
	Cities []string
}

// Question is an immutable step definition. Condition names a predicate in
// the condition registry; empty means always applicable.
type Question struct {
	ID           string
	Text         string
	Type         Type
	Category     Category
	Mandatory    bool
	Condition    string
	Field        string
	Placeholder  string
	Fields       []Field
	Options      []string
	Destinations []DestinationGroup
	Upload       *Upload
	Note         string
}

// HasFields reports whether the question declares child fields.
func (q Question) HasFields() bool {
	return len(q.Fields) > 0
}

// MandatoryFieldIDs returns the ids of mandatory child fields.
func (q Question) MandatoryFieldIDs() []string {
	var ids []string
	for _, f := range q.Fields {
		if f.Mandatory {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// UploadFieldID returns the single designated upload of an evisa or share
// code question.
func (q Question) UploadFieldID() string {
	for _, f := range q.Fields {
		if f.IsFile() && f.Mandatory {
			return f.ID
		}
	}
	return ""
}
