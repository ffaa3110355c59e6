package summary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-locker/internal/common/logger"
	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/catalog"
	"visa-locker/internal/questionnaire/completion"
	"visa-locker/internal/questionnaire/condition"
	"visa-locker/internal/questionnaire/navigation"
)

type discard struct{}

func (discard) SaveAnswers(context.Context, map[string]interface{}) {}
func (discard) SavePersonal(context.Context, string, string)        {}

func fixedClock() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }

func newProjector() *Projector {
	return NewProjector(nil, nil).WithClock(fixedClock)
}

func categories(v View) []catalog.Category {
	var out []catalog.Category
	for _, s := range v.Sections {
		out = append(out, s.Category)
	}
	return out
}

func TestProjectCategoryOrder(t *testing.T) {
	store := answers.NewStore(answers.PersonalInfo{"visa_type": "Business"}, answers.QuestionAnswers{
		"marital_status":    "Single",
		"occupation_status": "Employee",
	})
	v := newProjector().Project(store)

	assert.Equal(t, []catalog.Category{
		catalog.CategoryPersonalProfile,
		catalog.CategoryFinancial,
		catalog.CategoryEmployment,
		catalog.CategoryTravelPlans,
		catalog.CategoryAccommodation,
		catalog.CategoryImmigration,
		catalog.CategoryTravelHistory,
		catalog.CategoryBookings,
	}, categories(v))

	e, ok := v.Entry("marital_status")
	require.True(t, ok)
	assert.Equal(t, "What is the marital status?", e.Label)
	assert.Equal(t, "Single", e.Value)
	assert.Equal(t, catalog.InputRadio, e.Input)

	_, ok = v.Entry("inviting_company_name")
	assert.True(t, ok)
	_, ok = v.Entry("hotel_name")
	assert.False(t, ok)
}

func TestTouristWithoutBookingAndRetired(t *testing.T) {
	store := answers.NewStore(answers.PersonalInfo{"visa_type": "Tourist"}, answers.QuestionAnswers{"has_stay_booking": "No"})
	v := newProjector().Project(store)

	// has_stay_booking keeps the accommodation section alive
	assert.Contains(t, categories(v), catalog.CategoryAccommodation)
	_, ok := v.Entry("hotel_name")
	assert.False(t, ok)

	// retired answers have a text entry only
	store = answers.NewStore(nil, answers.QuestionAnswers{"occupation_status": "Retired"})
	v = newProjector().Project(store)
	e, ok := v.Entry("occupation_title")
	require.True(t, ok)
	assert.Equal(t, "retired_details", e.QuestionID)
}

func TestSponsorExpansion(t *testing.T) {
	store := answers.NewStore(answers.PersonalInfo{"travel_country": "Germany"}, answers.QuestionAnswers{
		"travel_covered_by": catalog.SponsorHost,
		"host_zip":          "10115",
	})
	v := newProjector().Project(store)

	zip, ok := v.Entry("host_zip")
	require.True(t, ok)
	assert.Equal(t, "Postal Code", zip.Label)
	assert.Equal(t, "10115", zip.Value)

	street, ok := v.Entry("host_address_2")
	require.True(t, ok)
	assert.Equal(t, "Street", street.Label)
	assert.True(t, street.Mandatory)

	_, ok = v.Entry("sponsor_full_name")
	assert.False(t, ok)
}

func TestUploadEntries(t *testing.T) {
	store := answers.NewStore(nil, answers.QuestionAnswers{
		"fingerprints_taken":     "Yes",
		"schengen_visa_image":    `["v1.png","v2.png"]`,
		"has_bookings":           "No",
		"booking_documents_path": []string{"old.pdf"},
		"evisa_document_path":    "e.pdf",
	})
	v := newProjector().Project(store)

	visa, ok := v.Entry("schengen_visa_image")
	require.True(t, ok)
	assert.Equal(t, []string{"v1.png", "v2.png"}, visa.Files)
	assert.Equal(t, catalog.InputFile, visa.Input)
	assert.False(t, visa.Mandatory)

	_, ok = v.Entry("booking_documents_path")
	assert.False(t, ok, "bookings answered No hides the upload")

	doc, ok := v.Entry("evisa_document_path")
	require.True(t, ok)
	assert.Equal(t, []string{"e.pdf"}, doc.Files)
}

func TestSettledHiddenWhenDatesSet(t *testing.T) {
	v := newProjector().Project(answers.NewStore(nil, answers.QuestionAnswers{"evisa_issue_date": "2024-01-01"}))
	e, ok := v.Entry("evisa_no_date_settled")
	require.True(t, ok)
	assert.False(t, e.Hidden)

	v = newProjector().Project(answers.NewStore(nil, answers.QuestionAnswers{
		"evisa_issue_date":  "2024-01-01",
		"evisa_expiry_date": "2027-01-01",
	}))
	e, _ = v.Entry("evisa_no_date_settled")
	assert.True(t, e.Hidden)

	expiry, _ := v.Entry("evisa_expiry_date")
	assert.Equal(t, "01/01/2027", expiry.Display)
}

func TestPersonalAndStatic(t *testing.T) {
	store := answers.NewStore(answers.PersonalInfo{"first_name": "Asha", "zip_code": "N1"}, nil)
	v := newProjector().Project(store)

	require.Len(t, v.Static, len(catalog.StaticPersonalFields))
	assert.Equal(t, "Asha", v.Static[0].Value)
	assert.True(t, v.Static[0].ReadOnly)

	var zip Entry
	for _, e := range v.Personal {
		if e.FieldID == "zip_code" {
			zip = e
		}
		if e.FieldID == "address_line_2" {
			assert.False(t, e.Mandatory)
		}
	}
	assert.Equal(t, "Postal Code", zip.Label)
	assert.True(t, zip.Mandatory)
}

func TestWarningsAndLock(t *testing.T) {
	store := answers.NewStore(nil, answers.QuestionAnswers{"travel_date_from": "2024-12-01"})
	store.Lock()
	v := newProjector().Project(store)

	assert.True(t, v.Locked)
	require.Len(t, v.Warnings, 1)
	assert.Equal(t, completion.WarnDepartureInPast, v.Warnings[0].Code)
}

func TestSummaryMatchesNavigationWalk(t *testing.T) {
	scenarios := []struct {
		name      string
		personal  answers.PersonalInfo
		questions answers.QuestionAnswers
	}{
		{"empty", nil, nil},
		{"employee tourist booked", answers.PersonalInfo{"visa_type": "Tourist Visa"}, answers.QuestionAnswers{"occupation_status": "Employee", "has_stay_booking": "Yes"}},
		{"student tourist unbooked", answers.PersonalInfo{"visa_type": "tourist"}, answers.QuestionAnswers{"occupation_status": "Student", "has_stay_booking": "No"}},
		{"retired family germany", answers.PersonalInfo{"visa_type": "Family Visit", "travel_country": "Germany"}, answers.QuestionAnswers{"occupation_status": "Retired"}},
		{"unemployed business", answers.PersonalInfo{"visa_type": "Business"}, answers.QuestionAnswers{"occupation_status": catalog.OccupationUnemployed}},
		{"self employed unknown visa", answers.PersonalInfo{"visa_type": "Transit"}, answers.QuestionAnswers{"occupation_status": catalog.OccupationSelfEmployed}},
	}
	deriver := catalog.NewDeriver(nil)
	evaluator := condition.New()
	projector := NewProjector(deriver, evaluator).WithClock(fixedClock)

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			store := answers.NewStore(sc.personal, sc.questions)
			ctrl := navigation.NewController(store, deriver, evaluator, completion.New(nil), discard{}, logger.NewNoOpLogger())

			assert.Equal(t, ctrl.Walk(), projector.Project(store).ApplicableIDs())
		})
	}
}

func TestEntryTables(t *testing.T) {
	store := answers.NewStore(answers.PersonalInfo{"visa_type": "Business", "city": "Leeds", "zip_code": "LS1"}, answers.QuestionAnswers{
		"occupation_status": "Employee",
		"company_city":      "York",
	})
	v := newProjector().Project(store)

	for _, s := range v.Sections {
		for _, e := range s.Entries {
			assert.Equal(t, catalog.TableQuestions, e.Table, e.FieldID)
		}
	}
	for _, e := range v.Personal {
		assert.Equal(t, catalog.TablePersonal, e.Table, e.FieldID)
	}

	e, ok := v.Entry("company_city")
	require.True(t, ok)
	assert.Equal(t, "York", e.Value)
}
