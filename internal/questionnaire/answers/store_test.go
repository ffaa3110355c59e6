package answers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-locker/internal/models"
)

func TestNormalizeFiles_RoundTrip(t *testing.T) {
	want := []string{"a.pdf", "b c.png", "d.jpg"}
	encoded, err := json.Marshal(want)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   interface{}
	}{
		{"native list", []string{"a.pdf", "b c.png", "d.jpg"}},
		{"decoded json list", []interface{}{"a.pdf", "b c.png", "d.jpg"}},
		{"json array string", string(encoded)},
		{"comma separated", "a.pdf, b c.png ,d.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFiles(tt.in)
			assert.Equal(t, want, got)
			// re-normalizing the normalized list is stable
			assert.Equal(t, want, NormalizeFiles(got))
		})
	}
}

func TestNormalizeFiles_EdgeCases(t *testing.T) {
	assert.Empty(t, NormalizeFiles(nil))
	assert.Empty(t, NormalizeFiles(""))
	assert.Empty(t, NormalizeFiles("  "))
	assert.Empty(t, NormalizeFiles(42.0))
	assert.Equal(t, []string{"single.pdf"}, NormalizeFiles("single.pdf"))
	assert.Equal(t, []string{"[broken", "x.pdf"}, NormalizeFiles("[broken, x.pdf"))
	assert.Equal(t, []string{"[notjson"}, NormalizeFiles("[notjson"))
	assert.Equal(t, []string{"a"}, NormalizeFiles([]interface{}{"a", 3, ""}))
}

func TestToPersisted(t *testing.T) {
	in := map[string]interface{}{
		"inviting_company_name": "Acme GmbH",
		"inviting_company_zip":  "10115",
		"stay_type":             "Business",
	}
	out := ToPersisted(in)

	assert.Equal(t, "Acme GmbH", out["company_name"])
	assert.Equal(t, "10115", out["company_zip"])
	assert.Equal(t, "Acme GmbH", out["inviting_company_name"])
	assert.Equal(t, "Business", out["stay_type"])
	// input untouched
	_, leaked := in["company_name"]
	assert.False(t, leaked)

	k, ok := PersistedKey("inviting_company_email")
	assert.True(t, ok)
	assert.Equal(t, "company_email", k)
	_, ok = PersistedKey("company_name")
	assert.False(t, ok)
}

func TestFromRecord(t *testing.T) {
	rec := &models.ApplicantRecord{
		Personal:  map[string]interface{}{"first_name": "Ana", "zip_code": float64(10115), "city": nil},
		Questions: map[string]interface{}{"form_complete": "0", "bookings_path": `["x.pdf"]`},
		CoTravelers: []models.CoTraveler{
			{ID: "7", FirstName: "Li"},
		},
	}
	s := FromRecord(rec)

	assert.False(t, s.IsLocked())
	assert.Equal(t, "10115", s.PersonalValue("zip_code"))
	assert.Equal(t, "", s.PersonalValue("city"))
	assert.Equal(t, []string{"x.pdf"}, s.Files("bookings_path"))
	assert.Len(t, s.CoTravelers(), 1)
	assert.Equal(t, -1, s.Index())
}

func TestLockedStoreRejectsMutations(t *testing.T) {
	s := NewStore(PersonalInfo{"email": "a@b.com"}, QuestionAnswers{"marital_status": "Single", "visa_image": []string{"one.png"}})
	s.Lock()
	before := s.Snapshot()

	assert.False(t, s.SetPersonal("email", "c@d.com"))
	assert.False(t, s.SetAnswers(map[string]interface{}{"marital_status": "Married"}))
	assert.False(t, s.ReplaceFiles("visa_image", []string{"two.png"}))
	assert.False(t, s.RemoveFile("visa_image", "one.png"))

	after := s.Snapshot()
	assert.Equal(t, before, after)

	// index bookkeeping still lands
	s.SetIndex(4)
	assert.Equal(t, 4, s.Index())
	s.SetAnswers(map[string]interface{}{IndexKey: 6})
	assert.Equal(t, 6, s.Index())
	assert.Equal(t, "1", s.Answer(CompleteKey))
}

func TestFileMutations(t *testing.T) {
	s := NewStore(nil, QuestionAnswers{"evisa_document_path": "a.pdf,b.pdf"})

	assert.True(t, s.RemoveFile("evisa_document_path", "a.pdf"))
	assert.Equal(t, []string{"b.pdf"}, s.Files("evisa_document_path"))

	assert.True(t, s.ReplaceFiles("evisa_document_path", []string{"c.pdf", " ", "d.pdf"}))
	assert.Equal(t, []string{"c.pdf", "d.pdf"}, s.Files("evisa_document_path"))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore(PersonalInfo{"city": "Berlin"}, QuestionAnswers{"files_path": []string{"a"}})
	snap := s.Snapshot()
	snap.Personal["city"] = "Paris"
	snap.Questions["files_path"].([]string)[0] = "z"

	assert.Equal(t, "Berlin", s.PersonalValue("city"))
	assert.Equal(t, []string{"a"}, s.Files("files_path"))
}

func TestValueAndIsFileField(t *testing.T) {
	s := NewStore(PersonalInfo{"email": " a@b.com "}, QuestionAnswers{"occupation_title": "  "})
	assert.Equal(t, "a@b.com", s.Value("email"))
	assert.Equal(t, "", s.Value("occupation_title"))

	assert.True(t, IsFileField("booking_documents_path"))
	assert.True(t, IsFileField("schengen_visa_image"))
	assert.False(t, IsFileField("share_code"))
}
