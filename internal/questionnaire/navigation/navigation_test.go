package navigation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-locker/internal/common/logger"
	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/catalog"
	"visa-locker/internal/questionnaire/completion"
	"visa-locker/internal/questionnaire/condition"
)

type recordingPersister struct {
	mu       sync.Mutex
	answers  []map[string]interface{}
	personal map[string]string
}

func (r *recordingPersister) SaveAnswers(_ context.Context, updates map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, updates)
}

func (r *recordingPersister) SavePersonal(_ context.Context, field, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.personal == nil {
		r.personal = map[string]string{}
	}
	r.personal[field] = value
}

func (r *recordingPersister) last() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.answers) == 0 {
		return nil
	}
	return r.answers[len(r.answers)-1]
}

func newController(t *testing.T, store *answers.Store) (*Controller, *recordingPersister) {
	t.Helper()
	p := &recordingPersister{}
	c := NewController(store, catalog.NewDeriver(nil), condition.New(), completion.New(nil), p, logger.NewTestLogger(t))
	return c, p
}

func values(kv ...string) completion.Card {
	v := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		v[kv[i]] = kv[i+1]
	}
	return completion.Card{Values: v}
}

func TestResume(t *testing.T) {
	locked := answers.NewStore(nil, answers.QuestionAnswers{answers.IndexKey: "3"})
	locked.Lock()

	tests := []struct {
		name  string
		store *answers.Store
		step  Step
		index int
	}{
		{"fresh", answers.NewStore(nil, nil), StepPersonalInfo, 0},
		{"zero", answers.NewStore(nil, answers.QuestionAnswers{answers.IndexKey: "0"}), StepPersonalInfo, 0},
		{"garbage", answers.NewStore(nil, answers.QuestionAnswers{answers.IndexKey: "abc"}), StepPersonalInfo, 0},
		{"numeric value", answers.NewStore(nil, answers.QuestionAnswers{answers.IndexKey: float64(2)}), StepQuestion, 2},
		{"normalized forward", answers.NewStore(nil, answers.QuestionAnswers{answers.IndexKey: "4", "occupation_status": "Student"}), StepQuestion, 6},
		{"past the end", answers.NewStore(nil, answers.QuestionAnswers{answers.IndexKey: "19"}), StepSummary, 19},
		{"far past the end", answers.NewStore(nil, answers.QuestionAnswers{answers.IndexKey: "99"}), StepSummary, 19},
		{"locked", locked, StepSummary, 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newController(t, tt.store)
			s := c.Resume()
			assert.Equal(t, tt.step, s.Step)
			assert.Equal(t, tt.index, s.Index)
		})
	}
}

func TestForwardBlockedDoesNotMutate(t *testing.T) {
	store := answers.NewStore(nil, nil)
	c, p := newController(t, store)
	c.Start()

	out := c.Forward(context.Background(), values())
	assert.True(t, out.Blocked)
	assert.False(t, out.Moved)
	assert.True(t, out.Result.Has(completion.CodeNoSelection))
	assert.Equal(t, 0, out.State.Index)
	assert.Empty(t, p.answers)
	assert.Equal(t, -1, store.Index())
}

func TestForwardSavesAndAdvances(t *testing.T) {
	store := answers.NewStore(nil, nil)
	c, p := newController(t, store)
	require.Equal(t, "marital_status", c.Start().QuestionID)

	out := c.Forward(context.Background(), values("marital_status", "Single"))
	require.True(t, out.Moved)
	assert.Equal(t, 1, out.State.Index)
	assert.Equal(t, "birth_place", out.State.QuestionID)

	assert.Equal(t, "Single", store.Answer("marital_status"))
	assert.Equal(t, 1, store.Index())
	assert.Equal(t, map[string]interface{}{"marital_status": "Single", answers.IndexKey: "1"}, p.last())
}

func TestForwardThenBackIsIdempotent(t *testing.T) {
	store := answers.NewStore(nil, nil)
	c, _ := newController(t, store)
	state, ok := c.Jump(context.Background(), "occupation_status")
	require.True(t, ok)
	require.Equal(t, 3, state.Index)

	out := c.Forward(context.Background(), values("occupation_status", "Student"))
	require.True(t, out.Moved)
	assert.Equal(t, "student_details", out.State.QuestionID)
	assert.Equal(t, 4, store.Index())

	back := c.Back(context.Background())
	assert.Equal(t, 3, back.State.Index)
	assert.Equal(t, "occupation_status", back.State.QuestionID)
	assert.Equal(t, 3, store.Index())
}

func TestBackFromFirstQuestion(t *testing.T) {
	c, p := newController(t, answers.NewStore(nil, nil))
	c.Start()

	out := c.Back(context.Background())
	assert.Equal(t, StepPersonalInfo, out.State.Step)
	assert.Empty(t, p.answers)
}

func TestForwardPastLastQuestion(t *testing.T) {
	store := answers.NewStore(
		answers.PersonalInfo{"travel_country": "France"},
		answers.QuestionAnswers{"booking_documents_path": []string{"ticket.pdf"}},
	)
	c, p := newController(t, store)
	_, ok := c.Jump(context.Background(), catalog.QuestionBookings)
	require.True(t, ok)

	out := c.Forward(context.Background(), values("has_bookings", "Yes"))
	require.True(t, out.Moved)
	assert.Equal(t, StepSummary, out.State.Step)
	assert.Equal(t, 19, store.Index())
	assert.Equal(t, map[string]interface{}{answers.IndexKey: "19"}, p.last())

	back := c.Back(context.Background())
	assert.Equal(t, "bookings", back.State.QuestionID)
}

func TestLockedStoreKeepsAnswersButTracksIndex(t *testing.T) {
	store := answers.NewStore(nil, answers.QuestionAnswers{"marital_status": "Married"})
	c, p := newController(t, store)
	c.Start()
	store.Lock()
	before := store.Questions()

	out := c.Forward(context.Background(), values("marital_status", "Single"))
	require.True(t, out.Moved)
	assert.Equal(t, "Married", store.Answer("marital_status"))
	assert.Equal(t, map[string]interface{}{answers.IndexKey: "1"}, p.last())

	after := store.Questions()
	delete(after, answers.IndexKey)
	delete(before, answers.IndexKey)
	assert.Equal(t, before, after)
}

func TestJump(t *testing.T) {
	store := answers.NewStore(nil, nil)
	c, _ := newController(t, store)

	_, ok := c.Jump(context.Background(), "student_details")
	assert.False(t, ok)
	_, ok = c.Jump(context.Background(), "nope")
	assert.False(t, ok)

	s, ok := c.Jump(context.Background(), "destination")
	assert.True(t, ok)
	assert.Equal(t, 13, s.Index)
	q, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "primary_destination", q.Field)

	store.Lock()
	_, ok = c.Jump(context.Background(), "marital_status")
	assert.False(t, ok)
}

func TestWalkSkipsInapplicable(t *testing.T) {
	store := answers.NewStore(answers.PersonalInfo{"visa_type": "Tourist"}, answers.QuestionAnswers{
		"occupation_status": "Retired", "has_stay_booking": "No",
	})
	c, _ := newController(t, store)
	walk := c.Walk()

	assert.Contains(t, walk, "retired_details")
	assert.Contains(t, walk, "has_stay_booking")
	assert.NotContains(t, walk, "employee_details")
	assert.NotContains(t, walk, "accommodation_details")
	assert.Equal(t, "marital_status", walk[0])
	assert.Equal(t, "bookings", walk[len(walk)-1])
}

func TestCollect(t *testing.T) {
	c := catalog.Derive(answers.PersonalInfo{})
	q := func(id string) catalog.Question { return c.At(c.Index(id)) }

	evisa := Collect(q(catalog.QuestionEvisa), values("evisa_issue_date", "2024-01-01", "evisa_no_date_settled", "on"), nil)
	assert.Equal(t, "Yes", evisa.Questions["evisa_no_date_settled"])
	assert.Equal(t, "", evisa.Questions["evisa_expiry_date"])
	assert.NotContains(t, evisa.Questions, "evisa_document_path")

	stay := Collect(q(catalog.QuestionAccommodation), values("inviting_company_name", "Acme"), answers.PersonalInfo{"visa_type": "Business"})
	assert.Equal(t, catalog.StayBusiness, stay.Questions["stay_type"])
	assert.Equal(t, "Acme", stay.Questions["inviting_company_name"])

	sponsor := Collect(q(catalog.QuestionTravelSponsor), values("travel_covered_by", catalog.SponsorSelf, "sponsor_full_name", "stale"), nil)
	assert.Equal(t, map[string]interface{}{"travel_covered_by": catalog.SponsorSelf}, sponsor.Questions)

	confirm := Collect(q("travel_dates_confirm"), completion.Card{Confirmed: true}, nil)
	assert.Equal(t, "1", confirm.Questions[completion.ConfirmedKey])
}
