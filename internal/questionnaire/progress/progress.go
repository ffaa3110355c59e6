// Package progress computes the share of required fields the applicant has
// filled.
package progress

import (
	"strings"

	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/catalog"
	"visa-locker/internal/questionnaire/condition"
)

// DefaultSyncThreshold is the percentage from which progress is reported to
// the portal.
const DefaultSyncThreshold = 35

// Report is one progress computation.
type Report struct {
	Percentage int      `json:"percentage"`
	Filled     int      `json:"filled"`
	Total      int      `json:"total"`
	Required   []string `json:"required"`
	Missing    []string `json:"missing,omitempty"`
	Locked     bool     `json:"locked"`
}

// Calculator derives the required set from the applicable questions.
type Calculator struct {
	deriver   *catalog.Deriver
	evaluator *condition.Evaluator
}

func NewCalculator(deriver *catalog.Deriver, evaluator *condition.Evaluator) *Calculator {
	if deriver == nil {
		deriver = catalog.NewDeriver(nil)
	}
	if evaluator == nil {
		evaluator = condition.New()
	}
	return &Calculator{deriver: deriver, evaluator: evaluator}
}

// Percentage is Compute(store).Percentage.
func (c *Calculator) Percentage(store *answers.Store) int {
	return c.Compute(store).Percentage
}

// Compute recounts the required set against the current answers. A locked
// record always reports 100.
func (c *Calculator) Compute(store *answers.Store) Report {
	snap := store.Snapshot()
	cat := c.deriver.Derive(snap.Personal)
	required := c.RequiredFields(cat, snap.Questions, snap.Personal)

	r := Report{Total: len(required), Required: required, Locked: snap.Locked}
	for _, id := range required {
		if filled(cat, snap, id) {
			r.Filled++
		} else {
			r.Missing = append(r.Missing, id)
		}
	}

	switch {
	case snap.Locked:
		r.Percentage = 100
	case r.Total > 0:
		// round half up
		r.Percentage = (200*r.Filled + r.Total) / (2 * r.Total)
	}
	return r
}

// RequiredFields is the ordered, de-duplicated set of field ids that count
// towards progress.
func (c *Calculator) RequiredFields(cat *catalog.Catalog, qa answers.QuestionAnswers, p answers.PersonalInfo) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	addFields := func(fields []catalog.Field) {
		for _, f := range fields {
			if f.Mandatory {
				add(f.ID)
			}
		}
	}

	for _, id := range catalog.MandatoryPersonalFields {
		add(id)
	}

	for _, q := range cat.Questions() {
		if !q.Mandatory || !c.evaluator.Applies(q, qa, p) {
			continue
		}
		if q.HasFields() {
			addFields(q.Fields)
		} else {
			add(q.Field)
		}
	}

	addFields(catalog.SponsorFields(qa.String("travel_covered_by"), cat.Layout()))

	visaType := p.Get("visa_type")
	if catalog.StayFor(visaType) != catalog.StayTourism || qa.String("has_stay_booking") == catalog.Yes {
		addFields(catalog.AccommodationFields(visaType, cat.Layout()))
	}
	return out
}

func filled(cat *catalog.Catalog, snap answers.Snapshot, id string) bool {
	if cat.IsFileField(id) {
		return len(answers.NormalizeFiles(snap.Questions[id])) > 0
	}
	if strings.TrimSpace(snap.Personal[id]) != "" {
		return true
	}
	return strings.TrimSpace(snap.Questions.String(id)) != ""
}

// ShouldSync reports whether pct has reached the sync threshold.
func ShouldSync(pct, threshold int) bool {
	return pct >= threshold
}
