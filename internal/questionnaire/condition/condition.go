// Package condition evaluates the named applicability predicates attached to
// catalog questions.
package condition

import (
	"strings"

	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/catalog"
)

// Predicate decides applicability from the current answers. Predicates must
// be pure.
type Predicate func(qa answers.QuestionAnswers, p answers.PersonalInfo) bool

// Evaluator resolves condition names to predicates.
type Evaluator struct {
	predicates map[string]Predicate
}

// New returns an evaluator with every catalog condition registered.
func New() *Evaluator {
	e := &Evaluator{predicates: make(map[string]Predicate)}
	e.Register(catalog.CondEmployee, occupationIs(catalog.OccupationEmployee))
	e.Register(catalog.CondSelfEmployed, occupationIs(catalog.OccupationSelfEmployed))
	e.Register(catalog.CondStudent, occupationIs(catalog.OccupationStudent))
	e.Register(catalog.CondRetired, occupationIs(catalog.OccupationRetired))
	e.Register(catalog.CondUnemployed, occupationIs(catalog.OccupationUnemployed))
	e.Register(catalog.CondTouristVisa, func(_ answers.QuestionAnswers, p answers.PersonalInfo) bool {
		return IsTourist(p)
	})
	e.Register(catalog.CondAccommodation, func(qa answers.QuestionAnswers, p answers.PersonalInfo) bool {
		if IsTourist(p) {
			return qa.String("has_stay_booking") == catalog.Yes
		}
		return true
	})
	return e
}

// Register adds or replaces a predicate.
func (e *Evaluator) Register(name string, pred Predicate) {
	e.predicates[name] = pred
}

// Registered reports whether name resolves to a predicate.
func (e *Evaluator) Registered(name string) bool {
	_, ok := e.predicates[name]
	return ok
}

// Applies reports whether q is part of the flow for the given answers. Empty
// conditions always apply; unknown names never do.
func (e *Evaluator) Applies(q catalog.Question, qa answers.QuestionAnswers, p answers.PersonalInfo) bool {
	if q.Condition == "" {
		return true
	}
	pred, ok := e.predicates[q.Condition]
	if !ok {
		return false
	}
	return pred(qa, p)
}

// ApplicableIDs lists the applicable question ids in catalog order.
func (e *Evaluator) ApplicableIDs(c *catalog.Catalog, qa answers.QuestionAnswers, p answers.PersonalInfo) []string {
	ids := make([]string, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		q := c.At(i)
		if e.Applies(q, qa, p) {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

// IsTourist reports whether the declared visa type is a tourist visa.
func IsTourist(p answers.PersonalInfo) bool {
	return strings.Contains(p.Lower("visa_type"), "tourist")
}

func occupationIs(want string) Predicate {
	return func(qa answers.QuestionAnswers, _ answers.PersonalInfo) bool {
		return qa.String("occupation_status") == want
	}
}
