// Package navigation moves the applicant through the applicable questions.
package navigation

import (
	"context"
	"strconv"
	"sync"

	"visa-locker/internal/common/logger"
	"visa-locker/internal/common/metrics"
	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/catalog"
	"visa-locker/internal/questionnaire/completion"
	"visa-locker/internal/questionnaire/condition"
)

type Step int

const (
	StepPersonalInfo Step = iota
	StepQuestion
	StepSummary
)

func (s Step) String() string {
	switch s {
	case StepQuestion:
		return "question"
	case StepSummary:
		return "summary"
	default:
		return "personal_info"
	}
}

// State is where the applicant is. Index points into the full question list.
type State struct {
	Step       Step   `json:"step"`
	Index      int    `json:"index"`
	QuestionID string `json:"questionId,omitempty"`
	Locked     bool   `json:"locked"`
}

// Outcome is the result of a transition. A blocked outcome carries the
// validation failures and leaves state untouched.
type Outcome struct {
	State   State
	Moved   bool
	Blocked bool
	Result  completion.Result
}

// Persister receives every mutation for saving. Implementations apply the
// persisted-key aliases and must not block on the network.
type Persister interface {
	SaveAnswers(ctx context.Context, updates map[string]interface{})
	SavePersonal(ctx context.Context, field, value string)
}

// Controller is the question-flow state machine over one applicant store.
type Controller struct {
	mu        sync.Mutex
	store     *answers.Store
	deriver   *catalog.Deriver
	evaluator *condition.Evaluator
	validator *completion.Validator
	persister Persister
	logger    logger.Logger

	step  Step
	index int
}

func NewController(
	store *answers.Store,
	deriver *catalog.Deriver,
	evaluator *condition.Evaluator,
	validator *completion.Validator,
	persister Persister,
	log logger.Logger,
) *Controller {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Controller{
		store:     store,
		deriver:   deriver,
		evaluator: evaluator,
		validator: validator,
		persister: persister,
		logger:    log.WithFields(map[string]interface{}{"component": "navigation"}),
	}
}

func (c *Controller) catalog() (*catalog.Catalog, answers.Snapshot) {
	snap := c.store.Snapshot()
	return c.deriver.Derive(snap.Personal), snap
}

func (c *Controller) applies(cat *catalog.Catalog, snap answers.Snapshot, i int) bool {
	return c.evaluator.Applies(cat.At(i), snap.Questions, snap.Personal)
}

// forwardFrom returns the first applicable index at or after i, or Len.
func (c *Controller) forwardFrom(cat *catalog.Catalog, snap answers.Snapshot, i int) int {
	for i < cat.Len() && !c.applies(cat, snap, i) {
		i++
	}
	return i
}

func (c *Controller) stateLocked() State {
	s := State{Step: c.step, Index: c.index, Locked: c.store.IsLocked()}
	if c.step == StepQuestion {
		cat, _ := c.catalog()
		if c.index < cat.Len() {
			s.QuestionID = cat.At(c.index).ID
		}
	}
	return s
}

// State returns the current position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Resume picks the entry point after login from the lock flag and the stored
// index.
func (c *Controller) Resume() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat, snap := c.catalog()
	i := c.store.Index()
	switch {
	case snap.Locked:
		c.step, c.index = StepSummary, cat.Len()
	case i <= 0:
		c.step, c.index = StepPersonalInfo, 0
	case i >= cat.Len():
		c.step, c.index = StepSummary, cat.Len()
	default:
		c.enterAt(cat, snap, i)
	}
	return c.stateLocked()
}

func (c *Controller) enterAt(cat *catalog.Catalog, snap answers.Snapshot, i int) {
	i = c.forwardFrom(cat, snap, i)
	if i >= cat.Len() {
		c.step, c.index = StepSummary, cat.Len()
		return
	}
	c.step, c.index = StepQuestion, i
}

// Start leaves the personal details step for the first applicable question.
func (c *Controller) Start() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat, snap := c.catalog()
	if snap.Locked {
		c.step, c.index = StepSummary, cat.Len()
		return c.stateLocked()
	}
	c.enterAt(cat, snap, 0)
	return c.stateLocked()
}

// Current returns the question being shown.
func (c *Controller) Current() (catalog.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepQuestion {
		return catalog.Question{}, false
	}
	cat, _ := c.catalog()
	if c.index >= cat.Len() {
		return catalog.Question{}, false
	}
	return cat.At(c.index), true
}

// Forward validates card, saves its answers and moves to the next
// applicable question, or to the summary after the last one.
func (c *Controller) Forward(ctx context.Context, card completion.Card) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepQuestion {
		return Outcome{State: c.stateLocked()}
	}
	cat, snap := c.catalog()
	i := c.index
	q := cat.At(i)

	res := c.validator.Check(q, card, c.store)
	if !res.Complete {
		metrics.NavigationTransitions.WithLabelValues("forward", "blocked").Inc()
		c.logger.Debug("Forward blocked", map[string]interface{}{
			"questionId": q.ID,
			"failures":   len(res.Failures),
		})
		return Outcome{State: c.stateLocked(), Blocked: true, Result: res}
	}

	updates := Collect(q, card, snap.Personal).Questions
	if !c.store.SetAnswers(updates) {
		updates = map[string]interface{}{}
	}
	updates[answers.IndexKey] = strconv.Itoa(i + 1)
	c.store.SetIndex(i + 1)
	c.persister.SaveAnswers(ctx, updates)

	// conditions see the answers just written
	cat, snap = c.catalog()
	next := c.forwardFrom(cat, snap, i+1)
	if next >= cat.Len() {
		c.store.SetIndex(cat.Len())
		c.persister.SaveAnswers(ctx, map[string]interface{}{answers.IndexKey: strconv.Itoa(cat.Len())})
		c.step, c.index = StepSummary, cat.Len()
	} else {
		c.index = next
	}

	metrics.NavigationTransitions.WithLabelValues("forward", "moved").Inc()
	return Outcome{State: c.stateLocked(), Moved: true, Result: res}
}

// Back moves to the previous applicable question, or to personal details
// from the first one.
func (c *Controller) Back(ctx context.Context) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step == StepPersonalInfo {
		return Outcome{State: c.stateLocked()}
	}
	cat, snap := c.catalog()
	if c.step == StepSummary {
		c.index = cat.Len()
	}
	if c.index == 0 {
		c.step = StepPersonalInfo
		metrics.NavigationTransitions.WithLabelValues("back", "personal").Inc()
		return Outcome{State: c.stateLocked(), Moved: true}
	}

	i := c.index - 1
	for i > 0 && !c.applies(cat, snap, i) {
		i--
	}
	c.store.SetIndex(i)
	c.persister.SaveAnswers(ctx, map[string]interface{}{answers.IndexKey: strconv.Itoa(i)})
	c.enterAt(cat, snap, i)

	metrics.NavigationTransitions.WithLabelValues("back", "moved").Inc()
	return Outcome{State: c.stateLocked(), Moved: true}
}

// Jump enters the flow at question id. It fails for unknown, inapplicable
// or locked questions.
func (c *Controller) Jump(ctx context.Context, id string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat, snap := c.catalog()
	i := cat.Index(id)
	if snap.Locked || i < 0 || !c.applies(cat, snap, i) {
		return c.stateLocked(), false
	}
	c.step, c.index = StepQuestion, i
	c.store.SetIndex(i)
	c.persister.SaveAnswers(ctx, map[string]interface{}{answers.IndexKey: strconv.Itoa(i)})
	return c.stateLocked(), true
}

// Walk lists the question ids visited walking forward from the start over
// the current answers.
func (c *Controller) Walk() []string {
	cat, snap := c.catalog()
	var ids []string
	for i := c.forwardFrom(cat, snap, 0); i < cat.Len(); i = c.forwardFrom(cat, snap, i+1) {
		ids = append(ids, cat.At(i).ID)
	}
	return ids
}
