// Package locker runs one applicant's document locker session on top of the
// question-flow engine and the portal gateway.
package locker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "visa-locker/internal/common/errors"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/common/metrics"
	"visa-locker/internal/common/validation"
	"visa-locker/internal/models"
	"visa-locker/internal/portal"
	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/catalog"
	"visa-locker/internal/questionnaire/completion"
	"visa-locker/internal/questionnaire/condition"
	"visa-locker/internal/questionnaire/navigation"
	"visa-locker/internal/questionnaire/progress"
	"visa-locker/internal/questionnaire/summary"
)

// AgreedKey records the terms acknowledgement on finalize.
const AgreedKey = "agreed_to_terms"

type Config struct {
	AccessBaseURL         string
	ProgressSyncThreshold int
	ExemptCountries       map[string]bool
	Autosave              AutosaveConfig
}

// DraftStore keeps a snapshot of the answers for back-office readers.
type DraftStore interface {
	SaveDraft(ctx context.Context, token string, snap answers.Snapshot) error
}

// Session is one logged-in applicant.
type Session struct {
	gateway portal.Gateway
	cfg     Config
	guard   UploadGuard
	hook    SubmissionHook
	drafts  DraftStore
	logger  logger.Logger
	now     func() time.Time

	deriver    *catalog.Deriver
	evaluator  *condition.Evaluator
	validator  *completion.Validator
	calculator *progress.Calculator
	projector  *summary.Projector

	mu         sync.RWMutex
	token      string
	store      *answers.Store
	nav        *navigation.Controller
	saver      *Autosaver
	lastSynced int
}

type Option func(*Session)

func WithUploadGuard(g UploadGuard) Option {
	return func(s *Session) { s.guard = g }
}

func WithSubmissionHook(h SubmissionHook) Option {
	return func(s *Session) { s.hook = h }
}

func WithDraftStore(d DraftStore) Option {
	return func(s *Session) { s.drafts = d }
}

func WithDeriver(d *catalog.Deriver) Option {
	return func(s *Session) { s.deriver = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func NewSession(gateway portal.Gateway, cfg Config, log logger.Logger, opts ...Option) *Session {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if cfg.ProgressSyncThreshold == 0 {
		cfg.ProgressSyncThreshold = progress.DefaultSyncThreshold
	}
	if cfg.ExemptCountries == nil {
		cfg.ExemptCountries = completion.DefaultExemptCountries
	}
	s := &Session{
		gateway:    gateway,
		cfg:        cfg,
		guard:      NewMemoryGuard(),
		logger:     logger.Component(log, "locker"),
		now:        time.Now,
		evaluator:  condition.New(),
		lastSynced: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.deriver == nil {
		s.deriver = catalog.NewDeriver(nil)
	}
	s.validator = completion.New(cfg.ExemptCountries)
	s.calculator = progress.NewCalculator(s.deriver, s.evaluator)
	s.projector = summary.NewProjector(s.deriver, s.evaluator).WithClock(s.now)
	return s
}

// Login verifies the token and password, loads the record and resumes the
// flow where the applicant left it.
func (s *Session) Login(ctx context.Context, token, password string) (navigation.State, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return navigation.State{}, fmt.Errorf("%w: token missing", ErrAuthentication)
	}
	rec, err := s.gateway.Verify(ctx, token, password)
	if err != nil {
		if std, ok := apperrors.AsStandard(err); ok && std.Code == apperrors.ErrCodeAuthentication {
			return navigation.State{}, fmt.Errorf("%w: %s", ErrAuthentication, std.Details)
		}
		return navigation.State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saver != nil {
		// the previous record's saves go out before its saver stops
		if err := s.saver.Flush(ctx); err != nil {
			s.logger.Error("pending saves not flushed before re-login", map[string]interface{}{"error": err})
			return navigation.State{}, fmt.Errorf("flush previous session: %w", err)
		}
		s.saver.Close()
	}
	s.token = token
	s.store = answers.FromRecord(rec)
	s.saver = NewAutosaver(s.gateway, token, s.cfg.Autosave, s.logger)
	s.nav = navigation.NewController(s.store, s.deriver, s.evaluator, s.validator, s.saver, s.logger)
	s.lastSynced = -1

	state := s.nav.Resume()
	s.logger.Info("applicant logged in", map[string]interface{}{
		"step":   state.Step.String(),
		"index":  state.Index,
		"locked": state.Locked,
	})
	return state, nil
}

// LoginFromURL is Login with the token read from a locker link.
func (s *Session) LoginFromURL(ctx context.Context, rawURL, password string) (navigation.State, error) {
	return s.Login(ctx, portal.TokenFromURL(rawURL), password)
}

// current is the logged-in state an operation works on. Login replaces it
// as a whole.
type current struct {
	token string
	store *answers.Store
	nav   *navigation.Controller
	saver *Autosaver
}

func (s *Session) active() (current, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return current{}, ErrNoSession
	}
	return current{token: s.token, store: s.store, nav: s.nav, saver: s.saver}, nil
}

// Store exposes the session's answers for read-side views.
func (s *Session) Store() *answers.Store {
	cur, _ := s.active()
	return cur.store
}

func (s *Session) Notices() <-chan Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.saver == nil {
		return nil
	}
	return s.saver.Notices()
}

// SavePersonal edits one personal detail. It reports false without error
// when the record is locked or the value is unchanged.
func (s *Session) SavePersonal(ctx context.Context, field, value string) (bool, error) {
	cur, err := s.active()
	if err != nil {
		return false, err
	}
	store := cur.store
	if !catalog.IsEditablePersonal(field) {
		return false, fmt.Errorf("%w: %s", ErrNotEditable, field)
	}
	value = strings.TrimSpace(value)
	if field == "email" && value != "" {
		if res := validation.ValidateEmail(value); !res.Valid {
			return false, apperrors.NewFormatError(field, res.Message)
		}
	}
	if store.PersonalValue(field) == value {
		return false, nil
	}
	if !store.SetPersonal(field, value) {
		return false, nil
	}
	cur.saver.SavePersonal(ctx, field, value)
	s.syncProgress(ctx, cur)
	return true, nil
}

// StartQuestions leaves personal details once they are complete.
func (s *Session) StartQuestions(ctx context.Context) (navigation.State, completion.Result, error) {
	cur, err := s.active()
	if err != nil {
		return navigation.State{}, completion.Result{}, err
	}
	res := completion.CheckPersonalInfo(cur.store)
	if !res.Complete {
		return cur.nav.State(), res, nil
	}
	state := cur.nav.Start()
	s.checkpoint(ctx, cur)
	return state, res, nil
}

// Current returns the question on screen.
func (s *Session) Current() (catalog.Question, bool) {
	cur, err := s.active()
	if err != nil {
		return catalog.Question{}, false
	}
	return cur.nav.Current()
}

// Card prefills the current question from stored answers.
func (s *Session) Card() (completion.Card, bool) {
	cur, err := s.active()
	if err != nil {
		return completion.Card{}, false
	}
	q, ok := cur.nav.Current()
	if !ok {
		return completion.Card{}, false
	}
	return completion.CardFromStore(q, cur.store), true
}

func (s *Session) State() navigation.State {
	cur, err := s.active()
	if err != nil {
		return navigation.State{}
	}
	return cur.nav.State()
}

func (s *Session) Next(ctx context.Context, card completion.Card) (navigation.Outcome, error) {
	cur, err := s.active()
	if err != nil {
		return navigation.Outcome{}, err
	}
	out := cur.nav.Forward(ctx, card)
	if out.Moved {
		s.syncProgress(ctx, cur)
		s.checkpoint(ctx, cur)
	}
	return out, nil
}

func (s *Session) Back(ctx context.Context) (navigation.Outcome, error) {
	cur, err := s.active()
	if err != nil {
		return navigation.Outcome{}, err
	}
	return cur.nav.Back(ctx), nil
}

// Edit jumps from the summary back into the flow at question id.
func (s *Session) Edit(ctx context.Context, questionID string) (navigation.State, bool) {
	cur, err := s.active()
	if err != nil {
		return navigation.State{}, false
	}
	return cur.nav.Jump(ctx, questionID)
}

func (s *Session) lockFile(ctx context.Context, token, field string) (func(), error) {
	ok, err := s.guard.TryAcquire(ctx, token, field)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUploadInProgress, field)
	}
	return func() {
		if err := s.guard.Release(context.Background(), token, field); err != nil {
			s.logger.Warn("upload guard release failed", map[string]interface{}{"field": field, "error": err})
		}
	}, nil
}

func (s *Session) fileField(store *answers.Store, field string) error {
	if !s.deriver.Derive(store.Personal()).IsFileField(field) {
		return apperrors.NewFormatError(field, "not an upload field")
	}
	return nil
}

// Upload sends files for field and adopts the portal's list as the field's
// value. One upload or delete per field runs at a time. On a locked record
// nothing is sent and the stored list comes back unchanged.
func (s *Session) Upload(ctx context.Context, field string, files []portal.File) (*portal.UploadResult, error) {
	cur, err := s.active()
	if err != nil {
		return nil, err
	}
	store := cur.store
	if err := s.fileField(store, field); err != nil {
		return nil, err
	}
	if store.IsLocked() {
		s.logger.Debug("upload on locked record ignored", map[string]interface{}{"field": field})
		return &portal.UploadResult{Filenames: store.Files(field)}, nil
	}
	if len(files) == 0 {
		return nil, apperrors.NewFormatError(field, completion.MsgUploadRequired)
	}
	release, err := s.lockFile(ctx, cur.token, field)
	if err != nil {
		return nil, err
	}
	defer release()

	inputName := s.deriver.Derive(store.Personal()).UploadInputName(field)
	res, err := s.gateway.UploadFiles(ctx, cur.token, field, inputName, files)
	if err != nil {
		s.logger.Error("upload failed", map[string]interface{}{"field": field, "error": err})
		return nil, err
	}
	store.ReplaceFiles(field, res.Filenames)
	if len(res.Errors) > 0 {
		s.logger.Warn("upload partially rejected", map[string]interface{}{"field": field, "rejected": len(res.Errors)})
	}
	s.syncProgress(ctx, cur)
	s.checkpoint(ctx, cur)
	return res, nil
}

// DeleteFile removes one stored file and returns the field's remaining list.
// A locked record refuses with a RecordLocked error.
func (s *Session) DeleteFile(ctx context.Context, field, filename string) ([]string, error) {
	cur, err := s.active()
	if err != nil {
		return nil, err
	}
	store := cur.store
	if err := s.fileField(store, field); err != nil {
		return nil, err
	}
	if store.IsLocked() {
		return nil, apperrors.NewRecordLockedError(cur.token)
	}
	release, err := s.lockFile(ctx, cur.token, field)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := s.gateway.DeleteFile(ctx, cur.token, field, filename)
	if err != nil {
		s.logger.Error("delete failed", map[string]interface{}{"field": field, "error": err})
		return nil, err
	}
	if res.HasRemaining {
		store.ReplaceFiles(field, res.Remaining)
	} else {
		store.RemoveFile(field, filename)
	}
	s.syncProgress(ctx, cur)
	s.checkpoint(ctx, cur)
	return store.Files(field), nil
}

// SummaryEdit is one changed value on the review page, namespaced by the
// table it belongs to.
type SummaryEdit struct {
	Table catalog.Table
	Field string
	Value string
}

type SummaryResult struct {
	Saved    []string             `json:"saved"`
	Failures []completion.Failure `json:"failures,omitempty"`
}

// SaveSummary applies the review page edits that changed a value. Personal
// edits are saved one field at a time; question edits go in one batch.
// Nothing is saved when any edit fails validation.
func (s *Session) SaveSummary(ctx context.Context, edits []SummaryEdit) (SummaryResult, error) {
	cur, err := s.active()
	if err != nil {
		return SummaryResult{}, err
	}
	store := cur.store
	if store.IsLocked() {
		return SummaryResult{}, nil
	}
	view := s.projector.Project(store)
	cat := s.deriver.Derive(store.Personal())

	var result SummaryResult
	personal := map[string]string{}
	questions := map[string]interface{}{}
	for _, e := range edits {
		value := strings.TrimSpace(e.Value)
		switch e.Table {
		case catalog.TablePersonal:
			if !catalog.IsEditablePersonal(e.Field) || store.PersonalValue(e.Field) == value {
				continue
			}
			if f := checkPersonal(cat, e.Field, value); f != nil {
				result.Failures = append(result.Failures, *f)
				continue
			}
			personal[e.Field] = value
		case catalog.TableQuestions:
			entry, ok := view.Entry(e.Field)
			if !ok || entry.Table != catalog.TableQuestions || entry.ReadOnly || entry.Hidden ||
				entry.Input == catalog.InputFile || entry.Value == value {
				continue
			}
			if f := checkEntry(entry, cat.Rule(e.Field), value); f != nil {
				result.Failures = append(result.Failures, *f)
				continue
			}
			questions[e.Field] = value
		}
	}
	if len(result.Failures) > 0 {
		return result, nil
	}

	for field, value := range personal {
		if store.SetPersonal(field, value) {
			cur.saver.SavePersonal(ctx, field, value)
			result.Saved = append(result.Saved, field)
		}
	}
	if len(questions) > 0 && store.SetAnswers(questions) {
		cur.saver.SaveAnswers(ctx, questions)
		for field := range questions {
			result.Saved = append(result.Saved, field)
		}
	}
	if len(result.Saved) > 0 {
		s.syncProgress(ctx, cur)
		s.checkpoint(ctx, cur)
	}
	return result, nil
}

func inputOf(cat *catalog.Catalog, field string) catalog.InputType {
	if field == "email" {
		return catalog.InputEmail
	}
	if t, ok := cat.FieldType(field); ok {
		return t
	}
	return catalog.InputText
}

// checkPersonal refuses clearing a mandatory personal detail and checks the
// format of the new value.
func checkPersonal(cat *catalog.Catalog, field, value string) *completion.Failure {
	if value == "" && catalog.IsMandatoryPersonal(field) {
		return &completion.Failure{Field: field, Code: completion.CodeMissingRequired, Message: completion.MsgMissingRequired}
	}
	return checkValue(field, inputOf(cat, field), "", value)
}

// checkEntry validates a review page edit against the entry it replaces:
// mandatory values cannot be cleared and choices must be one of the options.
func checkEntry(entry summary.Entry, rule, value string) *completion.Failure {
	if value == "" {
		if entry.Mandatory {
			return &completion.Failure{Field: entry.FieldID, Code: completion.CodeMissingRequired, Message: completion.MsgMissingRequired}
		}
		return nil
	}
	if len(entry.Options) > 0 && !contains(entry.Options, value) {
		return &completion.Failure{Field: entry.FieldID, Code: completion.CodeInvalidOption, Message: completion.MsgInvalidOption}
	}
	return checkValue(entry.FieldID, entry.Input, rule, value)
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

func checkValue(field string, input catalog.InputType, rule, value string) *completion.Failure {
	if value == "" {
		return nil
	}
	switch {
	case input == catalog.InputEmail:
		if res := validation.ValidateEmail(value); !res.Valid {
			return &completion.Failure{Field: field, Code: completion.CodeInvalidEmail, Message: res.Message}
		}
	case input == catalog.InputDate:
		if _, ok := completion.ParseDate(value); !ok {
			return &completion.Failure{Field: field, Code: completion.CodeInvalidDate, Message: completion.MsgInvalidDate}
		}
	case rule == catalog.RulePlaceName:
		if !validation.ValidatePlaceName(value) {
			return &completion.Failure{Field: field, Code: completion.CodeInvalidPlaceName, Message: validation.MsgPlaceName}
		}
	}
	return nil
}

// Summary projects the review page.
func (s *Session) Summary() (summary.View, error) {
	cur, err := s.active()
	if err != nil {
		return summary.View{}, err
	}
	return s.projector.Project(cur.store), nil
}

// Progress recomputes the percentage and queues a portal sync once it
// reaches the threshold.
func (s *Session) Progress(ctx context.Context) (progress.Report, error) {
	cur, err := s.active()
	if err != nil {
		return progress.Report{}, err
	}
	report := s.calculator.Compute(cur.store)
	s.maybeSync(ctx, cur.saver, report)
	return report, nil
}

func (s *Session) syncProgress(ctx context.Context, cur current) {
	s.maybeSync(ctx, cur.saver, s.calculator.Compute(cur.store))
}

func (s *Session) maybeSync(ctx context.Context, saver *Autosaver, report progress.Report) {
	if report.Locked || !progress.ShouldSync(report.Percentage, s.cfg.ProgressSyncThreshold) {
		return
	}
	s.mu.Lock()
	if s.lastSynced == report.Percentage {
		s.mu.Unlock()
		return
	}
	s.lastSynced = report.Percentage
	s.mu.Unlock()
	saver.SaveProgress(ctx, report.Percentage)
}

// checkpoint writes the draft snapshot. Failures only log.
func (s *Session) checkpoint(ctx context.Context, cur current) {
	if s.drafts == nil {
		return
	}
	if err := s.drafts.SaveDraft(ctx, cur.token, cur.store.Snapshot()); err != nil {
		s.logger.Warn("draft checkpoint failed", map[string]interface{}{"error": err})
	}
}

// Acknowledgements are the two checkboxes required to submit.
type Acknowledgements struct {
	Accuracy bool
	Terms    bool
}

// Finalize submits a complete record: it saves the terms agreement, marks
// the record complete on the portal, then locks it locally. A failed portal
// call leaves the record unlocked.
func (s *Session) Finalize(ctx context.Context, ack Acknowledgements) error {
	cur, err := s.active()
	if err != nil {
		return err
	}
	store := cur.store
	if store.IsLocked() {
		return apperrors.NewRecordLockedError(cur.token)
	}
	report := s.calculator.Compute(store)
	if report.Percentage < 100 {
		return fmt.Errorf("%w: progress %d%%, missing %s", ErrNotReady, report.Percentage, strings.Join(report.Missing, ", "))
	}
	if !ack.Accuracy || !ack.Terms {
		return fmt.Errorf("%w: both acknowledgements are required", ErrNotReady)
	}

	if err := cur.saver.Flush(ctx); err != nil {
		return err
	}
	agreed := map[string]interface{}{AgreedKey: "1"}
	if err := s.gateway.UpdateQuestions(ctx, cur.token, answers.ToPersisted(agreed)); err != nil {
		return err
	}
	store.SetAnswers(agreed)
	if err := s.gateway.MarkComplete(ctx, cur.token); err != nil {
		return err
	}
	store.Lock()
	metrics.SubmissionsLocked.Inc()
	s.checkpoint(ctx, cur)

	personal := store.Personal()
	s.logger.Info("record finalized", map[string]interface{}{"country": personal.Get("travel_country")})

	if s.hook != nil {
		sub := Submission{
			Token:       cur.token,
			FirstName:   personal.Get("first_name"),
			LastName:    personal.Get("last_name"),
			Email:       personal.Get("email"),
			Phone:       personal.Get("contact_number"),
			Country:     personal.Get("travel_country"),
			VisaType:    personal.Get("visa_type"),
			Center:      personal.Get("visa_center"),
			Header:      Header(personal),
			Percentage:  100,
			SubmittedAt: s.now().UTC(),
			Snapshot:    store.Snapshot(),
		}
		if err := s.hook.OnSubmitted(ctx, sub); err != nil {
			s.logger.Error("submission hook failed", map[string]interface{}{"error": err})
		}
	}
	return nil
}

// Access is what a co-traveler needs to open their own locker.
type Access struct {
	Traveler models.CoTraveler `json:"traveler"`
	URL      string            `json:"url"`
	Password string            `json:"password"`
}

// DependentAccess fetches a co-traveler's token and builds their link and
// password.
func (s *Session) DependentAccess(ctx context.Context, dependentID string) (Access, error) {
	cur, err := s.active()
	if err != nil {
		return Access{}, err
	}
	dependentID = strings.TrimSpace(dependentID)
	var traveler *models.CoTraveler
	for _, t := range cur.store.CoTravelers() {
		if t.ID.String() == dependentID {
			traveler = &t
			break
		}
	}
	if dependentID == "" || traveler == nil {
		return Access{}, fmt.Errorf("%w: %q", ErrInvalidDependent, dependentID)
	}

	token, err := s.gateway.DependentToken(ctx, dependentID)
	if err != nil {
		return Access{}, err
	}
	return Access{
		Traveler: *traveler,
		URL:      strings.TrimRight(s.cfg.AccessBaseURL, "/") + "/f.html?token=" + url.QueryEscape(token),
		Password: DependentPassword(traveler.DOBRaw),
	}, nil
}

// Header is the applicant headline for the current record.
func (s *Session) Header() string {
	cur, err := s.active()
	if err != nil {
		return Header(nil)
	}
	return Header(cur.store.Personal())
}

// Appointment is the formatted appointment date, when the record has one.
func (s *Session) Appointment() (string, bool) {
	cur, err := s.active()
	if err != nil {
		return "", false
	}
	return AppointmentDate(cur.store.Personal().Get("doc_date"))
}

// Close drains pending saves and stops the autosave worker.
func (s *Session) Close(ctx context.Context) error {
	s.mu.RLock()
	saver := s.saver
	s.mu.RUnlock()
	if saver == nil {
		return nil
	}
	err := saver.Flush(ctx)
	saver.Close()
	return err
}
