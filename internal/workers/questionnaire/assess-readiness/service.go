package assessreadiness

import (
	"context"

	"visa-locker/internal/common/logger"
	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/completion"
	"visa-locker/internal/questionnaire/progress"
)

// Service scores how far an applicant is from a submittable record. The
// cached draft is preferred since it carries edits the portal has not yet
// mirrored into the record store.
type Service struct {
	drafts     DraftSource
	records    RecordSource
	calculator *progress.Calculator
	logger     logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	calc := deps.Calculator
	if calc == nil {
		calc = progress.NewCalculator(nil, nil)
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{drafts: deps.Drafts, records: deps.Records, calculator: calc, logger: log}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	store, source, err := s.loadStore(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	report := s.calculator.Compute(store)
	if err := s.records.UpdateReadiness(ctx, input.Token, report.Percentage, report.Missing); err != nil {
		return nil, err
	}

	out := &Output{
		Token:            input.Token,
		Percentage:       report.Percentage,
		Filled:           report.Filled,
		Total:            report.Total,
		Missing:          report.Missing,
		Locked:           report.Locked,
		PersonalComplete: completion.CheckPersonalInfo(store).Complete,
		Source:           source,
	}
	out.Ready = out.Percentage == 100 && out.PersonalComplete

	s.logger.Info("readiness assessed", map[string]interface{}{
		"percentage": out.Percentage,
		"missing":    len(out.Missing),
		"source":     source,
		"ready":      out.Ready,
	})
	return out, nil
}

func (s *Service) loadStore(ctx context.Context, token string) (*answers.Store, string, error) {
	if s.drafts != nil {
		draft, ok, err := s.drafts.LoadDraft(ctx, token)
		switch {
		case err != nil:
			s.logger.Warn("draft cache unavailable, using record store", map[string]interface{}{"error": err.Error()})
		case ok:
			return draft.Store(), SourceDraft, nil
		}
	}

	rec, err := s.records.Load(ctx, token)
	if err != nil {
		return nil, "", err
	}
	store := answers.FromRecord(&rec.Record)
	if rec.Locked {
		store.Lock()
	}
	return store, SourceRecord, nil
}
