package indexsummary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"visa-locker/internal/common/errors"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/locker"
	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/summary"
	"visa-locker/internal/repository"

	"github.com/elastic/go-elasticsearch/v8"
)

type Service struct {
	config    *Config
	records   RecordSource
	search    *elasticsearch.Client
	projector *summary.Projector
	logger    logger.Logger
	now       func() time.Time
}

func NewService(cfg *Config, deps ServiceDependencies) *Service {
	projector := deps.Projector
	if projector == nil {
		projector = summary.NewProjector(nil, nil)
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config:    cfg,
		records:   deps.Records,
		search:    deps.Search,
		projector: projector,
		logger:    log,
		now:       time.Now,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	rec, err := s.records.Load(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	doc := s.Build(rec)
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewIndexingFailedError(s.config.Index, err)
	}

	res, err := s.search.Index(
		s.config.Index,
		bytes.NewReader(body),
		s.search.Index.WithDocumentID(input.Token),
		s.search.Index.WithRefresh(s.config.Refresh),
		s.search.Index.WithContext(ctx),
	)
	if err != nil {
		return nil, errors.NewIndexingFailedError(s.config.Index, err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.IsError() {
		idxErr := errors.NewIndexingFailedError(s.config.Index, fmt.Errorf("%s: %s", res.Status(), raw))
		// mapping conflicts and bad requests will not heal on retry
		idxErr.Retryable = res.StatusCode >= 500 || res.StatusCode == 429
		return nil, idxErr
	}

	var parsed indexResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewIndexingFailedError(s.config.Index, fmt.Errorf("decode response: %w", err))
	}

	fieldCount := len(doc.Personal)
	for _, sec := range doc.Sections {
		fieldCount += len(sec.Fields)
	}

	if err := s.records.Audit(ctx, repository.EventSummaryIndexed, input.Token, map[string]interface{}{
		"index":   s.config.Index,
		"version": parsed.Version,
	}); err != nil {
		s.logger.Warn("summary indexed without audit entry", map[string]interface{}{"error": err.Error()})
	}

	s.logger.Info("summary indexed", map[string]interface{}{
		"index":      s.config.Index,
		"result":     parsed.Result,
		"fieldCount": fieldCount,
	})

	return &Output{
		Indexed:    true,
		Index:      s.config.Index,
		DocumentID: input.Token,
		Result:     parsed.Result,
		Version:    parsed.Version,
		FieldCount: fieldCount,
	}, nil
}

// Build projects a stored record into its search document. Hidden entries
// are left out; file fields carry their file names.
func (s *Service) Build(rec *repository.StoredRecord) SummaryDocument {
	store := answers.FromRecord(&rec.Record)
	if rec.Locked {
		store.Lock()
	}
	view := s.projector.Project(store)
	personal := store.Personal()

	doc := SummaryDocument{
		Token:       rec.Token,
		Header:      locker.Header(personal),
		FullName:    locker.FullName(personal),
		Email:       personal.Get("email"),
		Country:     personal.Get("travel_country"),
		VisaType:    personal.Get("visa_type"),
		Center:      personal.Get("visa_center"),
		Locked:      view.Locked,
		Percentage:  rec.Percentage,
		SubmittedAt: rec.SubmittedAt,
		IndexedAt:   s.now().UTC(),
	}
	for _, e := range append(append([]summary.Entry(nil), view.Static...), view.Personal...) {
		doc.Personal = append(doc.Personal, field(e))
	}
	for _, sec := range view.Sections {
		out := DocumentSection{Category: string(sec.Category)}
		for _, e := range sec.Entries {
			if e.Hidden {
				continue
			}
			out.Fields = append(out.Fields, field(e))
		}
		if len(out.Fields) > 0 {
			doc.Sections = append(doc.Sections, out)
		}
	}
	for _, w := range view.Warnings {
		doc.Warnings = append(doc.Warnings, w.Message)
	}
	return doc
}

func field(e summary.Entry) DocumentField {
	value := e.Display
	if value == "" {
		value = e.Value
	}
	return DocumentField{ID: e.FieldID, Label: e.Label, Value: value, Files: e.Files}
}
