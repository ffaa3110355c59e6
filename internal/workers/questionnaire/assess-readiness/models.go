package assessreadiness

import (
	"context"

	"visa-locker/internal/common/logger"
	"visa-locker/internal/questionnaire/progress"
	"visa-locker/internal/repository"
)

type Input struct {
	Token string `json:"token"`
}

type Output struct {
	Token            string   `json:"token"`
	Percentage       int      `json:"percentage"`
	Filled           int      `json:"filled"`
	Total            int      `json:"total"`
	Missing          []string `json:"missing,omitempty"`
	Locked           bool     `json:"locked"`
	PersonalComplete bool     `json:"personalComplete"`
	Ready            bool     `json:"ready"`
	Source           string   `json:"source"`
}

const (
	SourceDraft  = "draft"
	SourceRecord = "record"
)

type DraftSource interface {
	LoadDraft(ctx context.Context, token string) (*repository.Draft, bool, error)
}

type RecordSource interface {
	Load(ctx context.Context, token string) (*repository.StoredRecord, error)
	UpdateReadiness(ctx context.Context, token string, pct int, missing []string) error
}

type ServiceDependencies struct {
	Drafts     DraftSource
	Records    RecordSource
	Calculator *progress.Calculator
	Logger     logger.Logger
}
