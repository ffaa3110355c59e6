package indexsummary

import (
	"context"
	"time"

	"visa-locker/internal/common/logger"
	"visa-locker/internal/questionnaire/summary"
	"visa-locker/internal/repository"

	"github.com/elastic/go-elasticsearch/v8"
)

type Input struct {
	Token string `json:"token"`
}

type Output struct {
	Indexed    bool   `json:"indexed"`
	Index      string `json:"index"`
	DocumentID string `json:"documentId"`
	Result     string `json:"result"`
	Version    int64  `json:"version"`
	FieldCount int    `json:"fieldCount"`
}

// SummaryDocument is the back-office search document for one applicant.
type SummaryDocument struct {
	Token       string            `json:"token"`
	Header      string            `json:"header"`
	FullName    string            `json:"fullName"`
	Email       string            `json:"email,omitempty"`
	Country     string            `json:"country,omitempty"`
	VisaType    string            `json:"visaType,omitempty"`
	Center      string            `json:"center,omitempty"`
	Locked      bool              `json:"locked"`
	Percentage  int               `json:"percentage"`
	SubmittedAt *time.Time        `json:"submittedAt,omitempty"`
	Personal    []DocumentField   `json:"personal"`
	Sections    []DocumentSection `json:"sections"`
	Warnings    []string          `json:"warnings,omitempty"`
	IndexedAt   time.Time         `json:"indexedAt"`
}

type DocumentSection struct {
	Category string          `json:"category"`
	Fields   []DocumentField `json:"fields"`
}

type DocumentField struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Value string   `json:"value,omitempty"`
	Files []string `json:"files,omitempty"`
}

type RecordSource interface {
	Load(ctx context.Context, token string) (*repository.StoredRecord, error)
	Audit(ctx context.Context, event, token string, details map[string]interface{}) error
}

type ServiceDependencies struct {
	Records   RecordSource
	Search    *elasticsearch.Client
	Projector *summary.Projector
	Logger    logger.Logger
}

type indexResponse struct {
	ID      string `json:"_id"`
	Result  string `json:"result"`
	Version int64  `json:"_version"`
}
