package locker

import (
	"context"
	stderrors "errors"
	"time"

	"visa-locker/internal/questionnaire/answers"
)

// Submission describes a record that was just finalized and locked.
type Submission struct {
	Token       string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Country     string
	VisaType    string
	Center      string
	Header      string
	Percentage  int
	SubmittedAt time.Time
	Snapshot    answers.Snapshot
}

// SubmissionHook runs after a successful finalize. Failures are logged; the
// record stays locked.
type SubmissionHook interface {
	OnSubmitted(ctx context.Context, sub Submission) error
}

// HookFunc adapts a function to SubmissionHook.
type HookFunc func(ctx context.Context, sub Submission) error

func (f HookFunc) OnSubmitted(ctx context.Context, sub Submission) error {
	return f(ctx, sub)
}

// Hooks runs every hook in order and joins their errors.
type Hooks []SubmissionHook

func (h Hooks) OnSubmitted(ctx context.Context, sub Submission) error {
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.OnSubmitted(ctx, sub); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// MessagePublisher publishes a correlated workflow message.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, variables map[string]interface{}) error
}

// SubmissionPublisher starts the back-office process for a locked record.
type SubmissionPublisher struct {
	publisher   MessagePublisher
	messageName string
}

func NewSubmissionPublisher(p MessagePublisher, messageName string) *SubmissionPublisher {
	return &SubmissionPublisher{publisher: p, messageName: messageName}
}

func (p *SubmissionPublisher) OnSubmitted(ctx context.Context, sub Submission) error {
	return p.publisher.PublishMessage(ctx, p.messageName, sub.Token, SubmissionVariables(sub))
}

// SubmissionVariables are the process variables carried by the submission
// message. The answers themselves stay in the record store.
func SubmissionVariables(sub Submission) map[string]interface{} {
	return map[string]interface{}{
		"token":       sub.Token,
		"firstName":   sub.FirstName,
		"lastName":    sub.LastName,
		"email":       sub.Email,
		"phone":       sub.Phone,
		"country":     sub.Country,
		"visaType":    sub.VisaType,
		"center":      sub.Center,
		"header":      sub.Header,
		"percentage":  sub.Percentage,
		"submittedAt": sub.SubmittedAt.UTC().Format(time.RFC3339),
	}
}
