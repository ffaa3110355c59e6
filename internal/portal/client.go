package portal

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	"visa-locker/internal/common/errors"
	httpclient "visa-locker/internal/common/http"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/common/observability"
	"visa-locker/internal/common/validation"
	"visa-locker/internal/models"
	"visa-locker/internal/questionnaire/answers"
)

const (
	actionVerify          = "verify"
	actionUpdatePersonal  = "update_personal"
	actionUpdateQuestions = "update_questions"
	actionUploadFiles     = "upload_files"
	actionDeleteFile      = "delete_file"
	actionUpdateProgress  = "update_progress"
	actionMarkComplete    = "mark_complete"
	actionDependentToken  = "get_dependent_token"

	statusSuccess = "success"
)

var envelopeSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"status"},
	"properties": map[string]interface{}{
		"status":  map[string]interface{}{"type": "string"},
		"message": map[string]interface{}{"type": []interface{}{"string", "null"}},
	},
})

var verifySchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"personal", "questions"},
	"properties": map[string]interface{}{
		"personal":     map[string]interface{}{"type": "object"},
		"questions":    map[string]interface{}{"type": "object"},
		"co_travelers": map[string]interface{}{"type": []interface{}{"array", "null"}},
	},
})

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// RetryConfig bounds retries of the synchronous calls (verify, mark
// complete, dependent token). Autosave calls are retried by their caller.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 2,
	BaseDelay:  300 * time.Millisecond,
	MaxDelay:   3 * time.Second,
}

// Client talks to the portal API over HTTP.
type Client struct {
	baseURL string
	http    *httpclient.Client
	retry   RetryConfig
	obs     *observability.Observability
	logger  logger.Logger
}

type Option func(*Client)

func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

func WithObservability(obs *observability.Observability) Option {
	return func(c *Client) { c.obs = obs }
}

func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

func NewClient(baseURL string, hc *httpclient.Client, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		retry:   DefaultRetryConfig,
		obs:     observability.Disabled(),
		logger:  logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.Component(c.logger, "portal")
	return c
}

var _ Gateway = (*Client)(nil)

func (c *Client) Verify(ctx context.Context, token, password string) (*models.ApplicantRecord, error) {
	var rec models.ApplicantRecord
	err := c.withRetry(ctx, actionVerify, func(ctx context.Context) error {
		data, err := c.post(ctx, actionVerify, map[string]interface{}{
			"token":    token,
			"password": password,
		})
		if err != nil {
			return err
		}
		if err := decodeChecked(actionVerify, data, verifySchema, &rec); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) UpdatePersonal(ctx context.Context, token, field, value string) error {
	_, err := c.post(ctx, actionUpdatePersonal, map[string]interface{}{
		"token": token,
		"field": field,
		"value": value,
	})
	return err
}

func (c *Client) UpdateQuestions(ctx context.Context, token string, data map[string]interface{}) error {
	_, err := c.post(ctx, actionUpdateQuestions, map[string]interface{}{
		"token": token,
		"data":  data,
	})
	return err
}

func (c *Client) UploadFiles(ctx context.Context, token, field, inputName string, files []File) (*UploadResult, error) {
	fields := map[string]string{
		"token":      token,
		"input_name": strings.TrimSuffix(inputName, "[]"),
		"db_field":   field,
	}
	parts := make([]httpclient.Part, 0, len(files))
	for _, f := range files {
		parts = append(parts, httpclient.Part{Field: "files", Filename: f.Name, Content: f.Content})
	}

	start := time.Now()
	resp, err := c.http.PostMultipart(ctx, c.url(actionUploadFiles), fields, parts)
	data, err := c.finish(ctx, actionUploadFiles, start, resp, err)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Filenames interface{} `json:"filenames"`
		Errors    []string    `json:"errors"`
	}
	if err := decodeChecked(actionUploadFiles, data, nil, &payload); err != nil {
		return nil, err
	}
	return &UploadResult{
		Filenames: answers.NormalizeFiles(payload.Filenames),
		Errors:    payload.Errors,
	}, nil
}

func (c *Client) DeleteFile(ctx context.Context, token, field, filename string) (*DeleteResult, error) {
	data, err := c.post(ctx, actionDeleteFile, map[string]interface{}{
		"token":    token,
		"db_field": field,
		"filename": filename,
	})
	if err != nil {
		return nil, err
	}

	var payload map[string]interface{}
	if len(data) > 0 && string(data) != "null" {
		if err := decodeChecked(actionDeleteFile, data, nil, &payload); err != nil {
			return nil, err
		}
	}
	remaining, ok := payload["remaining_files"]
	if !ok {
		return &DeleteResult{}, nil
	}
	return &DeleteResult{Remaining: answers.NormalizeFiles(remaining), HasRemaining: true}, nil
}

func (c *Client) UpdateProgress(ctx context.Context, token string, percentage int) error {
	_, err := c.post(ctx, actionUpdateProgress, map[string]interface{}{
		"token":      token,
		"percentage": percentage,
	})
	return err
}

func (c *Client) MarkComplete(ctx context.Context, token string) error {
	return c.withRetry(ctx, actionMarkComplete, func(ctx context.Context) error {
		_, err := c.post(ctx, actionMarkComplete, map[string]interface{}{"token": token})
		return err
	})
}

func (c *Client) DependentToken(ctx context.Context, dependentID string) (string, error) {
	var token string
	err := c.withRetry(ctx, actionDependentToken, func(ctx context.Context) error {
		data, err := c.post(ctx, actionDependentToken, map[string]interface{}{"dependent_id": dependentID})
		if err != nil {
			return err
		}
		var payload struct {
			PublicURLToken string `json:"public_url_token"`
		}
		if err := decodeChecked(actionDependentToken, data, nil, &payload); err != nil {
			return err
		}
		if payload.PublicURLToken == "" {
			return errors.NewPortalInvalidPayloadError(actionDependentToken, "public_url_token missing")
		}
		token = payload.PublicURLToken
		return nil
	})
	return token, err
}

func (c *Client) url(action string) string {
	return c.baseURL + "/" + action
}

func (c *Client) post(ctx context.Context, action string, payload map[string]interface{}) (json.RawMessage, error) {
	start := time.Now()
	resp, err := c.http.PostJSON(ctx, c.url(action), payload)
	return c.finish(ctx, action, start, resp, err)
}

// finish maps the HTTP outcome to the envelope's data or a StandardError and
// records the call.
func (c *Client) finish(ctx context.Context, action string, start time.Time, resp *httpclient.Response, err error) (json.RawMessage, error) {
	data, err := unwrap(action, resp, err)
	status := "success"
	if err != nil {
		status = "error"
		if stdErr, ok := errors.AsStandard(err); ok {
			status = string(stdErr.Code)
		}
		c.logger.Warn("portal call failed", map[string]interface{}{
			"action":      action,
			"error":       err,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
	c.obs.RecordPortalCall(ctx, action, status, time.Since(start))
	return data, err
}

func unwrap(action string, resp *httpclient.Response, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode >= 500 {
		return nil, errors.NewPortalRequestFailedError(action, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var doc interface{}
	if jsonErr := json.Unmarshal(resp.Body, &doc); jsonErr != nil {
		if resp.StatusCode >= 400 {
			return nil, rejected(action, fmt.Sprintf("HTTP %d", resp.StatusCode))
		}
		return nil, errors.NewPortalInvalidPayloadError(action, "response is not JSON")
	}
	result, vErr := envelopeSchema.Validate(doc)
	if vErr != nil {
		return nil, errors.NewPortalInvalidPayloadError(action, vErr.Error())
	}
	if !result.Valid {
		return nil, errors.NewPortalInvalidPayloadError(action, result.String())
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, errors.NewPortalInvalidPayloadError(action, err.Error())
	}
	if env.Status != statusSuccess || resp.StatusCode >= 400 {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("status %q, HTTP %d", env.Status, resp.StatusCode)
		}
		if action == actionVerify {
			return nil, errors.NewAuthenticationError(msg)
		}
		return nil, rejected(action, msg)
	}
	return env.Data, nil
}

// rejected is a failure the portal reported on purpose; repeating the call
// will not change the answer.
func rejected(action, message string) *errors.StandardError {
	stdErr := errors.NewPortalRequestFailedError(action, stderrors.New(message))
	stdErr.Message = message
	stdErr.Retryable = false
	return stdErr
}

func transportError(err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.NewTimeoutError("portal", err)
	}
	return errors.NewExternalServiceError("portal", err)
}

func decodeChecked(action string, data json.RawMessage, schema *validation.Schema, out interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return errors.NewPortalInvalidPayloadError(action, "data missing")
	}
	if schema != nil {
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return errors.NewPortalInvalidPayloadError(action, err.Error())
		}
		result, err := schema.Validate(doc)
		if err != nil {
			return errors.NewPortalInvalidPayloadError(action, err.Error())
		}
		if !result.Valid {
			return errors.NewPortalInvalidPayloadError(action, result.String())
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewPortalInvalidPayloadError(action, err.Error())
	}
	return nil
}

// withRetry retries retryable StandardErrors with capped exponential backoff.
func (c *Client) withRetry(ctx context.Context, action string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil || !errors.IsRetryable(lastErr) || attempt == c.retry.MaxRetries {
			return lastErr
		}

		delay := c.retry.BaseDelay * time.Duration(1<<attempt)
		if delay > c.retry.MaxDelay {
			delay = c.retry.MaxDelay
		}
		c.logger.Debug("retrying portal call", map[string]interface{}{
			"action":  action,
			"attempt": attempt + 1,
			"delay":   delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", action, attempt+1, ctx.Err())
		}
	}
	return lastErr
}
