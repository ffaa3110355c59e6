package notifysubmission

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-locker/internal/common/errors"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/repository"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

type auditCall struct {
	event, token string
	details      map[string]interface{}
}

type fakeAuditor struct {
	calls []auditCall
	err   error
}

func (f *fakeAuditor) Audit(_ context.Context, event, token string, details map[string]interface{}) error {
	f.calls = append(f.calls, auditCall{event, token, details})
	return f.err
}

func enabledConfig() *Config {
	cfg := DefaultConfig()
	cfg.EmailEnabled = true
	cfg.SMSEnabled = true
	cfg.FromEmail = "locker@example.com"
	cfg.SMSSenderID = "VISALOCKER"
	return cfg
}

func sampleInput() *Input {
	return &Input{
		Token:     "tok",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+44 7700 900123",
		Country:   "Italy",
		VisaType:  "Tourist",
		Center:    "London",
	}
}

func newTestHandler(t *testing.T, cfg *Config, deps ServiceDependencies) *Handler {
	t.Helper()
	h, err := NewHandler(cfg, deps, logger.NewTestLogger(t))
	require.NoError(t, err)
	h.service.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return h
}

func TestExecuteSendsEmailAndSMS(t *testing.T) {
	mail, sms, audit := &fakeSES{}, &fakeSNS{}, &fakeAuditor{}
	h := newTestHandler(t, enabledConfig(), ServiceDependencies{SES: mail, SNS: sms, Auditor: audit})

	out, err := h.Execute(context.Background(), sampleInput())
	require.NoError(t, err)

	assert.NotEmpty(t, out.NotificationID)
	assert.Equal(t, StatusSent, out.EmailStatus)
	assert.Equal(t, StatusSent, out.SMSStatus)
	assert.Equal(t, "2026-03-01T10:00:00Z", out.SentAt)
	require.Len(t, out.Notices, 2)
	assert.Equal(t, "ses-1", out.Notices[0].Payload["messageId"])
	assert.Equal(t, "tok", out.Notices[1].Token)

	require.Len(t, mail.inputs, 1)
	sent := mail.inputs[0]
	assert.Equal(t, "locker@example.com", aws.ToString(sent.Source))
	assert.Equal(t, []string{"ada@example.com"}, sent.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(sent.Message.Body.Text.Data),
		"Ada Lovelace – Applied for an Italy tourist. Appointment scheduled in London.")

	require.Len(t, sms.inputs, 1)
	assert.Equal(t, "+447700900123", aws.ToString(sms.inputs[0].PhoneNumber))
	assert.Contains(t, aws.ToString(sms.inputs[0].Message), "Italy")

	require.Len(t, audit.calls, 1)
	assert.Equal(t, repository.EventNotified, audit.calls[0].event)
	assert.Equal(t, "sent", audit.calls[0].details["sms"])
}

func TestExecuteUsesProvidedHeader(t *testing.T) {
	mail := &fakeSES{}
	cfg := enabledConfig()
	cfg.SMSEnabled = false
	h := newTestHandler(t, cfg, ServiceDependencies{SES: mail})

	in := sampleInput()
	in.Header = "<Custom> headline"
	out, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.SMSStatus)

	require.Len(t, mail.inputs, 1)
	assert.Contains(t, aws.ToString(mail.inputs[0].Message.Body.Text.Data), "<Custom> headline")
	assert.Contains(t, aws.ToString(mail.inputs[0].Message.Body.Html.Data), "&lt;Custom&gt; headline")
}

func TestExecuteChannelStatuses(t *testing.T) {
	tests := []struct {
		name      string
		cfg       func(*Config)
		input     func(*Input)
		smsErr    error
		wantEmail string
		wantSMS   string
	}{
		{
			name:      "everything disabled",
			cfg:       func(c *Config) { c.EmailEnabled, c.SMSEnabled = false, false },
			wantEmail: StatusDisabled,
			wantSMS:   StatusDisabled,
		},
		{
			name:      "invalid email is skipped",
			input:     func(in *Input) { in.Email = "not-an-address" },
			wantEmail: StatusSkipped,
			wantSMS:   StatusSent,
		},
		{
			name:      "local phone number is skipped",
			input:     func(in *Input) { in.Phone = "07700 900123" },
			wantEmail: StatusSent,
			wantSMS:   StatusSkipped,
		},
		{
			name:      "sms failure does not fail the job",
			smsErr:    fmt.Errorf("throttled"),
			wantEmail: StatusSent,
			wantSMS:   StatusFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := enabledConfig()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}
			in := sampleInput()
			if tt.input != nil {
				tt.input(in)
			}
			h := newTestHandler(t, cfg, ServiceDependencies{SES: &fakeSES{}, SNS: &fakeSNS{err: tt.smsErr}})

			out, err := h.Execute(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, out.EmailStatus)
			assert.Equal(t, tt.wantSMS, out.SMSStatus)
		})
	}
}

func TestExecuteEmailFailureIsRetryable(t *testing.T) {
	sms, audit := &fakeSNS{}, &fakeAuditor{}
	h := newTestHandler(t, enabledConfig(), ServiceDependencies{
		SES:     &fakeSES{err: fmt.Errorf("service unavailable")},
		SNS:     sms,
		Auditor: audit,
	})

	_, err := h.Execute(context.Background(), sampleInput())
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Empty(t, sms.inputs, "sms waits for the email to go out")
	assert.Empty(t, audit.calls)
}

func TestExecuteAuditFailureIsTolerated(t *testing.T) {
	h := newTestHandler(t, enabledConfig(), ServiceDependencies{
		SES:     &fakeSES{},
		Auditor: &fakeAuditor{err: fmt.Errorf("db down")},
	})

	out, err := h.Execute(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.EmailStatus)
	assert.Equal(t, StatusDisabled, out.SMSStatus)
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{"full", `{"token":"tok","firstName":"Ada","email":"ada@example.com","percentage":100}`, false},
		{"missing token", `{"firstName":"Ada"}`, true},
		{"wrong type", `{"token":"tok","email":42}`, true},
		{"not json", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ParseInput(tt.variables)
			if tt.wantErr {
				stdErr, ok := errors.AsStandard(err)
				require.True(t, ok)
				assert.Equal(t, errors.ErrCodeFormatError, stdErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tok", in.Token)
			assert.Equal(t, "Ada", in.FirstName)
		})
	}
}

func TestNewHandlerValidatesConfig(t *testing.T) {
	cfg := enabledConfig()
	cfg.FromEmail = ""
	_, err := NewHandler(cfg, ServiceDependencies{}, nil)
	require.Error(t, err)

	h, err := NewHandler(nil, ServiceDependencies{}, nil)
	require.NoError(t, err)
	assert.True(t, h.IsEnabled())
	assert.Equal(t, 30*time.Second, h.GetConfig().Timeout)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+447700900123", normalizePhone(" +44 (7700) 900-123 "))
	assert.Equal(t, "07700900123", normalizePhone("07700 900123"))
	assert.Equal(t, "", normalizePhone(""))
}
