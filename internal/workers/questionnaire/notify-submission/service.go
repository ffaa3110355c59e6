package notifysubmission

import (
	"context"
	"strings"
	"time"

	awsclient "visa-locker/internal/common/aws"
	"visa-locker/internal/common/errors"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/common/validation"
	"visa-locker/internal/models"
	"visa-locker/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
)

// Service sends the submission confirmation. Email failures fail the job so
// it is retried; SMS is best effort.
type Service struct {
	config  *Config
	ses     SESService
	sns     SNSService
	auditor Auditor
	logger  logger.Logger
	now     func() time.Time
}

func NewService(cfg *Config, deps ServiceDependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config:  cfg,
		ses:     deps.SES,
		sns:     deps.SNS,
		auditor: deps.Auditor,
		logger:  log,
		now:     time.Now,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{
		NotificationID: uuid.New().String(),
		SentAt:         s.now().UTC().Format(time.RFC3339),
	}

	email, err := s.sendEmail(ctx, input)
	if err != nil {
		return nil, err
	}
	sms := s.sendSMS(ctx, input)

	out.EmailStatus, out.SMSStatus = email.Status, sms.Status
	out.Notices = []models.SubmissionNotice{email, sms}
	for i := range out.Notices {
		out.Notices[i].ID = out.NotificationID
		out.Notices[i].Token = input.Token
		if out.Notices[i].Status == StatusSent {
			out.Notices[i].SentAt = out.SentAt
		}
	}

	if s.auditor != nil {
		if err := s.auditor.Audit(ctx, repository.EventNotified, input.Token, map[string]interface{}{
			"notificationId": out.NotificationID,
			"email":          out.EmailStatus,
			"sms":            out.SMSStatus,
		}); err != nil {
			s.logger.Warn("notification sent without audit entry", map[string]interface{}{"error": err.Error()})
		}
	}

	s.logger.Info("submission confirmation processed", map[string]interface{}{
		"notificationId": out.NotificationID,
		"email":          out.EmailStatus,
		"sms":            out.SMSStatus,
	})
	return out, nil
}

func (s *Service) sendEmail(ctx context.Context, input *Input) (models.SubmissionNotice, error) {
	n := models.SubmissionNotice{Channel: ChannelEmail, Recipient: strings.TrimSpace(input.Email)}
	switch {
	case !s.config.EmailEnabled || s.ses == nil:
		n.Status = StatusDisabled
		return n, nil
	case !validation.IsValidEmail(n.Recipient):
		s.logger.Warn("no usable email address", map[string]interface{}{"recipient": n.Recipient})
		n.Status = StatusSkipped
		return n, nil
	}

	res, err := s.ses.SendEmail(ctx, awsclient.EmailInput(
		s.config.FromEmail, n.Recipient, confirmationSubject, confirmationText(input), confirmationHTML(input),
	))
	if err != nil {
		return n, errors.NewNotificationSendFailedError(ChannelEmail, err)
	}
	n.Status = StatusSent
	n.Payload = map[string]interface{}{"messageId": aws.ToString(res.MessageId)}
	return n, nil
}

func (s *Service) sendSMS(ctx context.Context, input *Input) models.SubmissionNotice {
	n := models.SubmissionNotice{Channel: ChannelSMS, Recipient: normalizePhone(input.Phone)}
	switch {
	case !s.config.SMSEnabled || s.sns == nil:
		n.Status = StatusDisabled
		return n
	case !strings.HasPrefix(n.Recipient, "+") || len(n.Recipient) < 8:
		n.Status = StatusSkipped
		return n
	}

	res, err := s.sns.Publish(ctx, awsclient.SMSInput(n.Recipient, confirmationSMS(input), s.config.SMSSenderID))
	if err != nil {
		s.logger.Error("sms send failed", map[string]interface{}{"error": err.Error()})
		n.Status = StatusFailed
		return n
	}
	n.Status = StatusSent
	n.Payload = map[string]interface{}{"messageId": aws.ToString(res.MessageId)}
	return n
}

// normalizePhone strips formatting characters, keeping a leading plus.
func normalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
