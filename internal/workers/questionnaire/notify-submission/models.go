package notifysubmission

import (
	"context"

	"visa-locker/internal/common/logger"
	"visa-locker/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Input mirrors the variables of the submission message.
type Input struct {
	Token     string `json:"token"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country,omitempty"`
	VisaType  string `json:"visaType,omitempty"`
	Center    string `json:"center,omitempty"`
	Header    string `json:"header,omitempty"`
}

type Output struct {
	NotificationID string                    `json:"notificationId"`
	EmailStatus    string                    `json:"emailStatus"`
	SMSStatus      string                    `json:"smsStatus"`
	Notices        []models.SubmissionNotice `json:"notices"`
	SentAt         string                    `json:"sentAt"`
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Auditor interface {
	Audit(ctx context.Context, event, token string, details map[string]interface{}) error
}

type ServiceDependencies struct {
	SES     SESService
	SNS     SNSService
	Auditor Auditor
	Logger  logger.Logger
}
