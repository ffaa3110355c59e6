package models

// SubmissionNotice records a confirmation sent after an applicant locks
// their record.
type SubmissionNotice struct {
	ID        string                 `json:"id"`
	Token     string                 `json:"token"`
	Channel   string                 `json:"channel"` // "email", "sms"
	Status    string                 `json:"status"`  // "sent", "failed", "disabled"
	Recipient string                 `json:"recipient"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	SentAt    string                 `json:"sentAt,omitempty"`
}
