// internal/models/notification.go
package models

// Reminder is one EMI reminder delivery attempt.
type Reminder struct {
	EMIID   string `json:"emiId"`
	LoanID  string `json:"loanId"`
	Channel string `json:"channel"` // "sms", "email"
	Status  string `json:"status"`  // "sent", "failed", "disabled"
	// MessageID is the provider id on success.
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"

	ReminderSent     = "sent"
	ReminderFailed   = "failed"
	ReminderDisabled = "disabled"
)

type NotificationTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
