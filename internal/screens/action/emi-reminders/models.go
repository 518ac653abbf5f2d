package emireminders

import (
	"context"
	"time"

	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

type RepaymentAPI interface {
	ListLoanEMIs(ctx context.Context, loanID string) ([]models.EMI, error)
}

// SMSSender is satisfied by the SNS client wrapper.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

// EmailSender is satisfied by the SES client wrapper.
type EmailSender interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

type SelectionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

type ServiceDependencies struct {
	API       RepaymentAPI
	SMS       SMSSender
	Email     EmailSender
	Selection SelectionStore
	Logger    logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result summarizes one run over a loan's schedule.
type Result struct {
	LoanID    string
	Due       []models.EMI
	Reminders []models.Reminder
}

func (r *Result) Count(status string) int {
	n := 0
	for _, rem := range r.Reminders {
		if rem.Status == status {
			n++
		}
	}
	return n
}
