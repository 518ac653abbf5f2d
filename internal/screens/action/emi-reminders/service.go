// Package emireminders notifies the borrower of EMIs falling due soon.
package emireminders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/common/metrics"
	"borrower-client/internal/models"
)

type Service struct {
	config    *Config
	api       RepaymentAPI
	sms       SMSSender
	email     EmailSender
	selection SelectionStore
	logger    logger.Logger
	now       func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		config:    config,
		api:       deps.API,
		sms:       deps.SMS,
		email:     deps.Email,
		selection: deps.Selection,
		logger:    deps.Logger,
		now:       now,
	}
}

// ResolveLoan prefers the explicit id and falls back to the selected loan.
func (s *Service) ResolveLoan(ctx context.Context, explicit string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	if s.selection != nil {
		id, ok, err := s.selection.Get(ctx, models.KeySelectedLoanID)
		if err != nil {
			return "", err
		}
		if ok && id != "" {
			return id, nil
		}
	}
	return "", errors.NewValidationError("loan_id", "No loan selected")
}

// Run sends reminders for every pending EMI of the loan due within the
// window. Delivery failures are recorded on the result, never returned.
func (s *Service) Run(ctx context.Context, loanID string) (*Result, error) {
	emis, err := s.api.ListLoanEMIs(ctx, loanID)
	if err != nil {
		return nil, err
	}

	result := &Result{LoanID: loanID, Due: DueWithin(emis, s.now(), s.config.WindowDays)}
	for _, emi := range result.Due {
		tmpl := BuildTemplate(emi)
		s.logger.Info("emi reminder due", map[string]interface{}{
			"emiId":   emi.ID,
			"loanId":  emi.LoanID,
			"dueDate": emi.DueDate.Format("2006-01-02"),
			"amount":  emi.Amount.String(),
		})

		result.Reminders = append(result.Reminders,
			s.deliver(ctx, emi, models.ChannelSMS, s.config.SMSEnabled && s.sms != nil, func(ctx context.Context) (string, error) {
				return s.sms.SendSMS(ctx, s.config.SMSPhone, tmpl.Body)
			}),
			s.deliver(ctx, emi, models.ChannelEmail, s.config.EmailEnabled && s.email != nil, func(ctx context.Context) (string, error) {
				return s.email.SendText(ctx, s.config.EmailTo, tmpl.Subject, tmpl.Body)
			}),
		)
	}

	s.logger.Info("emi reminders processed", map[string]interface{}{
		"loanId": loanID,
		"due":    len(result.Due),
		"sent":   result.Count(models.ReminderSent),
		"failed": result.Count(models.ReminderFailed),
	})
	return result, nil
}

func (s *Service) deliver(ctx context.Context, emi models.EMI, channel string, enabled bool, send func(context.Context) (string, error)) models.Reminder {
	rem := models.Reminder{EMIID: emi.ID, LoanID: emi.LoanID, Channel: channel}
	if !enabled {
		rem.Status = models.ReminderDisabled
		metrics.RemindersTotal.WithLabelValues(channel, rem.Status).Inc()
		return rem
	}

	maxRetries := errors.GetRetryCount(errors.ErrCodeNotificationSendFailed)
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.config.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				lastErr = ctx.Err()
			}
			if ctx.Err() != nil {
				break
			}
		}

		id, err := send(ctx)
		if err == nil {
			rem.Status = models.ReminderSent
			rem.MessageID = id
			metrics.RemindersTotal.WithLabelValues(channel, rem.Status).Inc()
			return rem
		}
		lastErr = err
	}

	sendErr := errors.NewNotificationSendFailedError(channel, lastErr)
	rem.Status = models.ReminderFailed
	rem.Error = sendErr.Details
	metrics.RemindersTotal.WithLabelValues(channel, rem.Status).Inc()
	s.logger.Error("emi reminder failed", map[string]interface{}{
		"emiId":   emi.ID,
		"channel": channel,
		"error":   sendErr.Details,
	})
	return rem
}

// DueWithin keeps pending EMIs due between the start of today and the end of
// the window, in due date order.
func DueWithin(emis []models.EMI, now time.Time, windowDays int) []models.EMI {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, windowDays+1)

	var due []models.EMI
	for _, emi := range emis {
		if !emi.Status.IsPending() || emi.DueDate.IsZero() {
			continue
		}
		d := emi.DueDate.UTC()
		if d.Before(start) || !d.Before(end) {
			continue
		}
		due = append(due, emi)
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DueDate.Before(due[j].DueDate.Time)
	})
	return due
}

func BuildTemplate(emi models.EMI) models.NotificationTemplate {
	date := emi.DueDate.Date()
	return models.NotificationTemplate{
		Subject: fmt.Sprintf("EMI due on %s", date),
		Body: fmt.Sprintf("Your EMI of %s for loan %s is due on %s. Please keep your account funded.",
			models.FormatINR(emi.Amount), shortID(emi.LoanID), date),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
