// Package repayments shows EMI schedules and records payments and bounces.
package repayments

import (
	"context"
	"sort"
	"strings"

	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"

	"github.com/shopspring/decimal"
)

type Service struct {
	config    *Config
	api       RepaymentAPI
	selection SelectionStore
	logger    logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		api:       deps.API,
		selection: deps.Selection,
		logger:    deps.Logger,
	}
}

// ResolveLoan returns explicit when set, otherwise the stored selection.
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

// LoanEMIs fetches the schedule of one loan. Rows are always read from the
// backend, never cached.
func (s *Service) LoanEMIs(ctx context.Context, loanID string) (*Schedule, error) {
	loanID, err := s.ResolveLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	emis, err := s.api.ListLoanEMIs(ctx, loanID)
	if err != nil {
		return nil, err
	}
	sched := Summarize(emis)
	sched.LoanID = loanID
	return sched, nil
}

// AllRepayments lists EMIs across every loan.
func (s *Service) AllRepayments(ctx context.Context) (*Schedule, error) {
	emis, err := s.api.ListMyRepayments(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(emis), nil
}

func (s *Service) Loan(ctx context.Context, loanID string) (*models.Loan, error) {
	loanID, err := s.ResolveLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return s.api.GetLoan(ctx, loanID)
}

func (s *Service) Pay(ctx context.Context, emiID string) (*models.EMIActionResponse, error) {
	return s.act(ctx, "pay", emiID, s.api.PayEMI)
}

func (s *Service) Bounce(ctx context.Context, emiID string) (*models.EMIActionResponse, error) {
	return s.act(ctx, "bounce", emiID, s.api.BounceEMI)
}

func (s *Service) act(ctx context.Context, action, emiID string, call func(context.Context, string) (*models.EMIActionResponse, error)) (*models.EMIActionResponse, error) {
	emiID = strings.TrimSpace(emiID)
	if emiID == "" {
		return nil, errors.NewValidationError("emi_id", "EMI id is required")
	}
	resp, err := call(ctx, emiID)
	if err != nil {
		s.logger.Warn("emi action rejected", map[string]interface{}{
			"action": action,
			"emiId":  emiID,
			"error":  err.Error(),
		})
		return nil, err
	}
	s.logger.Info("emi action recorded", map[string]interface{}{
		"action": action,
		"emiId":  emiID,
		"status": string(resp.Status),
	})
	return resp, nil
}

// Summarize orders EMIs by due date and totals them by status.
func Summarize(emis []models.EMI) *Schedule {
	sorted := make([]models.EMI, len(emis))
	copy(sorted, emis)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DueDate.Before(sorted[j].DueDate.Time)
	})

	sched := &Schedule{EMIs: sorted, PaidAmount: decimal.Zero, DueAmount: decimal.Zero}
	for i := range sorted {
		e := &sorted[i]
		switch e.Status {
		case models.EMIPaid:
			sched.Paid++
			sched.PaidAmount = sched.PaidAmount.Add(e.Amount)
		case models.EMIBounced:
			sched.Bounced++
			sched.DueAmount = sched.DueAmount.Add(e.Amount)
		default:
			sched.Pending++
			sched.DueAmount = sched.DueAmount.Add(e.Amount)
			if sched.NextDue == nil {
				sched.NextDue = e
			}
		}
	}
	return sched
}
