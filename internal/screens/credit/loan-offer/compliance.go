package loanoffer

import (
	"context"
	"time"

	"borrower-client/internal/models"
)

// ComplianceCheck gates the review and KYC-confirmation steps.
type ComplianceCheck interface {
	Check(ctx context.Context, step Step, offer models.Offer) error
}

// SimulatedCompliance stands in for a real check by waiting Delay.
type SimulatedCompliance struct {
	Delay time.Duration
}

func (s SimulatedCompliance) Check(ctx context.Context, _ Step, _ models.Offer) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
