package dashboard

import (
	"context"

	"borrower-client/internal/models"
)

type DashboardAPI interface {
	GetDashboard(ctx context.Context) (*models.Dashboard, error)
	GetProfile(ctx context.Context) (*models.BusinessProfile, error)
	GetCreditScore(ctx context.Context) (*models.CreditScore, error)
	ListInvoices(ctx context.Context, status string) ([]models.Invoice, error)
}

// Overview is the home screen's combined load.
type Overview struct {
	Profile  *models.BusinessProfile
	Score    *models.CreditScore
	Invoices []models.Invoice
}

// PendingCount counts invoices still eligible for financing.
func (o *Overview) PendingCount() int {
	n := 0
	for _, inv := range o.Invoices {
		if inv.Status.IsPending() {
			n++
		}
	}
	return n
}
