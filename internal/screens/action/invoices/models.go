package invoices

import (
	"context"
	"fmt"
	"strings"

	"borrower-client/internal/app"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

// Tab filters the invoice list.
type Tab string

const (
	TabAll        Tab = "all"
	TabPending    Tab = "pending"
	TabDiscounted Tab = "discounted"
)

// ParseTab accepts a tab name in any case. Empty means all.
func ParseTab(s string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(s))) {
	case "", TabAll:
		return TabAll, nil
	case TabPending:
		return TabPending, nil
	case TabDiscounted:
		return TabDiscounted, nil
	}
	return "", fmt.Errorf("unknown tab %q, expected all, pending or discounted", s)
}

// Includes reports whether an invoice with status belongs on the tab.
func (t Tab) Includes(status models.InvoiceStatus) bool {
	switch t {
	case TabPending:
		return status.IsPending()
	case TabDiscounted:
		return status.IsDiscounted()
	}
	return true
}

type InvoiceAPI interface {
	ListInvoices(ctx context.Context, status string) ([]models.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	AddInvoice(ctx context.Context, req models.AddInvoiceRequest) (*models.Invoice, error)
}

type SelectionStore interface {
	Set(ctx context.Context, key, value string) error
}

type ServiceDependencies struct {
	API       InvoiceAPI
	Navigator app.Navigator
	Selection SelectionStore
	Logger    logger.Logger
}

// ListOptions narrows the list. Status is sent to the backend; Tab is applied
// locally.
type ListOptions struct {
	Tab    Tab
	Status string
}

// AddInvoiceInput is the new-invoice form.
type AddInvoiceInput struct {
	InvoiceNumber string
	Amount        float64
	DueDate       string
	DelayDays     int
}

// Listing is one rendered page of invoices with per-tab counts.
type Listing struct {
	Tab      Tab
	Invoices []models.Invoice
	Counts   map[Tab]int
}
