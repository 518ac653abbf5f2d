// Package invoices lists, adds and selects the borrower's invoices.
package invoices

import (
	"context"
	"net/url"
	"strings"

	"borrower-client/internal/app"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

type Service struct {
	config    *Config
	api       InvoiceAPI
	navigator app.Navigator
	selection SelectionStore
	logger    logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		api:       deps.API,
		navigator: deps.Navigator,
		selection: deps.Selection,
		logger:    deps.Logger,
	}
}

// List fetches invoices and applies the tab filter. Counts cover every tab
// over the fetched set.
func (s *Service) List(ctx context.Context, opts ListOptions) (*Listing, error) {
	tab := opts.Tab
	if tab == "" {
		tab = s.config.DefaultTab
	}

	all, err := s.api.ListInvoices(ctx, strings.ToUpper(strings.TrimSpace(opts.Status)))
	if err != nil {
		return nil, err
	}

	listing := &Listing{
		Tab:      tab,
		Invoices: make([]models.Invoice, 0, len(all)),
		Counts:   map[Tab]int{TabAll: len(all)},
	}
	for _, inv := range all {
		if inv.Status.IsPending() {
			listing.Counts[TabPending]++
		}
		if inv.Status.IsDiscounted() {
			listing.Counts[TabDiscounted]++
		}
		if tab.Includes(inv.Status) {
			listing.Invoices = append(listing.Invoices, inv)
		}
	}
	return listing, nil
}

func (s *Service) Detail(ctx context.Context, id string) (*models.Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewValidationError("id", "Invoice id is required")
	}
	return s.api.GetInvoice(ctx, id)
}

// Add validates the form and creates the invoice.
func (s *Service) Add(ctx context.Context, in AddInvoiceInput) (*models.Invoice, error) {
	if err := validateAddInput(in); err != nil {
		return nil, err
	}
	inv, err := s.api.AddInvoice(ctx, models.AddInvoiceRequest{
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		Amount:        in.Amount,
		DueDate:       strings.TrimSpace(in.DueDate),
		DelayDays:     in.DelayDays,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice added", map[string]interface{}{
		"invoiceId":     inv.ID,
		"invoiceNumber": inv.InvoiceNumber,
	})
	return inv, nil
}

// Select stores a pending invoice as the current selection and opens the
// loan wizard for it.
func (s *Service) Select(ctx context.Context, inv models.Invoice) error {
	if !inv.Status.IsPending() {
		return errors.NewValidationError("status", "Only pending invoices can be financed")
	}
	if s.selection != nil {
		if err := s.selection.Set(ctx, models.KeySelectedInvoiceID, inv.ID); err != nil {
			return err
		}
	}
	s.navigator.Navigate(LoanRoute(inv.ID))
	return nil
}

// SelectByID loads the invoice and selects it.
func (s *Service) SelectByID(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	return inv, s.Select(ctx, *inv)
}

// LoanRoute is the loan wizard route for an invoice.
func LoanRoute(invoiceID string) string {
	return app.RouteLoans + "?" + url.Values{"invoice_id": {invoiceID}}.Encode()
}
