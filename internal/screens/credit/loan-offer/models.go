package loanoffer

import (
	"context"

	"borrower-client/internal/app"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"

	"github.com/shopspring/decimal"
)

type Step string

const (
	StepReview     Step = "review"
	StepKYCConfirm Step = "kyc_confirm"
	StepSign       Step = "sign"
	StepSuccess    Step = "success"
)

// LoanAPI is the slice of the backend client the loan wizard calls.
type LoanAPI interface {
	GenerateOffers(ctx context.Context, invoiceID string) ([]models.Offer, error)
	ListInvoiceOffers(ctx context.Context, invoiceID string) ([]models.Offer, error)
	ListMyOffers(ctx context.Context) ([]models.Offer, error)
	ListMyLoans(ctx context.Context) ([]models.Loan, error)
	SanctionLoan(ctx context.Context, req models.SanctionRequest) (*models.SanctionResponse, error)
}

// SelectionStore holds the selected invoice, offer and loan ids.
type SelectionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type ServiceDependencies struct {
	API        LoanAPI
	Navigator  app.Navigator
	Selection  SelectionStore
	Compliance ComplianceCheck
	Logger     logger.Logger
}

// Breakdown is the settlement shown on the review step.
type Breakdown struct {
	Amount         decimal.Decimal
	PlatformFee    decimal.Decimal
	GSTOnFee       decimal.Decimal
	Disbursal      decimal.Decimal
	InterestRate   decimal.Decimal
	Tenure         int
	TenureUnit     string
	TotalRepayable decimal.Decimal
}

// Overview is the list view shown when no invoice is selected.
type Overview struct {
	Offers []models.Offer
	Loans  []models.Loan
}

type State struct {
	Step          Step
	InvoiceID     string
	Offer         *models.Offer
	Breakdown     *Breakdown
	TermsAccepted bool
	Loading       bool
	Error         string
	LoanID        string
}
