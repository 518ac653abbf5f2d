package repayments

import (
	"context"

	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"

	"github.com/shopspring/decimal"
)

type RepaymentAPI interface {
	GetLoan(ctx context.Context, id string) (*models.Loan, error)
	ListLoanEMIs(ctx context.Context, loanID string) ([]models.EMI, error)
	ListMyRepayments(ctx context.Context) ([]models.EMI, error)
	PayEMI(ctx context.Context, emiID string) (*models.EMIActionResponse, error)
	BounceEMI(ctx context.Context, emiID string) (*models.EMIActionResponse, error)
}

type SelectionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

type ServiceDependencies struct {
	API       RepaymentAPI
	Selection SelectionStore
	Logger    logger.Logger
}

// Schedule is a list of EMIs with totals by status.
type Schedule struct {
	LoanID     string
	EMIs       []models.EMI
	Paid       int
	Pending    int
	Bounced    int
	PaidAmount decimal.Decimal
	DueAmount  decimal.Decimal
	NextDue    *models.EMI
}
