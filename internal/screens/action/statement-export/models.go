package statementexport

import (
	"context"
	"database/sql"

	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"

	"github.com/shopspring/decimal"
)

type RepaymentAPI interface {
	ListLoanEMIs(ctx context.Context, loanID string) ([]models.EMI, error)
}

type SelectionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Store is satisfied by *database.PostgresClient.
type Store interface {
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type ServiceDependencies struct {
	API       RepaymentAPI
	Store     Store
	Selection SelectionStore
	Logger    logger.Logger
}

// Report describes one export run and the table's totals for the loan afterwards.
type Report struct {
	LoanID      string
	Exported    int
	StoredRows  int
	StoredTotal decimal.Decimal
}
