// Package statementexport copies a loan's EMI schedule into PostgreSQL for
// offline reporting.
package statementexport

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/common/metrics"
	"borrower-client/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Service struct {
	config    *Config
	api       RepaymentAPI
	store     Store
	selection SelectionStore
	logger    logger.Logger
	table     string
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		api:       deps.API,
		store:     deps.Store,
		selection: deps.Selection,
		logger:    deps.Logger,
		table:     pq.QuoteIdentifier(config.Table),
	}
}

func (s *Service) schemaSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	emi_id      TEXT PRIMARY KEY,
	loan_id     TEXT NOT NULL,
	amount      NUMERIC(14, 2) NOT NULL,
	due_date    DATE,
	status      TEXT NOT NULL,
	retry_count INTEGER NOT NULL DEFAULT 0,
	exported_at TIMESTAMPTZ NOT NULL
)`, s.table)
}

func (s *Service) upsertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (emi_id, loan_id, amount, due_date, status, retry_count, exported_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (emi_id) DO UPDATE SET
	loan_id = EXCLUDED.loan_id,
	amount = EXCLUDED.amount,
	due_date = EXCLUDED.due_date,
	status = EXCLUDED.status,
	retry_count = EXCLUDED.retry_count,
	exported_at = EXCLUDED.exported_at`, s.table)
}

func (s *Service) totalsSQL() string {
	return fmt.Sprintf(`SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM %s WHERE loan_id = $1`, s.table)
}

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

// Export upserts every EMI of the loan in one transaction. A failed
// transaction is retried as a whole.
func (s *Service) Export(ctx context.Context, loanID string) (*Report, error) {
	emis, err := s.api.ListLoanEMIs(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if s.config.EnsureSchema {
		if _, err := s.store.Exec(ctx, s.schemaSQL()); err != nil {
			return nil, errors.NewStatementExportFailedError(loanID, err)
		}
	}

	maxRetries := errors.GetRetryCount(errors.ErrCodeStatementExportFailed)
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.config.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, errors.NewStatementExportFailedError(loanID, ctx.Err())
			}
			s.logger.Warn("retrying statement export", map[string]interface{}{
				"loanId":  loanID,
				"attempt": attempt,
				"error":   lastErr.Error(),
			})
		}

		lastErr = s.store.WithTx(ctx, func(tx *sql.Tx) error {
			return s.upsert(ctx, tx, emis)
		})
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		s.logger.Error("statement export failed", map[string]interface{}{
			"loanId": loanID,
			"error":  lastErr.Error(),
		})
		return nil, errors.NewStatementExportFailedError(loanID, lastErr)
	}
	metrics.StatementRowsExported.Add(float64(len(emis)))

	report := &Report{LoanID: loanID, Exported: len(emis)}
	var total string
	if err := s.store.QueryRow(ctx, s.totalsSQL(), loanID).Scan(&report.StoredRows, &total); err != nil {
		return nil, errors.NewStatementExportFailedError(loanID, err)
	}
	report.StoredTotal, err = decimal.NewFromString(total)
	if err != nil {
		return nil, errors.NewStatementExportFailedError(loanID, err)
	}

	s.logger.Info("statement exported", map[string]interface{}{
		"loanId":   loanID,
		"exported": report.Exported,
		"stored":   report.StoredRows,
	})
	return report, nil
}

func (s *Service) upsert(ctx context.Context, tx *sql.Tx, emis []models.EMI) error {
	query := s.upsertSQL()
	exportedAt := time.Now().UTC()
	for _, emi := range emis {
		var due interface{}
		if !emi.DueDate.IsZero() {
			due = emi.DueDate.UTC()
		}
		if _, err := tx.ExecContext(ctx, query,
			emi.ID, emi.LoanID, emi.Amount.StringFixed(2), due, string(emi.Status), emi.RetryCount, exportedAt,
		); err != nil {
			return fmt.Errorf("upsert emi %s: %w", emi.ID, err)
		}
	}
	return nil
}
