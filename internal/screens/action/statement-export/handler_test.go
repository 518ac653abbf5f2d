package statementexport

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"borrower-client/internal/common/database"
	apperrors "borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/common/metrics"
	"borrower-client/internal/models"
	"borrower-client/internal/session"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListLoanEMIs(ctx context.Context, loanID string) ([]models.EMI, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EMI), args.Error(1)
}

const (
	schemaPattern = `CREATE TABLE IF NOT EXISTS "emi_statements"`
	upsertPattern = `INSERT INTO "emi_statements" .* ON CONFLICT \(emi_id\) DO UPDATE`
	totalsPattern = `SELECT COUNT\(\*\), COALESCE\(SUM\(amount\), 0\) FROM "emi_statements" WHERE loan_id = \$1`
)

func emis() []models.EMI {
	return []models.EMI{
		{ID: "emi-1", LoanID: "loan-1", Amount: decimal.RequireFromString("21666.67"),
			DueDate: models.Timestamp{Time: time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC)}, Status: models.EMIPending},
		{ID: "emi-2", LoanID: "loan-1", Amount: decimal.RequireFromString("21666.67"), Status: models.EMIPaid, RetryCount: 1},
	}
}

func newService(t *testing.T, cfg *Config) (*Service, sqlmock.Sqlmock, *MockAPI) {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	api := &MockAPI{}
	svc := NewService(ServiceDependencies{
		API:    api,
		Store:  database.NewPostgresFromDB(db),
		Logger: logger.NewTestLogger(t),
	}, cfg)
	return svc, sqlMock, api
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.RetryBackoff = 0
	return cfg
}

func expectUpserts(m sqlmock.Sqlmock) {
	m.ExpectExec(upsertPattern).
		WithArgs("emi-1", "loan-1", "21666.67", sqlmock.AnyArg(), "PENDING", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	m.ExpectExec(upsertPattern).
		WithArgs("emi-2", "loan-1", "21666.67", nil, "PAID", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// ==========================
// Export
// ==========================

func TestService_Export(t *testing.T) {
	svc, sqlMock, api := newService(t, testConfig())
	api.On("ListLoanEMIs", mock.Anything, "loan-1").Return(emis(), nil)

	sqlMock.ExpectExec(schemaPattern).WillReturnResult(sqlmock.NewResult(0, 0))
	sqlMock.ExpectBegin()
	expectUpserts(sqlMock)
	sqlMock.ExpectCommit()
	sqlMock.ExpectQuery(totalsPattern).WithArgs("loan-1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(2, "43333.34"))

	before := testutil.ToFloat64(metrics.StatementRowsExported)

	report, err := svc.Export(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Exported)
	assert.Equal(t, 2, report.StoredRows)
	assert.True(t, report.StoredTotal.Equal(decimal.RequireFromString("43333.34")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StatementRowsExported)-before)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_ExportRetriesTransaction(t *testing.T) {
	cfg := testConfig()
	cfg.EnsureSchema = false
	svc, sqlMock, api := newService(t, cfg)
	api.On("ListLoanEMIs", mock.Anything, "loan-1").Return(emis(), nil)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(upsertPattern).WillReturnError(errors.New("deadlock detected"))
	sqlMock.ExpectRollback()
	sqlMock.ExpectBegin()
	expectUpserts(sqlMock)
	sqlMock.ExpectCommit()
	sqlMock.ExpectQuery(totalsPattern).WithArgs("loan-1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(2, "43333.34"))

	report, err := svc.Export(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Exported)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_ExportGivesUp(t *testing.T) {
	cfg := testConfig()
	cfg.EnsureSchema = false
	svc, sqlMock, api := newService(t, cfg)
	api.On("ListLoanEMIs", mock.Anything, "loan-1").Return(emis(), nil)

	attempts := 1 + apperrors.GetRetryCount(apperrors.ErrCodeStatementExportFailed)
	for i := 0; i < attempts; i++ {
		sqlMock.ExpectBegin()
		sqlMock.ExpectExec(upsertPattern).WillReturnError(errors.New("connection refused"))
		sqlMock.ExpectRollback()
	}

	_, err := svc.Export(context.Background(), "loan-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStatementExportFailed, apperrors.Code(err))
	assert.Contains(t, errors.Unwrap(err).Error(), "connection refused")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_ExportSchemaFailure(t *testing.T) {
	svc, sqlMock, api := newService(t, testConfig())
	api.On("ListLoanEMIs", mock.Anything, "loan-1").Return(emis(), nil)
	sqlMock.ExpectExec(schemaPattern).WillReturnError(errors.New("permission denied"))

	_, err := svc.Export(context.Background(), "loan-1")
	assert.Equal(t, apperrors.ErrCodeStatementExportFailed, apperrors.Code(err))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_ExportAPIError(t *testing.T) {
	svc, sqlMock, api := newService(t, testConfig())
	api.On("ListLoanEMIs", mock.Anything, "loan-1").Return(nil, apperrors.NewAPIError("GET", "/repayments/loan/loan-1/emis", 404, "Loan not found"))

	_, err := svc.Export(context.Background(), "loan-1")
	require.Error(t, err)
	assert.Equal(t, "Loan not found", apperrors.UserMessage(err))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

// ==========================
// Handler
// ==========================

func TestHandler_ExportSelectedLoan(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	sess := session.New(session.NewMemoryStore(), logger.NewNoOpLogger())
	require.NoError(t, sess.Set(ctx, models.KeySelectedLoanID, "loan-1"))

	api := &MockAPI{}
	api.On("ListLoanEMIs", mock.Anything, "loan-1").Return(emis()[:1], nil)

	h, err := NewHandler(HandlerOptions{
		API:          api,
		Store:        database.NewPostgresFromDB(db),
		Selection:    sess,
		CustomConfig: testConfig(),
		Logger:       logger.NewNoOpLogger(),
	})
	require.NoError(t, err)

	sqlMock.ExpectExec(schemaPattern).WillReturnResult(sqlmock.NewResult(0, 0))
	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(upsertPattern).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()
	sqlMock.ExpectQuery(totalsPattern).WithArgs("loan-1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(1, "21666.67"))

	var out bytes.Buffer
	_, err = h.Export(ctx, "", &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Exported 1 EMI row(s) for loan loan-1 to emi_statements")
	assert.Contains(t, out.String(), "₹21,666.67")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestHandler_ExportNoLoan(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h, err := NewHandler(HandlerOptions{API: &MockAPI{}, Store: database.NewPostgresFromDB(db)})
	require.NoError(t, err)

	_, err = h.Export(context.Background(), "", &bytes.Buffer{})
	assert.Equal(t, "No loan selected", apperrors.UserMessage(err))
}

func TestNewHandler(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := database.NewPostgresFromDB(db)

	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
	}{
		{"valid", HandlerOptions{API: &MockAPI{}, Store: store}, false},
		{"missing store", HandlerOptions{API: &MockAPI{}}, true},
		{"missing api", HandlerOptions{Store: store}, true},
		{"unsafe table", HandlerOptions{API: &MockAPI{}, Store: store, CustomConfig: &Config{Enabled: true, Timeout: time.Second, Table: "x; DROP TABLE y"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHandler(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
