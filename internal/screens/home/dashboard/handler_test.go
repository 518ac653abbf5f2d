package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) GetDashboard(ctx context.Context) (*models.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dashboard), args.Error(1)
}

func (m *MockAPI) GetProfile(ctx context.Context) (*models.BusinessProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BusinessProfile), args.Error(1)
}

func (m *MockAPI) GetCreditScore(ctx context.Context) (*models.CreditScore, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditScore), args.Error(1)
}

func (m *MockAPI) ListInvoices(ctx context.Context, status string) ([]models.Invoice, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func decodeDashboard(t *testing.T, body string) *models.Dashboard {
	t.Helper()
	var d models.Dashboard
	require.NoError(t, json.Unmarshal([]byte(body), &d))
	return &d
}

// ==========================
// Rendering
// ==========================

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		limit   int
		want    []string
		notWant []string
	}{
		{
			name: "next emi present",
			body: `{"available_limit": 500000, "credit_score": 742.4, "risk_grade": "A",
				"active_loans_total": 250000, "next_emi_amount": 21666.67, "next_emi_date": "2026-11-05",
				"recent_activity": [{"id": "a1", "title": "Loan disbursed", "subtitle": "INV-001", "amount": 244100, "date": "2026-10-01T09:00:00"}]}`,
			want: []string{"₹5,00,000", "742/900", "A (Low risk)", "₹2,50,000", "₹21,666.67 on 05 Nov 2026", "Loan disbursed", "₹2,44,100"},
		},
		{
			name: "no emi and no activity",
			body: `{"available_limit": 0, "credit_score": 0, "risk_grade": null,
				"active_loans_total": 0, "next_emi_amount": null, "next_emi_date": null, "recent_activity": []}`,
			want: []string{"None due", "- (Unrated)", "No recent activity"},
		},
		{
			name: "recent activity is capped",
			body: `{"recent_activity": [
				{"title": "first", "amount": 1}, {"title": "second", "amount": 2}, {"title": "third", "amount": 3}]}`,
			limit:   2,
			want:    []string{"first", "second"},
			notWant: []string{"third"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			Render(&out, decodeDashboard(t, tt.body), tt.limit)
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, out.String(), w)
			}
		})
	}
}

// ==========================
// Overview
// ==========================

func TestService_Overview(t *testing.T) {
	api := &MockAPI{}
	api.On("GetProfile", mock.Anything).Return(&models.BusinessProfile{ID: "biz-1", GSTNumber: "22ABCDE1234F1Z5"}, nil)
	api.On("GetCreditScore", mock.Anything).Return(&models.CreditScore{FinalScore: decimal.NewFromInt(700), RiskGrade: models.RiskGradeB}, nil)
	api.On("ListInvoices", mock.Anything, "").Return([]models.Invoice{
		{ID: "i1", Status: models.InvoiceUnpaid},
		{ID: "i2", Status: models.InvoiceOverdue},
		{ID: "i3", Status: models.InvoiceFinanced},
	}, nil)

	ov, err := NewService(api, "TechCorp Solutions", logger.NewNoOpLogger()).Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TechCorp Solutions", ov.Profile.DisplayName)
	assert.Equal(t, 2, ov.PendingCount())

	var out bytes.Buffer
	RenderOverview(&out, ov)
	assert.Contains(t, out.String(), "Score 700/900, grade B")
	assert.Contains(t, out.String(), "Invoices: 3 total, 2 pending")
}

func TestService_OverviewFailsFast(t *testing.T) {
	api := &MockAPI{}
	api.On("GetProfile", mock.Anything).Return(nil, errors.New("profile down"))
	api.On("GetCreditScore", mock.Anything).Return(&models.CreditScore{}, nil).Maybe()
	api.On("ListInvoices", mock.Anything, "").Return(nil, context.Canceled).Maybe()

	ov, err := NewService(api, "x", logger.NewNoOpLogger()).Overview(context.Background())
	assert.Nil(t, ov)
	assert.Error(t, err)
}

// ==========================
// Handler
// ==========================

func TestHandler_Show(t *testing.T) {
	api := &MockAPI{}
	api.On("GetDashboard", mock.Anything).Return(&models.Dashboard{AvailableLimit: decimal.NewFromInt(100000)}, nil)
	api.On("GetProfile", mock.Anything).Return(&models.BusinessProfile{DisplayName: "Acme"}, nil)
	api.On("GetCreditScore", mock.Anything).Return(&models.CreditScore{FinalScore: decimal.NewFromInt(650)}, nil)
	api.On("ListInvoices", mock.Anything, "").Return([]models.Invoice{}, nil)

	h, err := NewHandler(HandlerOptions{AppConfig: config.Default(), API: api, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, h.Show(context.Background(), true, &out))
	assert.Contains(t, out.String(), "Acme")
	assert.Contains(t, out.String(), "₹1,00,000")
}

func TestHandler_ShowError(t *testing.T) {
	api := &MockAPI{}
	api.On("GetDashboard", mock.Anything).Return(nil, errors.New("boom"))

	h, err := NewHandler(HandlerOptions{API: api, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)
	assert.EqualError(t, h.Show(context.Background(), false, &bytes.Buffer{}), "boom")
	api.AssertNotCalled(t, "GetProfile", mock.Anything)
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
	}{
		{"valid", HandlerOptions{API: &MockAPI{}}, false},
		{"missing api", HandlerOptions{}, true},
		{"bad timeout", HandlerOptions{API: &MockAPI{}, CustomConfig: &Config{Enabled: true}}, true},
		{"negative limit", HandlerOptions{API: &MockAPI{}, CustomConfig: &Config{Enabled: true, Timeout: 1, RecentLimit: -1}}, true},
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

func TestHandler_Disabled(t *testing.T) {
	h, err := NewHandler(HandlerOptions{API: &MockAPI{}, CustomConfig: &Config{Enabled: false, Timeout: 1}})
	require.NoError(t, err)
	assert.Error(t, h.Show(context.Background(), false, &bytes.Buffer{}))
}
