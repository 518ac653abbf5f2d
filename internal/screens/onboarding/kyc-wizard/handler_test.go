package kycwizard

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"borrower-client/internal/app"
	"borrower-client/internal/common/config"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
	"borrower-client/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) SubmitKYC(ctx context.Context, req models.KYCRequest) (*models.KYCResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KYCResponse), args.Error(1)
}

type navCall struct {
	route string
	delay time.Duration
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []navCall
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{route: route})
}

func (n *recordingNavigator) NavigateAfter(route string, delay time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{route: route, delay: delay})
}

// ==========================
// Test Helpers
// ==========================

const (
	validAadhaar = "123456789012"
	validPAN     = "ABCDE1234F"
	validGST     = "22ABCDE1234F1Z5"
)

func newTestService(t *testing.T, persist bool) (*Service, *MockAPI, *recordingNavigator, *session.Session) {
	t.Helper()
	api := &MockAPI{}
	nav := &recordingNavigator{}
	sess := session.New(session.NewMemoryStore(), logger.NewNoOpLogger())
	cfg := DefaultConfig()
	cfg.PersistDrafts = persist
	svc := NewService(ServiceDependencies{
		API:       api,
		Navigator: nav,
		Drafts:    sess,
		Logger:    logger.NewTestLogger(t),
	}, cfg)
	return svc, api, nav, sess
}

// ==========================
// Guard Tests
// ==========================

func TestService_Guards(t *testing.T) {
	tests := []struct {
		name     string
		step     Step
		input    string
		wantStep Step
		wantErr  bool
	}{
		{"aadhaar valid", StepAadhaar, validAadhaar, StepPAN, false},
		{"aadhaar trimmed", StepAadhaar, "  " + validAadhaar + " ", StepPAN, false},
		{"aadhaar eleven digits", StepAadhaar, "12345678901", StepAadhaar, true},
		{"aadhaar inner space", StepAadhaar, "1234 5678 9012", StepAadhaar, true},
		{"aadhaar letters", StepAadhaar, "12345678901a", StepAadhaar, true},
		{"pan valid", StepPAN, validPAN, StepBusiness, false},
		{"pan lowercase accepted", StepPAN, " abcde1234f ", StepBusiness, false},
		{"pan wrong shape", StepPAN, "ABCD12345F", StepPAN, true},
		{"gst too short", StepBusiness, "22ABCDE1234F1Z", StepBusiness, true},
		{"gst symbols", StepBusiness, "22ABCDE1234F1Z-", StepBusiness, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api, _, _ := newTestService(t, false)
			ctx := context.Background()
			if tt.step != StepAadhaar {
				require.NoError(t, svc.Next(ctx, validAadhaar))
			}
			if tt.step == StepBusiness {
				require.NoError(t, svc.Next(ctx, validPAN))
			}

			err := svc.Next(ctx, tt.input)
			st := svc.State()
			assert.Equal(t, tt.wantStep, st.Step)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeValidationFailed, errors.Code(err))
				assert.NotEmpty(t, st.Error)
			} else {
				require.NoError(t, err)
				assert.Empty(t, st.Error)
			}
			api.AssertNotCalled(t, "SubmitKYC", mock.Anything, mock.Anything)
		})
	}
}

// ==========================
// Submission Tests
// ==========================

func TestService_SubmitSuccess(t *testing.T) {
	svc, api, nav, _ := newTestService(t, false)
	ctx := context.Background()

	api.On("SubmitKYC", mock.Anything, models.KYCRequest{
		AadhaarNumber: validAadhaar,
		PANNumber:     validPAN,
		GSTNumber:     validGST,
	}).Return(&models.KYCResponse{Message: "KYC completed", BusinessID: "biz-1"}, nil).Once()

	require.NoError(t, svc.Next(ctx, validAadhaar))
	require.NoError(t, svc.Next(ctx, "abcde1234f"))
	require.NoError(t, svc.Next(ctx, strings.ToLower(validGST)))

	st := svc.State()
	assert.Equal(t, StepSuccess, st.Step)
	assert.Equal(t, "biz-1", st.BusinessID)
	require.Len(t, nav.calls, 1)
	assert.Equal(t, navCall{route: app.RouteDashboard, delay: 2500 * time.Millisecond}, nav.calls[0])

	err := svc.Next(ctx, "anything")
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.Code(err))
	api.AssertExpectations(t)
}

func TestService_SubmitRejected(t *testing.T) {
	svc, api, nav, _ := newTestService(t, false)
	ctx := context.Background()
	api.On("SubmitKYC", mock.Anything, mock.Anything).
		Return(nil, errors.NewAPIError("POST", "/kyc/onboard", 400, "GST already registered"))

	require.NoError(t, svc.Next(ctx, validAadhaar))
	require.NoError(t, svc.Next(ctx, validPAN))
	require.Error(t, svc.Next(ctx, validGST))

	st := svc.State()
	assert.Equal(t, StepBusiness, st.Step)
	assert.Equal(t, "GST already registered", st.Error)
	assert.False(t, st.Loading)
	assert.Empty(t, nav.calls)
}

func TestService_Back(t *testing.T) {
	svc, _, _, _ := newTestService(t, false)
	ctx := context.Background()

	err := svc.Back()
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.Code(err))

	require.NoError(t, svc.Next(ctx, validAadhaar))
	require.NoError(t, svc.Next(ctx, validPAN))
	require.NoError(t, svc.Back())
	assert.Equal(t, StepPAN, svc.State().Step)
	require.NoError(t, svc.Back())

	st := svc.State()
	assert.Equal(t, StepAadhaar, st.Step)
	assert.Equal(t, validAadhaar, st.Aadhaar)
	assert.Equal(t, validPAN, st.PAN)
}

// ==========================
// Draft Persistence Tests
// ==========================

func TestService_DraftRoundTrip(t *testing.T) {
	svc, api, _, sess := newTestService(t, true)
	ctx := context.Background()

	require.NoError(t, svc.Next(ctx, validAadhaar))
	require.NoError(t, svc.Next(ctx, "abcde1234f"))
	assert.Equal(t, validAadhaar, sess.Value(ctx, models.KeyKYCAadhaar))
	assert.Equal(t, validPAN, sess.Value(ctx, models.KeyKYCPAN))

	// a fresh wizard on the same session picks up at the business step
	resumed := NewService(ServiceDependencies{
		API:       api,
		Navigator: &recordingNavigator{},
		Drafts:    sess,
		Logger:    logger.NewNoOpLogger(),
	}, svc.config)
	require.NoError(t, resumed.Resume(ctx))
	st := resumed.State()
	assert.Equal(t, StepBusiness, st.Step)
	assert.Equal(t, validAadhaar, st.Aadhaar)
	assert.Equal(t, validPAN, st.PAN)

	api.On("SubmitKYC", mock.Anything, mock.Anything).Return(&models.KYCResponse{BusinessID: "biz-2"}, nil)
	require.NoError(t, resumed.Next(ctx, validGST))

	for _, key := range models.KYCDraftKeys {
		_, ok, err := sess.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestService_ResumeInvalidDraft(t *testing.T) {
	svc, _, _, sess := newTestService(t, true)
	ctx := context.Background()
	require.NoError(t, sess.Set(ctx, models.KeyKYCAadhaar, validAadhaar))
	require.NoError(t, sess.Set(ctx, models.KeyKYCPAN, "bad"))

	require.NoError(t, svc.Resume(ctx))
	assert.Equal(t, StepPAN, svc.State().Step)
}

func TestService_DraftsDisabled(t *testing.T) {
	svc, _, _, sess := newTestService(t, false)
	ctx := context.Background()
	require.NoError(t, sess.Set(ctx, models.KeyKYCAadhaar, validAadhaar))

	require.NoError(t, svc.Resume(ctx))
	assert.Equal(t, StepAadhaar, svc.State().Step)

	require.NoError(t, svc.Next(ctx, "999988887777"))
	assert.Equal(t, validAadhaar, sess.Value(ctx, models.KeyKYCAadhaar))
}

type failingDrafts struct{ DraftStore }

func (failingDrafts) Set(context.Context, string, string) error { return stderrors.New("disk full") }

func TestService_DraftWriteFailure(t *testing.T) {
	sess := session.New(session.NewMemoryStore(), logger.NewNoOpLogger())
	cfg := DefaultConfig()
	cfg.PersistDrafts = true
	svc := NewService(ServiceDependencies{
		API:       &MockAPI{},
		Navigator: &recordingNavigator{},
		Drafts:    failingDrafts{DraftStore: sess},
		Logger:    logger.NewNoOpLogger(),
	}, cfg)

	require.Error(t, svc.Next(context.Background(), validAadhaar))
	assert.Equal(t, StepAadhaar, svc.State().Step)
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	appCfg := config.Default()
	appCfg.Flows.PersistKYCDrafts = true
	appCfg.Flows.OnboardingRedirect = 1000

	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr string
	}{
		{
			name: "app config with drafts",
			opts: HandlerOptions{AppConfig: appCfg, API: &MockAPI{}, Navigator: &recordingNavigator{}, Drafts: session.New(session.NewMemoryStore(), logger.NewNoOpLogger())},
		},
		{
			name:    "drafts without store",
			opts:    HandlerOptions{AppConfig: appCfg, API: &MockAPI{}, Navigator: &recordingNavigator{}},
			wantErr: "requires a draft store",
		},
		{
			name:    "negative redirect",
			opts:    HandlerOptions{CustomConfig: &Config{Enabled: true, Timeout: time.Second, RedirectDelay: -1}, API: &MockAPI{}, Navigator: &recordingNavigator{}},
			wantErr: "redirect_delay",
		},
		{
			name:    "missing navigator",
			opts:    HandlerOptions{API: &MockAPI{}},
			wantErr: "requires an API client and a navigator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, h.config.PersistDrafts)
			assert.Equal(t, time.Second, h.config.RedirectDelay)
		})
	}
}

func TestHandler_Run(t *testing.T) {
	api := &MockAPI{}
	nav := &recordingNavigator{}
	api.On("SubmitKYC", mock.Anything, mock.Anything).Return(&models.KYCResponse{Message: "KYC completed", BusinessID: "biz-9"}, nil)

	h, err := NewHandler(HandlerOptions{API: api, Navigator: nav, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)

	var out bytes.Buffer
	in := strings.NewReader(strings.Join([]string{"123", validAadhaar, "b", validAadhaar, validPAN, validGST}, "\n") + "\n")
	require.NoError(t, h.Run(context.Background(), in, &out))

	text := out.String()
	assert.Contains(t, text, "Aadhaar must be exactly 12 digits")
	assert.Contains(t, text, "Step 2 of 3: Verify PAN")
	assert.Contains(t, text, "Business ID: biz-9")
	require.Len(t, nav.calls, 1)
	assert.Equal(t, app.RouteDashboard, nav.calls[0].route)
}

func TestHandler_RunEOF(t *testing.T) {
	h, err := NewHandler(HandlerOptions{API: &MockAPI{}, Navigator: &recordingNavigator{}, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)
	err = h.Run(context.Background(), strings.NewReader(validAadhaar+"\n"), &bytes.Buffer{})
	assert.Error(t, err)
	assert.Equal(t, StepPAN, h.Service().State().Step)
}
