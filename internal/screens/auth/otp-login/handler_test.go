package otplogin

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"borrower-client/internal/app"
	"borrower-client/internal/common/config"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"

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

func (m *MockAPI) SendOTP(ctx context.Context, phone string) (*models.SendOTPResponse, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SendOTPResponse), args.Error(1)
}

func (m *MockAPI) VerifyOTP(ctx context.Context, phone, otp string) (*models.VerifyOTPResponse, error) {
	args := m.Called(ctx, phone, otp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerifyOTPResponse), args.Error(1)
}

func (m *MockAPI) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
	delays []time.Duration
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
	n.delays = append(n.delays, 0)
}

func (n *recordingNavigator) NavigateAfter(route string, delay time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
	n.delays = append(n.delays, delay)
}

func (n *recordingNavigator) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return ""
	}
	return n.routes[len(n.routes)-1]
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// ==========================
// Test Helpers
// ==========================

func newTestService(t *testing.T, otpLength int) (*Service, *MockAPI, *recordingNavigator, *fakeClock) {
	t.Helper()
	api := &MockAPI{}
	nav := &recordingNavigator{}
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	cfg.OTPLength = otpLength
	svc := NewService(ServiceDependencies{
		API:       api,
		Navigator: nav,
		Logger:    logger.NewTestLogger(t),
		Now:       clock.Now,
	}, cfg)
	return svc, api, nav, clock
}

// ==========================
// OTP Input Tests
// ==========================

func TestOTPInput_TypeAndBackspace(t *testing.T) {
	in := NewOTPInput(4)

	in.Type("1")
	in.Type("x")
	in.Type("2")
	assert.Equal(t, "12", in.Value())
	assert.Equal(t, 2, in.Focus())

	// focused box is empty: retreat and clear the previous one
	in.Backspace()
	assert.Equal(t, 1, in.Focus())
	assert.Equal(t, "1", in.Value())

	in.Type("3")
	in.Type("4")
	in.Type("5")
	assert.Equal(t, "1345", in.Value())
	assert.True(t, in.Complete())
	assert.Equal(t, 3, in.Focus())

	// focused box is filled: clear in place
	in.Backspace()
	assert.Equal(t, 3, in.Focus())
	assert.Equal(t, "134", in.Value())
	assert.False(t, in.Complete())
}

func TestOTPInput_Paste(t *testing.T) {
	tests := []struct {
		name      string
		focus     int
		paste     string
		boxes     []string
		wantFocus int
	}{
		{"full code", 0, "123456", []string{"1", "2", "3", "4", "5", "6"}, 5},
		{"separators ignored", 0, "12-34 56", []string{"1", "2", "3", "4", "5", "6"}, 5},
		{"from middle", 2, "987", []string{"", "", "9", "8", "7", ""}, 5},
		{"overflow truncated", 4, "12345", []string{"", "", "", "", "1", "2"}, 5},
		{"short paste", 0, "12", []string{"1", "2", "", "", "", ""}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewOTPInput(6)
			in.SetFocus(tt.focus)
			in.Type(tt.paste)
			assert.Equal(t, tt.boxes, in.Boxes())
			assert.Equal(t, tt.wantFocus, in.Focus())
		})
	}
}

func TestOTPInput_BackspaceAtStart(t *testing.T) {
	in := NewOTPInput(4)
	in.Backspace()
	assert.Equal(t, 0, in.Focus())
	assert.Equal(t, "", in.Value())
}

// ==========================
// Service Tests
// ==========================

func TestService_SendOTP(t *testing.T) {
	svc, api, _, clock := newTestService(t, 6)
	api.On("SendOTP", mock.Anything, "9876543210").Return(&models.SendOTPResponse{Message: "OTP sent"}, nil).Twice()

	require.NoError(t, svc.SendOTP(context.Background(), "9876543210"))
	st := svc.State()
	assert.Equal(t, StepOTP, st.Step)
	assert.Equal(t, 59*time.Second, st.ResendIn)
	assert.False(t, st.CanResend)
	assert.False(t, st.CanVerify)

	clock.Advance(30*time.Second + 500*time.Millisecond)
	assert.Equal(t, 29*time.Second, svc.ResendIn())

	err := svc.Resend(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.Code(err))

	clock.Advance(29 * time.Second)
	assert.True(t, svc.CanResend())
	require.NoError(t, svc.Resend(context.Background()))
	assert.Equal(t, 59*time.Second, svc.ResendIn())

	api.AssertExpectations(t)
}

func TestService_SendOTP_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		phone string
	}{
		{"too short", "98765"},
		{"letters", "98765abcde"},
		{"letters inside a full-length number", "98765abc43210"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api, _, _ := newTestService(t, 6)
			err := svc.SendOTP(context.Background(), tt.phone)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeValidationFailed, errors.Code(err))
			assert.Equal(t, StepPhone, svc.State().Step)
			assert.NotEmpty(t, svc.State().Error)
			api.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
		})
	}
}

func TestService_SendOTP_BackendRejects(t *testing.T) {
	svc, api, _, _ := newTestService(t, 6)
	api.On("SendOTP", mock.Anything, "9876543210").
		Return(nil, errors.NewAPIError("POST", "/auth/otp/send", 404, "Number not registered"))

	err := svc.SendOTP(context.Background(), "9876543210")
	require.Error(t, err)
	st := svc.State()
	assert.Equal(t, StepPhone, st.Step)
	assert.Equal(t, "Number not registered", st.Error)
}

func TestService_Verify(t *testing.T) {
	tests := []struct {
		name        string
		otpLength   int
		code        string
		isOnboarded bool
		wantRoute   string
	}{
		{"onboarded goes to dashboard", 6, "123456", true, app.RouteDashboard},
		{"new user goes to onboarding", 6, "654321", false, app.RouteOnboarding},
		{"four digit code", 4, "1234", true, app.RouteDashboard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api, nav, _ := newTestService(t, tt.otpLength)
			api.On("SendOTP", mock.Anything, "9876543210").Return(&models.SendOTPResponse{}, nil)
			api.On("VerifyOTP", mock.Anything, "9876543210", tt.code).
				Return(&models.VerifyOTPResponse{AccessToken: "a", IsOnboarded: tt.isOnboarded}, nil)

			require.NoError(t, svc.SendOTP(context.Background(), "9876543210"))
			svc.Input().Paste(tt.code)
			assert.True(t, svc.State().CanVerify)

			require.NoError(t, svc.Verify(context.Background()))
			assert.Equal(t, tt.wantRoute, nav.last())
			api.AssertExpectations(t)
		})
	}
}

func TestService_Verify_Incomplete(t *testing.T) {
	svc, api, nav, _ := newTestService(t, 6)
	api.On("SendOTP", mock.Anything, mock.Anything).Return(&models.SendOTPResponse{}, nil)
	require.NoError(t, svc.SendOTP(context.Background(), "9876543210"))

	svc.Input().Paste("1234")
	assert.False(t, svc.State().CanVerify)

	err := svc.Verify(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.Code(err))
	api.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, nav.last())
}

func TestService_Verify_WrongStep(t *testing.T) {
	svc, _, _, _ := newTestService(t, 6)
	err := svc.Verify(context.Background())
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.Code(err))
}

func TestService_Verify_Rejected(t *testing.T) {
	svc, api, nav, _ := newTestService(t, 6)
	api.On("SendOTP", mock.Anything, mock.Anything).Return(&models.SendOTPResponse{}, nil)
	api.On("VerifyOTP", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.NewAPIError("POST", "/auth/otp/verify", 400, "Invalid OTP"))

	require.NoError(t, svc.SendOTP(context.Background(), "9876543210"))
	svc.Input().Paste("000000")
	require.Error(t, svc.Verify(context.Background()))

	st := svc.State()
	assert.Equal(t, StepOTP, st.Step)
	assert.Equal(t, "Invalid OTP", st.Error)
	assert.Empty(t, nav.last())
}

func TestService_BackToPhoneAndLogout(t *testing.T) {
	svc, api, nav, _ := newTestService(t, 6)
	api.On("SendOTP", mock.Anything, mock.Anything).Return(&models.SendOTPResponse{}, nil)
	api.On("Logout", mock.Anything).Return(nil)

	require.NoError(t, svc.SendOTP(context.Background(), "9876543210"))
	svc.Input().Paste("12")
	svc.BackToPhone()
	st := svc.State()
	assert.Equal(t, StepPhone, st.Step)
	assert.Equal(t, []string{"", "", "", "", "", ""}, st.Boxes)
	assert.Zero(t, st.ResendIn)

	require.NoError(t, svc.Logout(context.Background()))
	assert.Equal(t, app.RouteLogin, nav.last())
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
		errMsg  string
	}{
		{
			name: "defaults from app config",
			opts: HandlerOptions{AppConfig: config.Default(), API: &MockAPI{}, Navigator: &recordingNavigator{}, Logger: logger.NewNoOpLogger()},
		},
		{
			name:    "bad otp length",
			opts:    HandlerOptions{CustomConfig: &Config{Enabled: true, Timeout: time.Second, OTPLength: 5}, API: &MockAPI{}, Navigator: &recordingNavigator{}},
			wantErr: true,
			errMsg:  "otp_length must be 4 or 6",
		},
		{
			name:    "invalid timeout",
			opts:    HandlerOptions{CustomConfig: &Config{Enabled: true, OTPLength: 6}, API: &MockAPI{}, Navigator: &recordingNavigator{}},
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name:    "missing api",
			opts:    HandlerOptions{Navigator: &recordingNavigator{}},
			wantErr: true,
			errMsg:  "requires an API client",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, h)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 6, h.config.OTPLength)
			assert.Equal(t, 59*time.Second, h.config.ResendCountdown)
		})
	}
}

func TestHandler_Run(t *testing.T) {
	api := &MockAPI{}
	nav := &recordingNavigator{}
	api.On("SendOTP", mock.Anything, "9876543210").Return(&models.SendOTPResponse{}, nil)
	api.On("VerifyOTP", mock.Anything, "9876543210", "111111").
		Return(nil, errors.NewAPIError("POST", "/auth/otp/verify", 400, "Invalid OTP")).Once()
	api.On("VerifyOTP", mock.Anything, "9876543210", "123456").
		Return(&models.VerifyOTPResponse{AccessToken: "a", IsOnboarded: false}, nil).Once()

	h, err := NewHandler(HandlerOptions{API: api, Navigator: nav, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)

	var out bytes.Buffer
	in := strings.NewReader("12345\n9876543210\n111111\n123456\n")
	require.NoError(t, h.Run(context.Background(), "", in, &out))

	assert.Contains(t, out.String(), "Please enter a valid phone number")
	assert.Contains(t, out.String(), "Invalid OTP")
	assert.Contains(t, out.String(), "Resend in 59s")
	assert.Contains(t, out.String(), "Signed in.")
	assert.Equal(t, app.RouteOnboarding, nav.last())
}

func TestHandler_RunDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	h, err := NewHandler(HandlerOptions{CustomConfig: cfg, API: &MockAPI{}, Navigator: &recordingNavigator{}})
	require.NoError(t, err)
	assert.Error(t, h.Run(context.Background(), "9876543210", strings.NewReader(""), &bytes.Buffer{}))
}
