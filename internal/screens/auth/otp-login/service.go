// Package otplogin is the phone and one-time password sign-in screen.
package otplogin

import (
	"context"
	"sync"
	"time"

	"borrower-client/internal/app"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/common/metrics"
	"borrower-client/internal/common/validation"
)

const flowName = "otp-login"

type Service struct {
	config    *Config
	api       AuthAPI
	navigator app.Navigator
	logger    logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	step    Step
	phone   string
	otp     *OTPInput
	sentAt  time.Time
	loading bool
	err     string
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		config:    config,
		api:       deps.API,
		navigator: deps.Navigator,
		logger:    deps.Logger,
		now:       now,
		step:      StepPhone,
		otp:       NewOTPInput(config.OTPLength),
	}
}

// SendOTP validates the phone number and asks the backend to text a code.
// On success the screen moves to the code step and the resend countdown starts.
func (s *Service) SendOTP(ctx context.Context, phone string) error {
	if !validation.ValidatePhone(phone) {
		return s.fail(string(StepPhone), errors.NewValidationError("phone", "Please enter a valid phone number"))
	}
	phone = validation.NormalizePhone(phone)

	s.setLoading(true)
	_, err := s.api.SendOTP(ctx, phone)
	s.setLoading(false)
	if err != nil {
		return s.fail(string(StepPhone), err)
	}

	s.mu.Lock()
	from := s.step
	s.step = StepOTP
	s.phone = phone
	s.sentAt = s.now()
	s.otp.Clear()
	s.err = ""
	s.mu.Unlock()

	metrics.FlowTransitionsTotal.WithLabelValues(flowName, string(from), string(StepOTP)).Inc()
	s.logger.Info("OTP sent", map[string]interface{}{"phone": maskPhone(phone)})
	return nil
}

// Resend re-sends the code once the countdown has run out.
func (s *Service) Resend(ctx context.Context) error {
	s.mu.Lock()
	step, phone := s.step, s.phone
	s.mu.Unlock()

	if step != StepOTP {
		return s.fail(string(step), errors.NewInvalidTransitionError(flowName, string(step), "resend"))
	}
	if !s.CanResend() {
		return s.fail(string(step), errors.NewValidationError("otp", "Please wait before requesting a new code"))
	}
	return s.SendOTP(ctx, phone)
}

// ResendIn is the time left on the countdown, rounded up to whole seconds.
func (s *Service) ResendIn() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepOTP {
		return 0
	}
	left := s.config.ResendCountdown - s.now().Sub(s.sentAt)
	if left <= 0 {
		return 0
	}
	return ((left + time.Second - 1) / time.Second) * time.Second
}

func (s *Service) CanResend() bool {
	return s.ResendIn() == 0
}

// BackToPhone returns to the phone step, dropping the typed code.
func (s *Service) BackToPhone() {
	s.mu.Lock()
	from := s.step
	s.step = StepPhone
	s.otp.Clear()
	s.err = ""
	s.mu.Unlock()
	if from != StepPhone {
		metrics.FlowTransitionsTotal.WithLabelValues(flowName, string(from), string(StepPhone)).Inc()
	}
}

// Input exposes the digit boxes for key handling. Callers must not retain it
// across BackToPhone.
func (s *Service) Input() *OTPInput {
	return s.otp
}

// Verify submits the code. The session stores the returned tokens and the
// navigator is sent to the dashboard or onboarding depending on is_onboarded.
func (s *Service) Verify(ctx context.Context) error {
	s.mu.Lock()
	step, phone := s.step, s.phone
	code, complete := s.otp.Value(), s.otp.Complete()
	s.mu.Unlock()

	if step != StepOTP {
		return s.fail(string(step), errors.NewInvalidTransitionError(flowName, string(step), "verify"))
	}
	if !complete {
		return s.fail(string(step), errors.NewValidationError("otp", "Please enter the complete code"))
	}

	s.setLoading(true)
	resp, err := s.api.VerifyOTP(ctx, phone, code)
	s.setLoading(false)
	if err != nil {
		return s.fail(string(step), err)
	}

	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()

	target := app.RouteOnboarding
	if resp.IsOnboarded {
		target = app.RouteDashboard
	}
	s.logger.Info("OTP verified", map[string]interface{}{
		"phone":       maskPhone(phone),
		"isOnboarded": resp.IsOnboarded,
	})
	s.navigator.Navigate(target)
	return nil
}

// Logout clears the stored tokens and returns to the login screen.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.step = StepPhone
	s.phone = ""
	s.otp.Clear()
	s.mu.Unlock()
	s.navigator.Navigate(app.RouteLogin)
	return nil
}

func (s *Service) State() State {
	resendIn := s.ResendIn()
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Step:      s.step,
		Phone:     s.phone,
		Boxes:     s.otp.Boxes(),
		Focus:     s.otp.Focus(),
		Loading:   s.loading,
		Error:     s.err,
		ResendIn:  resendIn,
		CanResend: s.step == StepOTP && resendIn == 0,
		CanVerify: s.step == StepOTP && s.otp.Complete() && !s.loading,
	}
}

func (s *Service) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Service) fail(step string, err error) error {
	s.mu.Lock()
	s.err = errors.UserMessage(err)
	s.mu.Unlock()
	metrics.FlowErrorsTotal.WithLabelValues(flowName, step, errors.MetricCode(err)).Inc()
	return err
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return "******" + phone[len(phone)-4:]
}
