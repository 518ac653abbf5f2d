// Package kycwizard walks a new borrower through Aadhaar, PAN and GST
// verification and submits them in one onboarding call.
package kycwizard

import (
	"context"
	"sync"

	"borrower-client/internal/app"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/common/metrics"
	"borrower-client/internal/common/validation"
	"borrower-client/internal/models"
)

const flowName = "kyc-wizard"

type Service struct {
	config    *Config
	api       KYCAPI
	navigator app.Navigator
	drafts    DraftStore
	logger    logger.Logger

	mu       sync.Mutex
	step     Step
	aadhaar  string
	pan      string
	gst      string
	loading  bool
	err      string
	response *models.KYCResponse
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		api:       deps.API,
		navigator: deps.Navigator,
		drafts:    deps.Drafts,
		logger:    deps.Logger,
		step:      StepAadhaar,
	}
}

// Resume loads stored drafts and skips past every step whose value still
// passes its guard. It is a no-op when draft persistence is off.
func (s *Service) Resume(ctx context.Context) error {
	if !s.config.PersistDrafts || s.drafts == nil {
		return nil
	}
	values := make(map[string]string, len(models.KYCDraftKeys))
	for _, key := range models.KYCDraftKeys {
		v, ok, err := s.drafts.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			values[key] = v
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.aadhaar = values[models.KeyKYCAadhaar]
	s.pan = values[models.KeyKYCPAN]
	s.gst = values[models.KeyKYCGST]

	switch {
	case !validation.ValidateAadhaar(s.aadhaar):
		s.step = StepAadhaar
	case !validation.ValidatePAN(s.pan):
		s.step = StepPAN
	default:
		s.step = StepBusiness
	}
	if s.step != StepAadhaar {
		s.logger.Info("resumed onboarding from drafts", map[string]interface{}{"step": string(s.step)})
	}
	return nil
}

// Next applies value to the current step.
func (s *Service) Next(ctx context.Context, value string) error {
	switch s.currentStep() {
	case StepAadhaar:
		return s.SubmitAadhaar(ctx, value)
	case StepPAN:
		return s.SubmitPAN(ctx, value)
	case StepBusiness:
		return s.SubmitBusiness(ctx, value)
	default:
		return s.fail(StepSuccess, errors.NewInvalidTransitionError(flowName, string(StepSuccess), "continue"))
	}
}

func (s *Service) SubmitAadhaar(ctx context.Context, value string) error {
	if err := s.expect(StepAadhaar, "submit aadhaar"); err != nil {
		return err
	}
	value = validation.NormalizeAadhaar(value)
	if !validation.ValidateAadhaar(value) {
		return s.fail(StepAadhaar, errors.NewValidationError("aadhaar", "Aadhaar must be exactly 12 digits"))
	}
	if err := s.saveDraft(ctx, models.KeyKYCAadhaar, value); err != nil {
		return s.fail(StepAadhaar, err)
	}
	s.mu.Lock()
	s.aadhaar = value
	s.mu.Unlock()
	s.advance(StepAadhaar, StepPAN)
	return nil
}

func (s *Service) SubmitPAN(ctx context.Context, value string) error {
	if err := s.expect(StepPAN, "submit pan"); err != nil {
		return err
	}
	value = validation.NormalizePAN(value)
	if !validation.ValidatePAN(value) {
		return s.fail(StepPAN, errors.NewValidationError("pan", "PAN must look like ABCDE1234F"))
	}
	if err := s.saveDraft(ctx, models.KeyKYCPAN, value); err != nil {
		return s.fail(StepPAN, err)
	}
	s.mu.Lock()
	s.pan = value
	s.mu.Unlock()
	s.advance(StepPAN, StepBusiness)
	return nil
}

// SubmitBusiness validates the GST number and sends all three values. A
// rejected submission stays on the business step with the server message.
func (s *Service) SubmitBusiness(ctx context.Context, value string) error {
	if err := s.expect(StepBusiness, "submit business"); err != nil {
		return err
	}
	value = validation.NormalizeGST(value)
	if !validation.ValidateGST(value) {
		return s.fail(StepBusiness, errors.NewValidationError("gst", "GST number must be 15 letters or digits"))
	}
	if err := s.saveDraft(ctx, models.KeyKYCGST, value); err != nil {
		return s.fail(StepBusiness, err)
	}

	s.mu.Lock()
	s.gst = value
	s.loading = true
	req := models.KYCRequest{AadhaarNumber: s.aadhaar, PANNumber: s.pan, GSTNumber: s.gst}
	s.mu.Unlock()

	resp, err := s.api.SubmitKYC(ctx, req)

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	if err != nil {
		return s.fail(StepBusiness, err)
	}

	if s.config.PersistDrafts && s.drafts != nil {
		if err := s.drafts.Delete(ctx, models.KYCDraftKeys...); err != nil {
			s.logger.Warn("failed to clear onboarding drafts", map[string]interface{}{"error": err.Error()})
		}
	}

	s.mu.Lock()
	s.response = resp
	s.mu.Unlock()
	s.advance(StepBusiness, StepSuccess)

	s.logger.Info("onboarding completed", map[string]interface{}{"businessId": resp.BusinessID})
	s.navigator.NavigateAfter(app.RouteDashboard, s.config.RedirectDelay)
	return nil
}

// Back returns to the previous step. Collected values are kept.
func (s *Service) Back() error {
	s.mu.Lock()
	from := s.step
	var to Step
	switch from {
	case StepPAN:
		to = StepAadhaar
	case StepBusiness:
		to = StepPAN
	}
	if to == "" {
		s.mu.Unlock()
		return s.fail(from, errors.NewInvalidTransitionError(flowName, string(from), "go back"))
	}
	s.step = to
	s.err = ""
	s.mu.Unlock()
	metrics.FlowTransitionsTotal.WithLabelValues(flowName, string(from), string(to)).Inc()
	return nil
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Step:    s.step,
		Aadhaar: s.aadhaar,
		PAN:     s.pan,
		GST:     s.gst,
		Loading: s.loading,
		Error:   s.err,
	}
	if s.response != nil {
		st.BusinessID = s.response.BusinessID
		st.Message = s.response.Message
	}
	return st
}

func (s *Service) currentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Service) expect(step Step, action string) error {
	if cur := s.currentStep(); cur != step {
		return s.fail(cur, errors.NewInvalidTransitionError(flowName, string(cur), action))
	}
	return nil
}

func (s *Service) advance(from, to Step) {
	s.mu.Lock()
	s.step = to
	s.err = ""
	s.mu.Unlock()
	metrics.FlowTransitionsTotal.WithLabelValues(flowName, string(from), string(to)).Inc()
}

func (s *Service) saveDraft(ctx context.Context, key, value string) error {
	if !s.config.PersistDrafts || s.drafts == nil {
		return nil
	}
	return s.drafts.Set(ctx, key, value)
}

func (s *Service) fail(step Step, err error) error {
	s.mu.Lock()
	s.err = errors.UserMessage(err)
	s.mu.Unlock()
	metrics.FlowErrorsTotal.WithLabelValues(flowName, string(step), errors.MetricCode(err)).Inc()
	return err
}
