package kycwizard

import (
	"context"

	"borrower-client/internal/app"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

type Step string

const (
	StepAadhaar  Step = "aadhaar"
	StepPAN      Step = "pan"
	StepBusiness Step = "business"
	StepSuccess  Step = "success"
)

// Title is the heading shown for the step.
func (s Step) Title() string {
	switch s {
	case StepAadhaar:
		return "Verify Aadhaar"
	case StepPAN:
		return "Verify PAN"
	case StepBusiness:
		return "Business details"
	case StepSuccess:
		return "You're all set"
	}
	return string(s)
}

// Number is the 1-based position shown in the progress indicator.
func (s Step) Number() int {
	switch s {
	case StepAadhaar:
		return 1
	case StepPAN:
		return 2
	case StepBusiness:
		return 3
	}
	return 4
}

type KYCAPI interface {
	SubmitKYC(ctx context.Context, req models.KYCRequest) (*models.KYCResponse, error)
}

// DraftStore keeps accepted fields between runs. *session.Session satisfies it.
type DraftStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type ServiceDependencies struct {
	API       KYCAPI
	Navigator app.Navigator
	Drafts    DraftStore
	Logger    logger.Logger
}

type State struct {
	Step       Step
	Aadhaar    string
	PAN        string
	GST        string
	Loading    bool
	Error      string
	BusinessID string
	Message    string
}
