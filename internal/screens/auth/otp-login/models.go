package otplogin

import (
	"context"
	"time"

	"borrower-client/internal/app"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

type Step string

const (
	StepPhone Step = "phone"
	StepOTP   Step = "otp"
)

// AuthAPI is the part of the backend client the login screen calls.
type AuthAPI interface {
	SendOTP(ctx context.Context, phone string) (*models.SendOTPResponse, error)
	VerifyOTP(ctx context.Context, phone, otp string) (*models.VerifyOTPResponse, error)
	Logout(ctx context.Context) error
}

type ServiceDependencies struct {
	API       AuthAPI
	Navigator app.Navigator
	Logger    logger.Logger
	Now       func() time.Time
}

// State is a read-only snapshot for rendering.
type State struct {
	Step      Step
	Phone     string
	Boxes     []string
	Focus     int
	Loading   bool
	Error     string
	ResendIn  time.Duration
	CanResend bool
	CanVerify bool
}
