package creditscore

import (
	"context"
	"fmt"
	"io"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

const ScreenID = "credit.credit-score"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          CreditAPI
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for credit-score: %w", err)
	}
	if opts.API == nil {
		return nil, fmt.Errorf("credit-score requires an API client")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"screen": ScreenID})

	return &Handler{
		config:  screenConfig,
		logger:  log,
		service: NewService(opts.API, log),
	}, nil
}

// Show renders the score, recalculating first when recalc is set.
func (h *Handler) Show(ctx context.Context, recalc bool, out io.Writer) error {
	if !h.config.Enabled {
		return fmt.Errorf("screen %s is disabled", ScreenID)
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var (
		score *models.CreditScore
		err   error
	)
	if recalc {
		score, err = h.service.Recalculate(ctx)
	} else {
		score, err = h.service.Get(ctx)
	}
	if err != nil {
		return err
	}
	Render(out, score)
	return nil
}

func Render(w io.Writer, s *models.CreditScore) {
	fmt.Fprintf(w, "Credit score: %s/%d\n", s.FinalScore.Round(0).String(), models.MaxCreditScore)
	fmt.Fprintf(w, "Risk grade: %s (%s)\n", s.RiskGrade, GradeLabel(s.RiskGrade))
	fmt.Fprintf(w, "Bureau %s, internal %s\n", s.ExternalScore.Round(0).String(), s.InternalScore.Round(0).String())
	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(w, "As of %s\n", s.CreatedAt.Date())
	}
}
