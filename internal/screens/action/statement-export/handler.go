package statementexport

import (
	"context"
	"fmt"
	"io"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

const ScreenID = "action.statement-export"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          RepaymentAPI
	Store        Store
	Selection    SelectionStore
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for statement export: %w", err)
	}
	if opts.API == nil {
		return nil, fmt.Errorf("statement export requires an API client")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("statement export requires a postgres store")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"screen": ScreenID})

	return &Handler{
		config: screenConfig,
		logger: log,
		service: NewService(ServiceDependencies{
			API:       opts.API,
			Store:     opts.Store,
			Selection: opts.Selection,
			Logger:    log,
		}, screenConfig),
	}, nil
}

func (h *Handler) Service() *Service { return h.service }

func (h *Handler) Export(ctx context.Context, loanID string, out io.Writer) (*Report, error) {
	if !h.config.Enabled {
		return nil, fmt.Errorf("screen %s is disabled", ScreenID)
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	id, err := h.service.ResolveLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	report, err := h.service.Export(ctx, id)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Exported %d EMI row(s) for loan %s to %s\n", report.Exported, report.LoanID, h.config.Table)
	fmt.Fprintf(out, "Stored: %d row(s), %s\n", report.StoredRows, models.FormatINR(report.StoredTotal))
	return report, nil
}
