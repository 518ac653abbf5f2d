package emireminders

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

const ScreenID = "action.emi-reminders"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          RepaymentAPI
	SMS          SMSSender
	Email        EmailSender
	Selection    SelectionStore
	CustomConfig *Config
	Logger       logger.Logger
	Now          func() time.Time
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for emi reminders: %w", err)
	}
	if opts.API == nil {
		return nil, fmt.Errorf("emi reminders require an API client")
	}
	if screenConfig.SMSEnabled && opts.SMS == nil {
		return nil, fmt.Errorf("sms reminders are enabled but no sms sender is configured")
	}
	if screenConfig.EmailEnabled && opts.Email == nil {
		return nil, fmt.Errorf("email reminders are enabled but no email sender is configured")
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
			SMS:       opts.SMS,
			Email:     opts.Email,
			Selection: opts.Selection,
			Logger:    log,
			Now:       opts.Now,
		}, screenConfig),
	}, nil
}

func (h *Handler) Service() *Service { return h.service }

func (h *Handler) Run(ctx context.Context, loanID string, out io.Writer) (*Result, error) {
	if !h.config.Enabled {
		return nil, fmt.Errorf("screen %s is disabled", ScreenID)
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	id, err := h.service.ResolveLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	result, err := h.service.Run(ctx, id)
	if err != nil {
		return nil, err
	}
	Render(out, result, h.config.WindowDays)
	return result, nil
}

func Render(w io.Writer, r *Result, windowDays int) {
	if len(r.Due) == 0 {
		fmt.Fprintf(w, "No EMIs due in the next %d days\n", windowDays)
		return
	}
	fmt.Fprintf(w, "%d EMI(s) due in the next %d days\n", len(r.Due), windowDays)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EMI\tCHANNEL\tSTATUS\tDETAIL")
	for _, rem := range r.Reminders {
		detail := rem.MessageID
		if rem.Status == models.ReminderFailed {
			detail = rem.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", shortID(rem.EMIID), rem.Channel, rem.Status, detail)
	}
	tw.Flush()
}
