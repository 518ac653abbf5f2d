package profile

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

const ScreenID = "auth.profile"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          ProfileAPI
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for profile: %w", err)
	}
	if opts.API == nil {
		return nil, fmt.Errorf("profile requires an API client")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:  screenConfig,
		logger:  log.WithFields(map[string]interface{}{"screen": ScreenID}),
		service: NewService(opts.API, screenConfig.DisplayName),
	}, nil
}

func (h *Handler) Service() *Service { return h.service }

func (h *Handler) Show(ctx context.Context, out io.Writer) error {
	if !h.config.Enabled {
		return fmt.Errorf("screen %s is disabled", ScreenID)
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	p, err := h.service.Get(ctx)
	if err != nil {
		return err
	}
	Render(out, p)
	return nil
}

func Render(w io.Writer, p *models.BusinessProfile) {
	fmt.Fprintln(w, p.DisplayName)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Business ID\t%s\n", p.ID)
	fmt.Fprintf(tw, "GST\t%s\n", p.GSTNumber)
	fmt.Fprintf(tw, "PAN\t%s\n", p.PANNumber)
	fmt.Fprintf(tw, "Member since\t%s\n", p.CreatedAt.Date())
	tw.Flush()
}
