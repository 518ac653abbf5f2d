package kycwizard

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"borrower-client/internal/app"
	"borrower-client/internal/common/config"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
)

const ScreenID = "onboarding.kyc-wizard"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          KYCAPI
	Navigator    app.Navigator
	Drafts       DraftStore
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for kyc-wizard: %w", err)
	}
	if opts.API == nil || opts.Navigator == nil {
		return nil, fmt.Errorf("kyc-wizard requires an API client and a navigator")
	}
	if screenConfig.PersistDrafts && opts.Drafts == nil {
		return nil, fmt.Errorf("kyc-wizard persist_drafts requires a draft store")
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
			Navigator: opts.Navigator,
			Drafts:    opts.Drafts,
			Logger:    log,
		}, screenConfig),
	}, nil
}

func (h *Handler) Service() *Service { return h.service }

var prompts = map[Step]string{
	StepAadhaar:  "Aadhaar number (12 digits): ",
	StepPAN:      "PAN (e.g. ABCDE1234F): ",
	StepBusiness: "GST number (15 characters): ",
}

// Run prompts for each step until onboarding succeeds. "b" goes back a step.
func (h *Handler) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if !h.config.Enabled {
		return fmt.Errorf("screen %s is disabled", ScreenID)
	}
	if err := h.service.Resume(ctx); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)

	for {
		st := h.service.State()
		if st.Step == StepSuccess {
			h.Render(out)
			return nil
		}
		h.Render(out)
		fmt.Fprint(out, prompts[st.Step])
		if !scanner.Scan() {
			return io.ErrUnexpectedEOF
		}
		line := strings.TrimSpace(scanner.Text())

		if line == "b" {
			if err := h.service.Back(); err != nil {
				fmt.Fprintf(out, "Error: %s\n", errors.UserMessage(err))
			}
			continue
		}

		stepCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
		err := h.service.Next(stepCtx, line)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "Error: %s\n", errors.UserMessage(err))
		}
	}
}

// Render prints the progress line and, once done, the confirmation.
func (h *Handler) Render(w io.Writer) {
	st := h.service.State()
	if st.Step == StepSuccess {
		fmt.Fprintln(w, st.Step.Title())
		if st.Message != "" {
			fmt.Fprintln(w, st.Message)
		}
		if st.BusinessID != "" {
			fmt.Fprintf(w, "Business ID: %s\n", st.BusinessID)
		}
		fmt.Fprintln(w, "Taking you to your dashboard...")
		return
	}
	fmt.Fprintf(w, "Step %d of 3: %s\n", st.Step.Number(), st.Step.Title())
}
