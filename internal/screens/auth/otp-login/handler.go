package otplogin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"borrower-client/internal/app"
	"borrower-client/internal/common/config"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
)

const ScreenID = "auth.otp-login"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          AuthAPI
	Navigator    app.Navigator
	CustomConfig *Config
	Logger       logger.Logger
	Now          func() time.Time
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for otp-login: %w", err)
	}
	if opts.API == nil || opts.Navigator == nil {
		return nil, fmt.Errorf("otp-login requires an API client and a navigator")
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
			Logger:    log,
			Now:       opts.Now,
		}, screenConfig),
	}, nil
}

func (h *Handler) Service() *Service { return h.service }

// Run drives the screen from a line-oriented terminal. On the code step an
// empty line re-sends once the countdown allows it and "b" goes back.
func (h *Handler) Run(ctx context.Context, phone string, in io.Reader, out io.Writer) error {
	if !h.config.Enabled {
		return fmt.Errorf("screen %s is disabled", ScreenID)
	}
	scanner := bufio.NewScanner(in)

	for {
		if h.service.State().Step == StepPhone {
			if phone == "" {
				fmt.Fprint(out, "Phone number: ")
				if !scanner.Scan() {
					return io.ErrUnexpectedEOF
				}
				phone = strings.TrimSpace(scanner.Text())
			}
			if err := h.withTimeout(ctx, func(ctx context.Context) error { return h.service.SendOTP(ctx, phone) }); err != nil {
				fmt.Fprintf(out, "Error: %s\n", errors.UserMessage(err))
				if ctx.Err() != nil {
					return ctx.Err()
				}
				phone = ""
				continue
			}
			fmt.Fprintf(out, "Code sent to %s\n", maskPhone(h.service.State().Phone))
		}

		h.Render(out)
		fmt.Fprintf(out, "Enter the %d-digit code: ", h.config.OTPLength)
		if !scanner.Scan() {
			return io.ErrUnexpectedEOF
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "b":
			h.service.BackToPhone()
			phone = ""
			continue
		case "":
			if err := h.withTimeout(ctx, h.service.Resend); err != nil {
				fmt.Fprintf(out, "Error: %s\n", errors.UserMessage(err))
			}
			continue
		}

		h.service.Input().Clear()
		h.service.Input().Paste(line)
		err := h.withTimeout(ctx, h.service.Verify)
		if err == nil {
			fmt.Fprintln(out, "Signed in.")
			return nil
		}
		fmt.Fprintf(out, "Error: %s\n", errors.UserMessage(err))
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (h *Handler) Logout(ctx context.Context, out io.Writer) error {
	if err := h.service.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Signed out.")
	return nil
}

// Render prints the current step.
func (h *Handler) Render(w io.Writer) {
	st := h.service.State()
	switch st.Step {
	case StepPhone:
		fmt.Fprintln(w, "Sign in with your phone number")
	case StepOTP:
		boxes := make([]string, len(st.Boxes))
		for i, b := range st.Boxes {
			if b == "" {
				b = "_"
			}
			boxes[i] = "[" + b + "]"
		}
		fmt.Fprintln(w, strings.Join(boxes, " "))
		if st.CanResend {
			fmt.Fprintln(w, "Didn't get it? Press enter to resend.")
		} else {
			fmt.Fprintf(w, "Resend in %ds\n", int(st.ResendIn/time.Second))
		}
	}
	if st.Error != "" {
		fmt.Fprintf(w, "! %s\n", st.Error)
	}
}

func (h *Handler) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()
	return fn(ctx)
}
