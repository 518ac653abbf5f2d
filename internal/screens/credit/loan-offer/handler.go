package loanoffer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"borrower-client/internal/app"
	"borrower-client/internal/common/config"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"

	"github.com/shopspring/decimal"
)

const ScreenID = "credit.loan-offer"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          LoanAPI
	Navigator    app.Navigator
	Selection    SelectionStore
	Compliance   ComplianceCheck
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for loan-offer: %w", err)
	}
	if opts.API == nil || opts.Navigator == nil {
		return nil, fmt.Errorf("loan-offer requires an API client and a navigator")
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
			API:        opts.API,
			Navigator:  opts.Navigator,
			Selection:  opts.Selection,
			Compliance: opts.Compliance,
			Logger:     log,
		}, screenConfig),
	}, nil
}

func (h *Handler) Service() *Service { return h.service }

// Run drives the wizard for one invoice. With no invoice id and no stored
// selection it shows the list view instead.
func (h *Handler) Run(ctx context.Context, invoiceID string, in io.Reader, out io.Writer) error {
	if !h.config.Enabled {
		return fmt.Errorf("screen %s is disabled", ScreenID)
	}
	invoiceID, err := h.service.ResolveInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoiceID == "" {
		return h.RunList(ctx, out)
	}

	loadCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	err = h.service.Load(loadCtx, invoiceID)
	cancel()
	if err != nil {
		fmt.Fprintf(out, "Error: %s\n", errors.UserMessage(err))
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		h.Render(out)
		st := h.service.State()
		if st.Step == StepSuccess {
			return nil
		}

		switch st.Step {
		case StepReview:
			fmt.Fprint(out, "Press enter to accept this offer, q to quit: ")
		case StepKYCConfirm:
			fmt.Fprint(out, "Press enter to confirm your KYC details, b to go back, q to quit: ")
		case StepSign:
			fmt.Fprint(out, "Type 'agree' to accept the terms and disburse, b to go back, q to quit: ")
		}
		if !scanner.Scan() {
			return io.ErrUnexpectedEOF
		}
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))

		switch line {
		case "q":
			return nil
		case "b":
			if err := h.service.Back(); err != nil {
				fmt.Fprintf(out, "Error: %s\n", errors.UserMessage(err))
			}
			continue
		}
		if st.Step == StepSign {
			h.service.AcceptTerms(line == "agree")
		}

		stepCtx, cancel := context.WithTimeout(ctx, h.config.Timeout+h.config.EffectiveComplianceDelay())
		err := h.service.Next(stepCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "Error: %s\n", errors.UserMessage(err))
		}
	}
}

// RunList renders active offers and loans.
func (h *Handler) RunList(ctx context.Context, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()
	overview, err := h.service.Overview(ctx)
	if err != nil {
		return err
	}
	RenderOverview(out, overview)
	return nil
}

// Render prints the current step.
func (h *Handler) Render(w io.Writer) {
	st := h.service.State()
	if st.Offer == nil {
		if st.Error != "" {
			fmt.Fprintf(w, "! %s\n", st.Error)
		}
		return
	}
	b := st.Breakdown

	switch st.Step {
	case StepReview:
		fmt.Fprintf(w, "Offer for invoice %s (%s)\n", shortID(st.InvoiceID), st.Offer.LoanType)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Amount\t%s\n", models.FormatINR(b.Amount))
		fmt.Fprintf(tw, "Interest\t%s%%\n", b.InterestRate.Mul(decimal.NewFromInt(100)).StringFixed(1))
		fmt.Fprintf(tw, "Tenure\t%d %s\n", b.Tenure, b.TenureUnit)
		fmt.Fprintf(tw, "Platform fee\t-%s\n", models.FormatINR(b.PlatformFee))
		fmt.Fprintf(tw, "GST on fee\t-%s\n", models.FormatINR(b.GSTOnFee))
		fmt.Fprintf(tw, "Final disbursal\t%s\n", models.FormatINR(b.Disbursal))
		tw.Flush()
	case StepKYCConfirm:
		fmt.Fprintln(w, "Confirm that your Aadhaar, PAN and GST details on file are current.")
	case StepSign:
		fmt.Fprintf(w, "Sanction of %s against invoice %s.\n", models.FormatINR(b.Amount), shortID(st.InvoiceID))
		fmt.Fprintf(w, "Net disbursal: %s\n", models.FormatINR(b.Disbursal))
		fmt.Fprintf(w, "Total repayable: %s\n", models.FormatINR(b.TotalRepayable))
		if h.config.FinancingMode == ModeSecured {
			fmt.Fprintf(w, "Collateral: %s (%s)\n", h.config.CollateralDescription, models.FormatINR(decimal.NewFromInt(h.config.CollateralValue)))
		}
	case StepSuccess:
		fmt.Fprintf(w, "Loan sanctioned. %s is on its way.\n", models.FormatINR(b.Disbursal))
		if st.LoanID != "" {
			fmt.Fprintf(w, "Loan ID: %s\n", st.LoanID)
		}
	}
	if st.Error != "" {
		fmt.Fprintf(w, "! %s\n", st.Error)
	}
}

// RenderOverview prints the list view.
func RenderOverview(w io.Writer, o *Overview) {
	if len(o.Offers) == 0 && len(o.Loans) == 0 {
		fmt.Fprintln(w, "No offers or loans yet. Select an invoice to generate an offer.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(o.Offers) > 0 {
		fmt.Fprintln(tw, "ACTIVE OFFERS\t\t\t")
		for _, off := range o.Offers {
			fmt.Fprintf(tw, "%s\t%s\t%s\tinvoice %s\n", off.ID, off.LoanType, models.FormatINR(off.Amount), shortID(off.InvoiceID))
		}
	}
	if len(o.Loans) > 0 {
		fmt.Fprintln(tw, "LOANS\t\t\t")
		for _, l := range o.Loans {
			fmt.Fprintf(tw, "%s\t%s\t%s\tdisbursed %s\n", l.ID, l.Status, models.FormatINR(l.Principal), models.FormatINR(l.DisbursedAmount))
		}
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
