package repayments

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"

	"github.com/shopspring/decimal"
)

const ScreenID = "action.repayments"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          RepaymentAPI
	Selection    SelectionStore
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for repayments: %w", err)
	}
	if opts.API == nil {
		return nil, fmt.Errorf("repayments requires an API client")
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
			Selection: opts.Selection,
			Logger:    log,
		}, screenConfig),
	}, nil
}

func (h *Handler) Service() *Service { return h.service }

// EMIs renders one loan's schedule, or every repayment when all is set.
func (h *Handler) EMIs(ctx context.Context, loanID string, all bool, out io.Writer) error {
	if err := h.enabled(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var (
		sched *Schedule
		err   error
	)
	if all {
		sched, err = h.service.AllRepayments(ctx)
	} else {
		sched, err = h.service.LoanEMIs(ctx, loanID)
	}
	if err != nil {
		return err
	}
	RenderSchedule(out, sched)
	return nil
}

func (h *Handler) Loan(ctx context.Context, loanID string, out io.Writer) error {
	if err := h.enabled(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	loan, err := h.service.Loan(ctx, loanID)
	if err != nil {
		return err
	}
	RenderLoan(out, loan)
	return nil
}

func (h *Handler) Pay(ctx context.Context, emiID string, out io.Writer) error {
	return h.action(ctx, emiID, out, h.service.Pay)
}

func (h *Handler) Bounce(ctx context.Context, emiID string, out io.Writer) error {
	return h.action(ctx, emiID, out, h.service.Bounce)
}

func (h *Handler) action(ctx context.Context, emiID string, out io.Writer, fn func(context.Context, string) (*models.EMIActionResponse, error)) error {
	if err := h.enabled(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	resp, err := fn(ctx, emiID)
	if err != nil {
		return err
	}
	msg := resp.Message
	if msg == "" {
		msg = "EMI updated."
	}
	fmt.Fprintln(out, msg)
	fmt.Fprintf(out, "Status: %s\n", resp.Status.Label())
	if resp.RetryCount > 0 {
		fmt.Fprintf(out, "Retries: %d\n", resp.RetryCount)
	}
	return nil
}

func (h *Handler) enabled() error {
	if !h.config.Enabled {
		return fmt.Errorf("screen %s is disabled", ScreenID)
	}
	return nil
}

func RenderSchedule(w io.Writer, s *Schedule) {
	if s.LoanID != "" {
		fmt.Fprintf(w, "EMIs for loan %s\n", s.LoanID)
	}
	if len(s.EMIs) == 0 {
		fmt.Fprintln(w, "No EMIs scheduled.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLOAN\tDUE\tAMOUNT\tSTATUS")
	for _, e := range s.EMIs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.LoanID, e.DueDate.Date(), models.FormatINR(e.Amount), e.Status.Label())
	}
	tw.Flush()
	fmt.Fprintf(w, "Paid %d (%s), outstanding %d (%s)\n",
		s.Paid, models.FormatINR(s.PaidAmount), s.Pending+s.Bounced, models.FormatINR(s.DueAmount))
	if s.NextDue != nil {
		fmt.Fprintf(w, "Next EMI: %s on %s\n", models.FormatINR(s.NextDue.Amount), s.NextDue.DueDate.Date())
	}
}

func RenderLoan(w io.Writer, l *models.Loan) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Loan\t%s\n", l.ID)
	fmt.Fprintf(tw, "Status\t%s\n", l.Status)
	fmt.Fprintf(tw, "Principal\t%s\n", models.FormatINR(l.Principal))
	fmt.Fprintf(tw, "Disbursed\t%s\n", models.FormatINR(l.DisbursedAmount))
	fmt.Fprintf(tw, "Outstanding\t%s\n", models.FormatINR(l.OutstandingAmount))
	fmt.Fprintf(tw, "Interest\t%s%%\n", l.InterestRate.Mul(decimal.NewFromInt(100)).StringFixed(1))
	fmt.Fprintf(tw, "Tenure\t%d months\n", l.TenureMonths)
	fmt.Fprintf(tw, "Opened\t%s\n", l.CreatedAt.Date())
	tw.Flush()
}
