package dashboard

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
	creditscore "borrower-client/internal/screens/credit/credit-score"
)

const ScreenID = "home.dashboard"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          DashboardAPI
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for dashboard: %w", err)
	}
	if opts.API == nil {
		return nil, fmt.Errorf("dashboard requires an API client")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"screen": ScreenID})

	return &Handler{
		config:  screenConfig,
		logger:  log,
		service: NewService(opts.API, screenConfig.DisplayName, log),
	}, nil
}

func (h *Handler) Service() *Service { return h.service }

// Show prints the dashboard. With overview set, the profile, score and
// invoice summary are loaded first and printed above it.
func (h *Handler) Show(ctx context.Context, overview bool, out io.Writer) error {
	if !h.config.Enabled {
		return fmt.Errorf("screen %s is disabled", ScreenID)
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	if overview {
		ov, err := h.service.Overview(ctx)
		if err != nil {
			return err
		}
		RenderOverview(out, ov)
		fmt.Fprintln(out)
	}

	d, err := h.service.Summary(ctx)
	if err != nil {
		return err
	}
	Render(out, d, h.config.RecentLimit)
	return nil
}

func Render(w io.Writer, d *models.Dashboard, recentLimit int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Available limit\t%s\n", models.FormatINR(d.AvailableLimit))
	fmt.Fprintf(tw, "Credit score\t%s/%d\n", d.CreditScore.Round(0).String(), models.MaxCreditScore)
	fmt.Fprintf(tw, "Risk grade\t%s (%s)\n", gradeOrDash(d.RiskGrade), creditscore.GradeLabel(d.RiskGrade))
	fmt.Fprintf(tw, "Active loans\t%s\n", models.FormatINR(d.ActiveLoansTotal))
	fmt.Fprintf(tw, "Next EMI\t%s\n", nextEMI(d))
	tw.Flush()

	fmt.Fprintln(w, "\nRecent activity")
	items := d.RecentActivity
	if recentLimit > 0 && len(items) > recentLimit {
		items = items[:recentLimit]
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "  No recent activity")
		return
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, a := range items {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", a.Date.Date(), a.Title, a.Subtitle, models.FormatINR(a.Amount))
	}
	tw.Flush()
}

func RenderOverview(w io.Writer, ov *Overview) {
	fmt.Fprintf(w, "%s (%s)\n", ov.Profile.DisplayName, ov.Profile.GSTNumber)
	fmt.Fprintf(w, "Score %s/%d, grade %s\n", ov.Score.FinalScore.Round(0).String(), models.MaxCreditScore, gradeOrDash(ov.Score.RiskGrade))
	fmt.Fprintf(w, "Invoices: %d total, %d pending\n", len(ov.Invoices), ov.PendingCount())
}

func nextEMI(d *models.Dashboard) string {
	if !d.NextEMIAmount.Valid {
		return "None due"
	}
	due := "-"
	if d.NextEMIDate != nil {
		due = d.NextEMIDate.Date()
	}
	return fmt.Sprintf("%s on %s", models.FormatINR(d.NextEMIAmount.Decimal), due)
}

func gradeOrDash(g models.RiskGrade) string {
	if g == "" {
		return "-"
	}
	return string(g)
}
