package invoices

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"borrower-client/internal/app"
	"borrower-client/internal/common/config"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

const ScreenID = "action.invoices"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          InvoiceAPI
	Navigator    app.Navigator
	Selection    SelectionStore
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for invoices: %w", err)
	}
	if opts.API == nil || opts.Navigator == nil {
		return nil, fmt.Errorf("invoices requires an API client and a navigator")
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
			Selection: opts.Selection,
			Logger:    log,
		}, screenConfig),
	}, nil
}

func (h *Handler) Service() *Service { return h.service }

func (h *Handler) List(ctx context.Context, opts ListOptions, out io.Writer) error {
	if err := h.enabled(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	listing, err := h.service.List(ctx, opts)
	if err != nil {
		return err
	}
	RenderListing(out, listing)
	return nil
}

func (h *Handler) Detail(ctx context.Context, id string, out io.Writer) error {
	if err := h.enabled(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	inv, err := h.service.Detail(ctx, id)
	if err != nil {
		return err
	}
	RenderInvoice(out, inv)
	return nil
}

func (h *Handler) Add(ctx context.Context, in AddInvoiceInput, out io.Writer) error {
	if err := h.enabled(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	inv, err := h.service.Add(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Invoice added.")
	RenderInvoice(out, inv)
	return nil
}

// Select marks a pending invoice for financing.
func (h *Handler) Select(ctx context.Context, id string, out io.Writer) error {
	if err := h.enabled(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	inv, err := h.service.SelectByID(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Selected %s for financing.\n", inv.InvoiceNumber)
	return nil
}

func (h *Handler) enabled() error {
	if !h.config.Enabled {
		return fmt.Errorf("screen %s is disabled", ScreenID)
	}
	return nil
}

func RenderListing(w io.Writer, l *Listing) {
	fmt.Fprintf(w, "All (%d) | Pending (%d) | Discounted (%d)\n",
		l.Counts[TabAll], l.Counts[TabPending], l.Counts[TabDiscounted])
	if len(l.Invoices) == 0 {
		fmt.Fprintln(w, "No invoices on this tab.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tBUYER\tAMOUNT\tDUE\tSTATUS")
	for _, inv := range l.Invoices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.ID, inv.InvoiceNumber, inv.Counterparty, models.FormatINR(inv.Amount), inv.DueDate.Date(), inv.Status)
	}
	tw.Flush()
}

func RenderInvoice(w io.Writer, inv *models.Invoice) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", inv.ID)
	fmt.Fprintf(tw, "Number\t%s\n", inv.InvoiceNumber)
	fmt.Fprintf(tw, "Buyer\t%s\n", inv.Counterparty)
	fmt.Fprintf(tw, "Amount\t%s\n", models.FormatINR(inv.Amount))
	fmt.Fprintf(tw, "Due\t%s\n", inv.DueDate.Date())
	fmt.Fprintf(tw, "Delay\t%d days\n", inv.DelayDays)
	fmt.Fprintf(tw, "Status\t%s\n", inv.Status)
	tw.Flush()
	if inv.Status.IsPending() {
		fmt.Fprintf(w, "Finance it with: borrower-cli loan --invoice %s\n", inv.ID)
	}
}
