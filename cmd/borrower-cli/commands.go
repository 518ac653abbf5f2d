package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	awsclient "borrower-client/internal/common/aws"
	"borrower-client/internal/common/database"
	"borrower-client/internal/common/logger"
	emireminders "borrower-client/internal/screens/action/emi-reminders"
	"borrower-client/internal/screens/action/invoices"
	"borrower-client/internal/screens/action/repayments"
	statementexport "borrower-client/internal/screens/action/statement-export"
	otplogin "borrower-client/internal/screens/auth/otp-login"
	"borrower-client/internal/screens/auth/profile"
	creditscore "borrower-client/internal/screens/credit/credit-score"
	loanoffer "borrower-client/internal/screens/credit/loan-offer"
	"borrower-client/internal/screens/home/dashboard"
	kycwizard "borrower-client/internal/screens/onboarding/kyc-wizard"
)

func dispatch(ctx context.Context, e *env, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(e.out)

	switch command {
	case "login":
		phone := fs.String("phone", "", "10 digit mobile number")
		if err := fs.Parse(args); err != nil {
			return err
		}
		h, err := otplogin.NewHandler(otplogin.HandlerOptions{AppConfig: e.cfg, API: e.client, Navigator: e.router, Logger: e.log})
		if err != nil {
			return err
		}
		return h.Run(ctx, *phone, e.in, e.out)

	case "logout":
		h, err := otplogin.NewHandler(otplogin.HandlerOptions{AppConfig: e.cfg, API: e.client, Navigator: e.router, Logger: e.log})
		if err != nil {
			return err
		}
		return h.Logout(ctx, e.out)

	case "onboard":
		h, err := kycwizard.NewHandler(kycwizard.HandlerOptions{AppConfig: e.cfg, API: e.client, Navigator: e.router, Drafts: e.session, Logger: e.log})
		if err != nil {
			return err
		}
		return h.Run(ctx, e.in, e.out)

	case "dashboard":
		overview := fs.Bool("overview", false, "also load profile, score and invoice summary")
		if err := fs.Parse(args); err != nil {
			return err
		}
		h, err := dashboard.NewHandler(dashboard.HandlerOptions{AppConfig: e.cfg, API: e.client, Logger: e.log})
		if err != nil {
			return err
		}
		return h.Show(ctx, *overview, e.out)

	case "profile":
		h, err := profile.NewHandler(profile.HandlerOptions{AppConfig: e.cfg, API: e.client, Logger: e.log})
		if err != nil {
			return err
		}
		return h.Show(ctx, e.out)

	case "score":
		recalc := fs.Bool("recalculate", false, "ask the backend to recompute the score")
		if err := fs.Parse(args); err != nil {
			return err
		}
		h, err := creditscore.NewHandler(creditscore.HandlerOptions{AppConfig: e.cfg, API: e.client, Logger: e.log})
		if err != nil {
			return err
		}
		return h.Show(ctx, *recalc, e.out)

	case "invoices", "invoice", "invoice-add":
		return invoiceCommand(ctx, e, fs, command, args)

	case "loan", "loans":
		invoiceID := fs.String("invoice", "", "invoice id; defaults to the selected invoice")
		if err := fs.Parse(args); err != nil {
			return err
		}
		h, err := loanoffer.NewHandler(loanoffer.HandlerOptions{AppConfig: e.cfg, API: e.client, Navigator: e.router, Selection: e.session, Logger: e.log})
		if err != nil {
			return err
		}
		if command == "loans" {
			return h.RunList(ctx, e.out)
		}
		return h.Run(ctx, *invoiceID, e.in, e.out)

	case "emis", "emi-pay", "emi-bounce":
		return repaymentCommand(ctx, e, fs, command, args)

	case "remind":
		return remindCommand(ctx, e, fs, args)

	case "export":
		return exportCommand(ctx, e, fs, args)
	}
	return fmt.Errorf("command %s has no handler", command)
}

func invoiceCommand(ctx context.Context, e *env, fs *flag.FlagSet, command string, args []string) error {
	tab := fs.String("tab", "all", "all, pending or discounted")
	status := fs.String("status", "", "server-side status filter")
	selectIt := fs.Bool("select", false, "select the invoice for financing")
	number := fs.String("number", "", "invoice number")
	amount := fs.Float64("amount", 0, "invoice amount in rupees")
	due := fs.String("due", "", "due date, YYYY-MM-DD")
	delay := fs.Int("delay-days", 0, "expected payment delay in days")
	if err := fs.Parse(args); err != nil {
		return err
	}

	h, err := invoices.NewHandler(invoices.HandlerOptions{AppConfig: e.cfg, API: e.client, Navigator: e.router, Selection: e.session, Logger: e.log})
	if err != nil {
		return err
	}

	switch command {
	case "invoices":
		t, err := invoices.ParseTab(*tab)
		if err != nil {
			return err
		}
		return h.List(ctx, invoices.ListOptions{Tab: t, Status: *status}, e.out)
	case "invoice-add":
		return h.Add(ctx, invoices.AddInvoiceInput{
			InvoiceNumber: *number,
			Amount:        *amount,
			DueDate:       *due,
			DelayDays:     *delay,
		}, e.out)
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: borrower-cli invoice [-select] ID")
	}
	if *selectIt {
		return h.Select(ctx, fs.Arg(0), e.out)
	}
	return h.Detail(ctx, fs.Arg(0), e.out)
}

func repaymentCommand(ctx context.Context, e *env, fs *flag.FlagSet, command string, args []string) error {
	loanID := fs.String("loan", "", "loan id; defaults to the selected loan")
	all := fs.Bool("all", false, "every repayment across loans")
	detail := fs.Bool("detail", false, "print the loan summary first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	h, err := repayments.NewHandler(repayments.HandlerOptions{AppConfig: e.cfg, API: e.client, Selection: e.session, Logger: e.log})
	if err != nil {
		return err
	}

	switch command {
	case "emi-pay", "emi-bounce":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: borrower-cli %s EMI_ID", command)
		}
		if command == "emi-pay" {
			return h.Pay(ctx, fs.Arg(0), e.out)
		}
		return h.Bounce(ctx, fs.Arg(0), e.out)
	}

	if *detail && !*all {
		if err := h.Loan(ctx, *loanID, e.out); err != nil {
			return err
		}
		fmt.Fprintln(e.out)
	}
	return h.EMIs(ctx, *loanID, *all, e.out)
}

func remindCommand(ctx context.Context, e *env, fs *flag.FlagSet, args []string) error {
	loanID := fs.String("loan", "", "loan id; defaults to the selected loan")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := emireminders.HandlerOptions{
		AppConfig: e.cfg,
		API:       e.client,
		Selection: e.session,
		Logger:    e.log,
	}
	r := e.cfg.Reminders
	if r.SMS.Enabled {
		sms, err := awsclient.NewSNSClient(ctx, r.Region, r.SMS.SenderID)
		if err != nil {
			return fmt.Errorf("sns client: %w", err)
		}
		opts.SMS = sms
	}
	if r.Email.Enabled {
		email, err := awsclient.NewSESClient(ctx, r.Region, r.Email.FromEmail)
		if err != nil {
			return fmt.Errorf("ses client: %w", err)
		}
		opts.Email = email
	}

	h, err := emireminders.NewHandler(opts)
	if err != nil {
		return err
	}
	_, err = h.Run(ctx, *loanID, e.out)
	return err
}

func exportCommand(ctx context.Context, e *env, fs *flag.FlagSet, args []string) error {
	loanID := fs.String("loan", "", "loan id; defaults to the selected loan")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var pg *database.PostgresClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(e.cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		return nil
	}, 3, time.Second, e.log, "PostgreSQL connection")
	if err != nil {
		return err
	}
	defer pg.Close()

	h, err := statementexport.NewHandler(statementexport.HandlerOptions{
		AppConfig: e.cfg,
		API:       e.client,
		Store:     pg,
		Selection: e.session,
		Logger:    e.log,
	})
	if err != nil {
		return err
	}
	_, err = h.Export(ctx, *loanID, e.out)
	return err
}

// retryWithBackoff attempts operation up to maxRetries times, doubling the delay.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
