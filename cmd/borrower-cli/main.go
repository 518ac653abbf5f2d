// cmd/borrower-cli/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"borrower-client/internal/api"
	"borrower-client/internal/app"
	"borrower-client/internal/common/config"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/common/metrics"
	"borrower-client/internal/common/observability"
	"borrower-client/internal/session"
	"borrower-client/pkg/registry"
)

const usage = `Usage: borrower-cli [-config FILE] <command> [flags]

Commands:
  login        sign in with phone number and one-time password
  logout       forget the stored session
  onboard      complete Aadhaar, PAN and GST verification
  dashboard    credit limit, score, active loans and recent activity
  profile      business profile
  score        credit score and risk grade
  invoices     list invoices
  invoice      show one invoice, optionally selecting it for financing
  invoice-add  upload an invoice
  loan         review, sign and sanction the offer for an invoice
  loans        active offers and loans
  emis         EMI schedule of a loan, or every repayment
  emi-pay      pay an EMI
  emi-bounce   mark an EMI as bounced
  remind       send reminders for EMIs falling due
  export       copy a loan's EMI schedule into PostgreSQL
`

// env bundles what every command needs.
type env struct {
	cfg     *config.Config
	log     logger.Logger
	session *session.Session
	client  *api.Client
	router  *app.Router
	screens *registry.ScreenRegistry
	in      io.Reader
	out     io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("borrower-cli", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "", "path to a config file")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}
	command, rest := global.Arg(0), global.Args()[1:]

	screens := registry.Default()
	screen, ok := screens.ByCommand(command)
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		global.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	log, closeLog, err := logger.NewFromConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer closeLog()

	obs := observability.New("borrower-cli")
	defer obs.Shutdown()

	if cfg.Metrics.Enabled {
		startMetricsListener(cfg.Metrics.Address, log)
	}

	store, err := session.NewStore(cfg.Session, cfg.Database.Redis)
	if err != nil {
		fmt.Fprintf(stderr, "session: %v\n", err)
		return 1
	}
	sess := session.New(store, log)
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := app.NewRouter(screens, sess, log, app.WithConfig(cfg))
	router.OnChange(func(from, to string) {
		obs.RecordStep(ctx, "navigation", to)
	})

	e := &env{
		cfg:     cfg,
		log:     log,
		session: sess,
		client:  api.NewFromConfig(cfg.API, sess, log, api.WithObservability(obs)),
		router:  router,
		screens: screens,
		in:      stdin,
		out:     stdout,
	}

	// the router's guard decides whether the command may run at all
	router.Navigate(screen.Route)
	if landed := routePath(router.Current()); landed != screen.Route {
		if landed == app.RouteLogin {
			fmt.Fprintln(stderr, "Please log in first: borrower-cli login")
		} else {
			fmt.Fprintf(stderr, "%s is not available\n", screen.DisplayName)
		}
		return 1
	}

	log.Debug("running command", map[string]interface{}{"command": command, "screen": screen.ID})
	err = dispatch(ctx, e, command, rest)
	if err == nil {
		if werr := router.Wait(ctx); werr == nil {
			announce(e, screen.Route)
		}
		return 0
	}

	if err == flag.ErrHelp {
		return 2
	}
	if router.HandleError(err) {
		fmt.Fprintln(stderr, errors.UserMessage(err))
		fmt.Fprintln(stderr, "Run borrower-cli login to sign in again.")
		return 1
	}
	fmt.Fprintf(stderr, "Error: %s\n", errors.UserMessage(err))
	log.Debug("command failed", map[string]interface{}{"command": command, "error": err.Error()})
	return 1
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// startMetricsListener serves the prometheus registry for the life of the command.
func startMetricsListener(addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics listener stopped", map[string]interface{}{"address": addr, "error": err.Error()})
		}
	}()
}

// announce tells the user where a screen's redirect would have taken them.
func announce(e *env, started string) {
	current := routePath(e.router.Current())
	if current == started {
		return
	}
	if next, ok := e.screens.Lookup(current); ok && len(next.Commands) > 0 {
		fmt.Fprintf(e.out, "Next: borrower-cli %s\n", next.Commands[0])
	}
}

func routePath(route string) string {
	if i := strings.IndexByte(route, '?'); i >= 0 {
		return route[:i]
	}
	return route
}
