// Package app routes between screens. It owns the current location, applies
// the auth guard from the screen registry and turns an expired session into a
// redirect to the login screen.
package app

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/pkg/registry"
)

const (
	RouteLogin       = "/login"
	RouteOnboarding  = "/onboarding"
	RouteDashboard   = "/dashboard"
	RouteProfile     = "/profile"
	RouteInvoices    = "/invoices"
	RouteLoans       = "/loans"
	RouteCreditScore = "/credit-score"
	RouteRepayments  = "/repayments"
	RouteReminders   = "/reminders"
	RouteStatements  = "/statements"
)

// Navigator is what screens use to request a location change.
type Navigator interface {
	Navigate(route string)
	NavigateAfter(route string, delay time.Duration)
}

// AuthChecker reports whether the session holds an access token.
type AuthChecker interface {
	IsAuthenticated(ctx context.Context) bool
}

type Router struct {
	screens *registry.ScreenRegistry
	auth    AuthChecker
	cfg     *config.Config
	logger  logger.Logger

	mu        sync.Mutex
	current   string
	history   []string
	timer     *time.Timer
	pending   chan struct{}
	listeners []func(from, to string)
}

type RouterOption func(*Router)

// WithConfig lets the router honour screens disabled in configuration.
func WithConfig(cfg *config.Config) RouterOption {
	return func(r *Router) { r.cfg = cfg }
}

func NewRouter(screens *registry.ScreenRegistry, auth AuthChecker, log logger.Logger, opts ...RouterOption) *Router {
	if screens == nil {
		screens = registry.Default()
	}
	r := &Router{
		screens: screens,
		auth:    auth,
		logger:  log.WithFields(map[string]interface{}{"component": "router"}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnChange registers fn for every completed navigation.
func (r *Router) OnChange(fn func(from, to string)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Navigate moves to route after applying the guards. A pending delayed
// redirect is cancelled.
func (r *Router) Navigate(route string) {
	r.cancelPending()
	r.navigate(route)
}

func (r *Router) navigate(route string) {
	target := r.Resolve(context.Background(), route)

	r.mu.Lock()
	from := r.current
	r.current = target
	r.history = append(r.history, target)
	listeners := append([]func(from, to string){}, r.listeners...)
	r.mu.Unlock()

	r.logger.Debug("navigate", map[string]interface{}{
		"requested": route,
		"from":      from,
		"to":        target,
	})
	for _, fn := range listeners {
		fn(from, target)
	}
}

// NavigateAfter schedules a redirect. Only the latest schedule survives.
func (r *Router) NavigateAfter(route string, delay time.Duration) {
	r.cancelPending()

	done := make(chan struct{})
	r.mu.Lock()
	r.pending = done
	r.timer = time.AfterFunc(delay, func() {
		r.navigate(route)
		r.mu.Lock()
		if r.pending == done {
			r.pending = nil
			r.timer = nil
		}
		r.mu.Unlock()
		close(done)
	})
	r.mu.Unlock()
}

func (r *Router) cancelPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil && r.timer.Stop() {
		close(r.pending)
	}
	r.timer = nil
	r.pending = nil
}

// Wait blocks until a scheduled redirect has fired. It returns immediately
// when nothing is pending.
func (r *Router) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.pending
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resolve returns where a request for route actually lands.
func (r *Router) Resolve(ctx context.Context, route string) string {
	authed := r.auth != nil && r.auth.IsAuthenticated(ctx)
	home := RouteLogin
	if authed {
		home = RouteDashboard
	}

	path := route
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == "/" {
		return home
	}

	screen, ok := r.screens.Lookup(path)
	if !ok {
		return home
	}
	if screen.RequiresAuth && !authed {
		return RouteLogin
	}
	if r.cfg != nil && !config.IsScreenEnabled(r.cfg, screen.ID) {
		return home
	}
	return route
}

// HandleError redirects to the login screen when err means the session is
// gone. It reports whether it did so.
func (r *Router) HandleError(err error) bool {
	if err == nil || !stderrors.Is(err, errors.ErrSessionExpired) {
		return false
	}
	r.logger.Info("session expired, redirecting to login", nil)
	r.Navigate(RouteLogin)
	return true
}

// Current returns the current location including its query.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Params returns the query parameters of the current location.
func (r *Router) Params() url.Values {
	current := r.Current()
	i := strings.IndexByte(current, '?')
	if i < 0 {
		return url.Values{}
	}
	values, err := url.ParseQuery(current[i+1:])
	if err != nil {
		return url.Values{}
	}
	return values
}

func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Screen returns the registry entry for the current location.
func (r *Router) Screen() (registry.Screen, bool) {
	return r.screens.Lookup(r.Current())
}
