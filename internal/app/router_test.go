package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct{ authed bool }

func (f *fakeAuth) IsAuthenticated(context.Context) bool { return f.authed }

// ==========================
// Guards
// ==========================

func TestRouter_Resolve(t *testing.T) {
	disabled := config.Default()
	disabled.Screens = map[string]config.ScreenConfig{
		"credit.credit-score": {Enabled: false, Timeout: 1000},
	}

	tests := []struct {
		name   string
		authed bool
		cfg    *config.Config
		route  string
		want   string
	}{
		{"root unauthenticated", false, nil, "/", RouteLogin},
		{"root authenticated", true, nil, "", RouteDashboard},
		{"protected unauthenticated", false, nil, RouteDashboard, RouteLogin},
		{"protected with query", true, nil, "/loans?invoice_id=inv-1", "/loans?invoice_id=inv-1"},
		{"public while authenticated", true, nil, RouteLogin, RouteLogin},
		{"unknown route authenticated", true, nil, "/nowhere", RouteDashboard},
		{"unknown route unauthenticated", false, nil, "/nowhere", RouteLogin},
		{"disabled screen", true, disabled, RouteCreditScore, RouteDashboard},
		{"enabled screen with config", true, disabled, RouteInvoices, RouteInvoices},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []RouterOption
			if tt.cfg != nil {
				opts = append(opts, WithConfig(tt.cfg))
			}
			r := NewRouter(nil, &fakeAuth{authed: tt.authed}, logger.NewNoOpLogger(), opts...)
			assert.Equal(t, tt.want, r.Resolve(context.Background(), tt.route))
		})
	}
}

func TestRouter_NavigateRecordsHistoryAndNotifies(t *testing.T) {
	r := NewRouter(nil, &fakeAuth{authed: true}, logger.NewTestLogger(t))

	var changes []string
	r.OnChange(func(from, to string) { changes = append(changes, from+">"+to) })

	r.Navigate(RouteDashboard)
	r.Navigate("/loans?invoice_id=inv-7")

	assert.Equal(t, "/loans?invoice_id=inv-7", r.Current())
	assert.Equal(t, "inv-7", r.Params().Get("invoice_id"))
	assert.Equal(t, []string{RouteDashboard, "/loans?invoice_id=inv-7"}, r.History())
	assert.Equal(t, []string{">/dashboard", "/dashboard>/loans?invoice_id=inv-7"}, changes)

	screen, ok := r.Screen()
	require.True(t, ok)
	assert.Equal(t, "credit.loan-offer", screen.ID)
}

func TestRouter_ParamsWithoutQuery(t *testing.T) {
	r := NewRouter(nil, &fakeAuth{authed: true}, logger.NewNoOpLogger())
	r.Navigate(RouteInvoices)
	assert.Empty(t, r.Params())
}

// ==========================
// Delayed Redirects
// ==========================

func TestRouter_NavigateAfterAndWait(t *testing.T) {
	r := NewRouter(nil, &fakeAuth{authed: true}, logger.NewNoOpLogger())
	r.Navigate(RouteOnboarding)

	r.NavigateAfter(RouteDashboard, 20*time.Millisecond)
	assert.Equal(t, RouteOnboarding, r.Current())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))
	assert.Equal(t, RouteDashboard, r.Current())

	// nothing pending any more
	require.NoError(t, r.Wait(ctx))
}

func TestRouter_LatestScheduleWins(t *testing.T) {
	r := NewRouter(nil, &fakeAuth{authed: true}, logger.NewNoOpLogger())

	r.NavigateAfter(RouteInvoices, 40*time.Millisecond)
	r.NavigateAfter(RouteDashboard, 10*time.Millisecond)
	require.NoError(t, r.Wait(context.Background()))
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, RouteDashboard, r.Current())
	assert.Equal(t, []string{RouteDashboard}, r.History())
}

func TestRouter_NavigateCancelsPending(t *testing.T) {
	r := NewRouter(nil, &fakeAuth{authed: true}, logger.NewNoOpLogger())

	r.NavigateAfter(RouteDashboard, 30*time.Millisecond)
	r.Navigate(RouteProfile)
	require.NoError(t, r.Wait(context.Background()))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, RouteProfile, r.Current())
}

func TestRouter_WaitHonoursContext(t *testing.T) {
	r := NewRouter(nil, &fakeAuth{authed: true}, logger.NewNoOpLogger())
	r.NavigateAfter(RouteDashboard, time.Hour)
	defer r.Navigate(RouteDashboard)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

// ==========================
// Error Handling
// ==========================

func TestRouter_HandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		handled  bool
		location string
	}{
		{"nil", nil, false, RouteDashboard},
		{"expired", errors.NewSessionExpiredError("refresh failed"), true, RouteLogin},
		{"wrapped expired", fmt.Errorf("load dashboard: %w", errors.NewSessionExpiredError("x")), true, RouteLogin},
		{"api error", errors.NewAPIError("GET", "/x", 500, "boom"), false, RouteDashboard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(nil, &fakeAuth{authed: true}, logger.NewNoOpLogger())
			r.Navigate(RouteDashboard)
			assert.Equal(t, tt.handled, r.HandleError(tt.err))
			assert.Equal(t, tt.location, r.Current())
		})
	}
}
