// Package api is the single gateway to the lending backend. It attaches the
// session's bearer token, refreshes once on 401 and turns error bodies into
// user-facing messages.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/errors"
	commonhttp "borrower-client/internal/common/http"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/common/metrics"
	"borrower-client/internal/common/observability"
	"borrower-client/internal/common/validation"
	"borrower-client/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
)

// TokenStore is the slice of the session the client needs.
type TokenStore interface {
	Tokens(ctx context.Context) (models.TokenPair, error)
	SetTokens(ctx context.Context, pair models.TokenPair) error
	ClearTokens(ctx context.Context) error
}

// RequestOptions describes one call. Body is JSON-encoded when non-nil.
type RequestOptions struct {
	Method   string
	Body     interface{}
	Headers  map[string]string
	SkipAuth bool
}

type Client struct {
	baseURL          string
	doer             commonhttp.Doer
	tokens           TokenStore
	logger           logger.Logger
	obs              *observability.Observability
	contracts        *validation.ContractValidator
	proactiveRefresh bool
	now              func() time.Time

	refreshMu sync.Mutex
}

type Option func(*Client)

// WithDoer replaces the HTTP transport, e.g. with an httptest server client.
func WithDoer(d commonhttp.Doer) Option {
	return func(c *Client) { c.doer = d }
}

func WithObservability(obs *observability.Observability) Option {
	return func(c *Client) { c.obs = obs }
}

// WithProactiveRefresh refreshes an expired JWT before sending instead of
// waiting for the 401.
func WithProactiveRefresh(enabled bool) Option {
	return func(c *Client) { c.proactiveRefresh = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(baseURL string, tokens TokenStore, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		doer:      commonhttp.NewClient(15 * time.Second),
		tokens:    tokens,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
		contracts: newContracts(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig wires timeout and refresh policy from cfg. Explicit options win.
func NewFromConfig(cfg config.APIConfig, tokens TokenStore, log logger.Logger, opts ...Option) *Client {
	base := []Option{
		WithDoer(commonhttp.NewClient(config.GetDuration(cfg.Timeout))),
		WithProactiveRefresh(cfg.ProactiveRefresh),
	}
	return New(cfg.BaseURL, tokens, log, append(base, opts...)...)
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Request sends one call and decodes a 2xx body into out (if non-nil).
//
// A 401 on an authenticated call triggers exactly one token refresh and one
// retry. When that fails the tokens are cleared and the returned error
// matches errors.ErrSessionExpired.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions, out interface{}) (err error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	endpoint := endpointLabel(path)

	ctx, span := c.obs.StartSpan(ctx, "api "+method+" "+endpoint,
		attribute.String("http.method", method),
		attribute.String("http.route", endpoint),
	)
	defer func() { observability.EndSpan(span, err) }()

	var payload []byte
	if opts.Body != nil {
		payload, err = json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	refreshed := false
	if !opts.SkipAuth && c.proactiveRefresh {
		pair, terr := c.tokens.Tokens(ctx)
		if terr != nil {
			return terr
		}
		if pair.AccessToken != "" && tokenExpired(pair.AccessToken, c.now()) {
			if rerr := c.refresh(ctx, "proactive", pair.AccessToken); rerr != nil {
				return c.expire(ctx, rerr)
			}
			refreshed = true
		}
	}

	body, status, sentToken, err := c.send(ctx, method, path, endpoint, payload, opts)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !opts.SkipAuth {
		if refreshed {
			return c.expire(ctx, stderrors.New("unauthorized after refresh"))
		}
		if rerr := c.refresh(ctx, "unauthorized", sentToken); rerr != nil {
			return c.expire(ctx, rerr)
		}
		body, status, _, err = c.send(ctx, method, path, endpoint, payload, opts)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return c.expire(ctx, stderrors.New("retry unauthorized"))
		}
	}

	span.SetAttributes(attribute.Int("http.status_code", status))

	if status < 200 || status >= 300 {
		apiErr := errors.NewAPIError(method, path, status, ExtractMessage(body))
		c.logger.Warn("api request rejected", map[string]interface{}{
			"method": method,
			"path":   path,
			"status": status,
			"error":  apiErr.Message,
		})
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewContractError(path, err.Error())
	}
	return nil
}

// send performs one round trip and reports the access token it attached.
func (c *Client) send(ctx context.Context, method, path, endpoint string, payload []byte, opts RequestOptions) ([]byte, int, string, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	var token string
	if !opts.SkipAuth {
		pair, err := c.tokens.Tokens(ctx)
		if err != nil {
			return nil, 0, "", err
		}
		token = pair.AccessToken
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	duration := time.Since(start)
	metrics.APIRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())

	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, method, "error").Inc()
		c.logger.Warn("api request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		if ctx.Err() != nil {
			return nil, 0, "", ctx.Err()
		}
		return nil, 0, "", errors.NewNetworkError(path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, "", errors.NewNetworkError(path, err)
	}

	metrics.APIRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(resp.StatusCode)).Inc()
	c.obs.RecordRequest(ctx, endpoint, resp.StatusCode, duration)
	c.logger.Debug("api request", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": duration.Milliseconds(),
		"request_id":  req.Header.Get(commonhttp.RequestIDHeader),
	})

	return data, resp.StatusCode, token, nil
}

// refresh performs the single refresh attempt. Concurrent callers serialize;
// a caller whose stale token was already replaced while it waited reuses the
// new one instead of refreshing again.
func (c *Client) refresh(ctx context.Context, trigger, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	pair, err := c.tokens.Tokens(ctx)
	if err != nil {
		return err
	}
	if pair.AccessToken != "" && pair.AccessToken != stale {
		metrics.TokenRefreshTotal.WithLabelValues(trigger, "reused").Inc()
		return nil
	}
	if pair.RefreshToken == "" {
		metrics.TokenRefreshTotal.WithLabelValues(trigger, "no_token").Inc()
		return stderrors.New("no refresh token")
	}

	var resp models.RefreshTokenResponse
	err = c.requestContract(ctx, PathTokenRefresh, RequestOptions{
		Method:   http.MethodPost,
		Body:     models.RefreshTokenRequest{RefreshToken: pair.RefreshToken},
		SkipAuth: true,
	}, contractRefresh, &resp)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues(trigger, "failed").Inc()
		return err
	}

	if err := c.tokens.SetTokens(ctx, models.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		metrics.TokenRefreshTotal.WithLabelValues(trigger, "failed").Inc()
		return err
	}

	metrics.TokenRefreshTotal.WithLabelValues(trigger, "success").Inc()
	c.logger.Info("access token refreshed", map[string]interface{}{"trigger": trigger})
	return nil
}

func (c *Client) expire(ctx context.Context, cause error) error {
	if err := c.tokens.ClearTokens(ctx); err != nil {
		c.logger.Error("failed to clear tokens", map[string]interface{}{"error": err.Error()})
	}
	c.logger.Warn("session expired", map[string]interface{}{"cause": cause.Error()})
	return errors.NewSessionExpiredError(cause.Error())
}

// requestContract decodes the body generically, checks it against the named
// schema and only then decodes into out.
func (c *Client) requestContract(ctx context.Context, path string, opts RequestOptions, contract string, out interface{}) error {
	var raw json.RawMessage
	if err := c.Request(ctx, path, opts, &raw); err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.NewContractError(path, err.Error())
	}
	if err := c.contracts.Validate(contract, doc); err != nil {
		return errors.NewContractError(path, err.Error())
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewContractError(path, err.Error())
	}
	return nil
}

// ExtractMessage picks the user-facing text out of an error body: message,
// then detail as a string, then detail[0].msg.
func ExtractMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return errors.DefaultAPIMessage
	}
	if strings.TrimSpace(payload.Message) != "" {
		return payload.Message
	}
	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil && strings.TrimSpace(detail) != "" {
			return detail
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 && items[0].Msg != "" {
			return items[0].Msg
		}
	}
	return errors.DefaultAPIMessage
}

// tokenExpired reads exp without verifying the signature; the backend remains
// the authority. Tokens that are not JWTs or carry no exp never count as expired.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// endpointLabel collapses id segments so metric labels stay bounded.
func endpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if strings.IndexFunc(s, unicode.IsDigit) >= 0 {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
