package session

import (
	"context"
	"sync"

	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/common/metrics"
	"borrower-client/internal/models"
)

// Event describes one change made through a Session.
type Event struct {
	Key     string
	Value   string
	Deleted bool
}

// Session is the injected replacement for the browser's global token state.
// It reads and writes through a Store and notifies subscribers of changes.
type Session struct {
	store  Store
	logger logger.Logger

	mu     sync.RWMutex
	subs   map[int]func(Event)
	nextID int
}

func New(store Store, log logger.Logger) *Session {
	return &Session{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "session"}),
		subs:   make(map[int]func(Event)),
	}
}

// Subscribe registers fn for every change. The returned func removes it.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	metrics.SessionSubscribers.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			metrics.SessionSubscribers.Dec()
		})
	}
}

func (s *Session) notify(ev Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Get returns the value for key and whether it was present.
func (s *Session) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return "", false, errors.NewSessionStoreError("get "+key, err)
	}
	return v, ok, nil
}

// Value returns the value for key, or "" when absent or unreadable.
func (s *Session) Value(ctx context.Context, key string) string {
	v, _, err := s.Get(ctx, key)
	if err != nil {
		s.logger.Warn("session read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return v
}

func (s *Session) Set(ctx context.Context, key, value string) error {
	if err := s.store.Set(ctx, key, value); err != nil {
		return errors.NewSessionStoreError("set "+key, err)
	}
	s.notify(Event{Key: key, Value: value})
	return nil
}

func (s *Session) Delete(ctx context.Context, keys ...string) error {
	if err := s.store.Delete(ctx, keys...); err != nil {
		return errors.NewSessionStoreError("delete", err)
	}
	for _, k := range keys {
		s.notify(Event{Key: k, Deleted: true})
	}
	return nil
}

// Tokens reads the stored credentials, falling back to the legacy access key.
func (s *Session) Tokens(ctx context.Context) (models.TokenPair, error) {
	access, ok, err := s.Get(ctx, models.KeyAccessToken)
	if err != nil {
		return models.TokenPair{}, err
	}
	if !ok || access == "" {
		access, _, err = s.Get(ctx, models.KeyLegacyAccessToken)
		if err != nil {
			return models.TokenPair{}, err
		}
	}
	refresh, _, err := s.Get(ctx, models.KeyRefreshToken)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// SetTokens stores a new pair. An empty refresh token keeps the stored one.
func (s *Session) SetTokens(ctx context.Context, pair models.TokenPair) error {
	if err := s.Set(ctx, models.KeyAccessToken, pair.AccessToken); err != nil {
		return err
	}
	if pair.RefreshToken != "" {
		if err := s.Set(ctx, models.KeyRefreshToken, pair.RefreshToken); err != nil {
			return err
		}
	}
	// the canonical key is now authoritative
	_, ok, err := s.Get(ctx, models.KeyLegacyAccessToken)
	if err != nil {
		s.logger.Warn("could not check legacy access token", map[string]interface{}{"error": err.Error()})
		return err
	}
	if ok {
		return s.Delete(ctx, models.KeyLegacyAccessToken)
	}
	return nil
}

// ClearTokens removes every credential key.
func (s *Session) ClearTokens(ctx context.Context) error {
	s.logger.Info("clearing session tokens", nil)
	return s.Delete(ctx, models.TokenKeys...)
}

// IsAuthenticated reports whether an access token is stored.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	pair, err := s.Tokens(ctx)
	return err == nil && !pair.IsEmpty()
}

func (s *Session) Close() error {
	return s.store.Close()
}
