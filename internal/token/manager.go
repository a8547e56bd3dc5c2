// Package token keeps the upstream bearer credential valid. The credential
// lives in process memory and in the shared cache so that every instance
// behind the same cache reuses one token.
package token

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/itsatony/occupeye-cache/internal/models"
	"github.com/itsatony/occupeye-cache/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Exchanger obtains a fresh credential from the identity endpoint.
type Exchanger interface {
	Exchange(ctx context.Context) (*models.Credential, error)
}

// Manager hands out bearer tokens. Concurrent callers may refresh at the
// same time; the last credential written wins and every one of them is valid.
type Manager struct {
	repo      repository.TokenRepository
	exchanger Exchanger
	now       func() time.Time
	current   atomic.Pointer[models.Credential]
	onRefresh func(expiry time.Time)
}

type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRefreshHook is called after every successful exchange.
func WithRefreshHook(fn func(expiry time.Time)) Option {
	return func(m *Manager) { m.onRefresh = fn }
}

func NewManager(repo repository.TokenRepository, exchanger Exchanger, opts ...Option) *Manager {
	m := &Manager{repo: repo, exchanger: exchanger, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetBearerToken returns the Authorization header value for data requests.
func (m *Manager) GetBearerToken(ctx context.Context) (string, error) {
	cred, err := m.Credential(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + cred.Token, nil
}

// Credential returns a credential valid at the current instant.
func (m *Manager) Credential(ctx context.Context) (*models.Credential, error) {
	now := m.now()
	if cred := m.current.Load(); cred.ValidAt(now) {
		return cred, nil
	}

	cached, err := m.repo.LoadCredential(ctx)
	if err != nil {
		nuts.L.Warnf("[TokenManager] Failed to read shared credential: %v", err)
	} else if cached.ValidAt(now) {
		m.current.Store(cached)
		nuts.L.Debugf("[TokenManager] Adopted shared credential expiring %s", cached.Expiry.UTC().Format(time.RFC3339))
		return cached, nil
	}

	return m.refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) (*models.Credential, error) {
	cred, err := m.exchanger.Exchange(ctx)
	if err != nil {
		nuts.L.Errorf("[TokenManager] Credential exchange failed: %v", err)
		return nil, err
	}
	m.current.Store(cred)

	if err := m.repo.SaveCredential(ctx, cred); err != nil {
		nuts.L.Warnf("[TokenManager] Failed to share credential: %v", err)
	}
	nuts.L.Infof("[TokenManager] Refreshed credential, expires %s", cred.Expiry.UTC().Format(time.RFC3339))
	if m.onRefresh != nil {
		m.onRefresh(cred.Expiry)
	}
	return cred, nil
}
