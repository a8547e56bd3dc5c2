package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/itsatony/occupeye-cache/internal/models"
	"github.com/itsatony/occupeye-cache/internal/repository"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu    sync.Mutex
	cred  *models.Credential
	saves int
}

var _ repository.TokenRepository = (*memRepo)(nil)

func (r *memRepo) LoadCredential(context.Context) (*models.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cred, nil
}

func (r *memRepo) SaveCredential(_ context.Context, cred *models.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cred = cred
	r.saves++
	return nil
}

type countingExchanger struct {
	calls  int
	ttl    time.Duration
	now    func() time.Time
	failed error
}

var _ Exchanger = (*countingExchanger)(nil)

func (e *countingExchanger) Exchange(context.Context) (*models.Credential, error) {
	e.calls++
	if e.failed != nil {
		return nil, e.failed
	}
	return &models.Credential{
		Token:  "tok-" + string(rune('0'+e.calls)),
		Expiry: e.now().Add(e.ttl),
	}, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setup() (*Manager, *memRepo, *countingExchanger, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	repo := &memRepo{}
	ex := &countingExchanger{ttl: time.Hour, now: c.now}
	return NewManager(repo, ex, WithClock(c.now)), repo, ex, c
}

func TestGetBearerToken_ExchangesOnceWithinWindow(t *testing.T) {
	m, repo, ex, c := setup()

	first, err := m.GetBearerToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-1", first)

	c.t = c.t.Add(30 * time.Minute)
	second, err := m.GetBearerToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, ex.calls)
	require.Equal(t, 1, repo.saves)
}

func TestGetBearerToken_ValidAtExactExpiry(t *testing.T) {
	m, _, ex, c := setup()
	_, err := m.GetBearerToken(context.Background())
	require.NoError(t, err)

	c.t = c.t.Add(time.Hour)
	_, err = m.GetBearerToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, ex.calls)

	c.t = c.t.Add(time.Second)
	tok, err := m.GetBearerToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-2", tok)
	require.Equal(t, 2, ex.calls)
}

func TestGetBearerToken_AdoptsSharedCredential(t *testing.T) {
	m, repo, ex, c := setup()
	repo.cred = &models.Credential{Token: "shared", Expiry: c.t.Add(time.Minute)}

	tok, err := m.GetBearerToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer shared", tok)
	require.Zero(t, ex.calls)
}

func TestGetBearerToken_IgnoresExpiredSharedCredential(t *testing.T) {
	m, repo, ex, c := setup()
	repo.cred = &models.Credential{Token: "stale", Expiry: c.t.Add(-time.Second)}

	tok, err := m.GetBearerToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-1", tok)
	require.Equal(t, 1, ex.calls)
	require.Equal(t, "tok-1", repo.cred.Token)
}

func TestGetBearerToken_ExchangeFailurePropagates(t *testing.T) {
	m, repo, ex, _ := setup()
	ex.failed = errors.New("invalid_grant")

	_, err := m.GetBearerToken(context.Background())
	require.ErrorIs(t, err, ex.failed)
	require.Nil(t, repo.cred)
}

func TestRefreshHook(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	ex := &countingExchanger{ttl: time.Hour, now: c.now}
	var got time.Time
	m := NewManager(&memRepo{}, ex, WithClock(c.now), WithRefreshHook(func(expiry time.Time) { got = expiry }))

	_, err := m.GetBearerToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, c.t.Add(time.Hour), got)
}
