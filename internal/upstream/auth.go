package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/models"
)

// Authenticator performs the password-grant exchange with the fixed
// service account from configuration.
type Authenticator struct {
	transport *Transport
	username  string
	password  string
	now       func() time.Time
}

func NewAuthenticator(t *Transport, username, password string) *Authenticator {
	return &Authenticator{transport: t, username: username, password: password, now: time.Now}
}

// Exchange requests a new bearer token. The expiry is computed in whole
// seconds from the upstream expires_in with no safety margin.
func (a *Authenticator) Exchange(ctx context.Context) (*models.Credential, error) {
	form := url.Values{}
	form.Set("Grant_type", "password")
	form.Set("Username", a.username)
	form.Set("Password", a.password)

	req, err := http.NewRequest(http.MethodPost, a.transport.URL("/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.NewInternalError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	issuedAt := a.now()
	resp, err := a.transport.Do(ctx, "token", req)
	if err != nil {
		return nil, errors.NewUpstreamError("credential exchange failed", err)
	}
	if !resp.OK() {
		return nil, errors.NewUpstreamError("credential exchange rejected", nil).
			WithDetails(map[string]any{"status": resp.StatusCode, "body": resp.snippet()})
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return nil, errors.NewUpstreamError("unreadable token response", err)
	}
	if tr.AccessToken == "" {
		return nil, errors.NewUpstreamError("token response has no access_token", nil)
	}

	return &models.Credential{
		Token:  tr.AccessToken,
		Expiry: time.Unix(issuedAt.Unix()+tr.ExpiresIn, 0),
	}, nil
}
