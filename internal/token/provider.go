// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/voxlink-ai/voxlink/pkg/commons"
)

// Credential is the short-lived bearer value used for exactly one
// negotiation. ExpiresAt is advisory — the caller uses it for pre-emptive
// refresh; the session core only consumes Value at offer-exchange time.
type Credential struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the credential is past its expiry (with a small
// safety margin). Credentials without a known expiry never report expired.
func (c *Credential) Expired() bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt.Add(-5 * time.Second))
}

// Provider supplies ephemeral credentials. Implementations must be safe for
// concurrent use; retry policy belongs to the caller.
type Provider interface {
	Token(ctx context.Context) (*Credential, error)
}

// sessionResponse is the token service's creation payload.
type sessionResponse struct {
	ID           string `json:"id"`
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

type httpProvider struct {
	logger commons.Logger
	client *resty.Client
	url    string
	apiKey string
	model  string

	// Concurrent Token calls share one in-flight mint; each ephemeral
	// credential is single-use upstream, but duplicate mints for the same
	// attempt burst are pointless load on the token service.
	group singleflight.Group
}

// NewHTTPProvider builds a Provider that mints an ephemeral session
// credential from the configured token endpoint.
func NewHTTPProvider(logger commons.Logger, url, apiKey, model string, timeout time.Duration) Provider {
	client := resty.New().SetTimeout(timeout)
	return &httpProvider{logger: logger, client: client, url: url, apiKey: apiKey, model: model}
}

func (p *httpProvider) Token(ctx context.Context) (*Credential, error) {
	v, err, _ := p.group.Do("mint", func() (interface{}, error) {
		return p.mint(ctx)
	})
	if err != nil {
		return nil, err
	}
	cred := *v.(*Credential)
	return &cred, nil
}

func (p *httpProvider) mint(ctx context.Context) (*Credential, error) {
	start := time.Now()

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+p.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"model": p.model}).
		Post(p.url)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("token endpoint rejected request: status %d: %s", resp.StatusCode(), resp.String())
	}

	var session sessionResponse
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if session.ClientSecret.Value == "" {
		return nil, fmt.Errorf("token response missing client secret")
	}

	cred := &Credential{Value: session.ClientSecret.Value}
	if session.ClientSecret.ExpiresAt > 0 {
		cred.ExpiresAt = time.Unix(session.ClientSecret.ExpiresAt, 0)
	} else {
		// Some token services omit expires_at and issue a JWT instead; pull
		// the exp claim without verifying — we only need it for refresh
		// scheduling, the remote end does the real validation.
		cred.ExpiresAt = expiryFromJWT(session.ClientSecret.Value)
	}

	p.logger.Benchmark("token.fetch", time.Since(start))
	return cred, nil
}

// expiryFromJWT extracts the exp claim from a JWT-shaped credential. Returns
// the zero time when the value is not a JWT or carries no expiry.
func expiryFromJWT(value string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(value, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// StaticProvider returns a fixed credential; used by tests and by callers
// that already hold a token.
type StaticProvider struct {
	Credential Credential
}

func (s *StaticProvider) Token(context.Context) (*Credential, error) {
	cred := s.Credential
	return &cred, nil
}
