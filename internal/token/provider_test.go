// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package token

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlink-ai/voxlink/pkg/commons"
)

func testLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)
	return logger
}

func TestHTTPProvider_MintsCredential(t *testing.T) {
	expiresAt := time.Now().Add(time.Minute).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-realtime-preview", body["model"])

		fmt.Fprintf(w, `{"id":"sess_1","client_secret":{"value":"ek_abc","expires_at":%d}}`, expiresAt)
	}))
	defer server.Close()

	provider := NewHTTPProvider(testLogger(t), server.URL, "sk-test", "gpt-4o-realtime-preview", time.Second)
	cred, err := provider.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ek_abc", cred.Value)
	assert.Equal(t, time.Unix(expiresAt, 0), cred.ExpiresAt)
	assert.False(t, cred.Expired())
}

func TestHTTPProvider_NonSuccessCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid api key"}`)
	}))
	defer server.Close()

	provider := NewHTTPProvider(testLogger(t), server.URL, "bad-key", "m", time.Second)
	_, err := provider.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestHTTPProvider_NetworkFailureIsDistinct(t *testing.T) {
	provider := NewHTTPProvider(testLogger(t), "http://127.0.0.1:1/sessions", "k", "m", 200*time.Millisecond)
	_, err := provider.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token request failed")
	assert.NotContains(t, err.Error(), "status")
}

func TestHTTPProvider_JWTExpiryFallback(t *testing.T) {
	exp := time.Now().Add(2 * time.Minute).Truncate(time.Second)
	jwtValue := buildUnsignedJWT(t, exp)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"sess_2","client_secret":{"value":%q}}`, jwtValue)
	}))
	defer server.Close()

	provider := NewHTTPProvider(testLogger(t), server.URL, "k", "m", time.Second)
	cred, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exp.Unix(), cred.ExpiresAt.Unix())
}

func TestHTTPProvider_MissingSecretIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"sess_3"}`)
	}))
	defer server.Close()

	provider := NewHTTPProvider(testLogger(t), server.URL, "k", "m", time.Second)
	_, err := provider.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing client secret")
}

func TestCredential_Expired(t *testing.T) {
	fresh := Credential{Value: "v", ExpiresAt: time.Now().Add(time.Minute)}
	assert.False(t, fresh.Expired())

	stale := Credential{Value: "v", ExpiresAt: time.Now().Add(-time.Second)}
	assert.True(t, stale.Expired())

	unknown := Credential{Value: "v"}
	assert.False(t, unknown.Expired(), "unknown expiry never reports expired")
}

// buildUnsignedJWT assembles an alg=none token carrying only an exp claim.
func buildUnsignedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	encode := func(v map[string]interface{}) string {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(raw)
	}
	header := encode(map[string]interface{}{"alg": "none", "typ": "JWT"})
	claims := encode(map[string]interface{}{"exp": exp.Unix()})
	return header + "." + claims + "."
}
