// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package negotiate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlink-ai/voxlink/internal/channel"
	"github.com/voxlink-ai/voxlink/internal/session"
	"github.com/voxlink-ai/voxlink/internal/transport"
	"github.com/voxlink-ai/voxlink/pkg/commons"
)

func testNegotiator(t *testing.T, cfg Config) *Negotiator {
	t.Helper()
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)

	factory, err := transport.NewFactory(logger)
	require.NoError(t, err)
	t.Cleanup(factory.Dispose)

	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 5 * time.Second
	}
	return NewNegotiator(logger, factory, cfg)
}

func TestExchangeWithRemote_Success(t *testing.T) {
	const offer = "v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\ns=-\r\n"
	const answer = "v=0\r\no=- 1 1 IN IP4 127.0.0.1\r\ns=answer\r\n"

	var gotAuth, gotContentType, gotModel, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotModel = r.URL.Query().Get("model")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/sdp")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(answer))
	}))
	defer srv.Close()

	n := testNegotiator(t, Config{SignalingURL: srv.URL, Model: "gpt-4o-realtime-preview"})

	got, err := n.ExchangeWithRemote(context.Background(), offer, "ek_secret")
	require.NoError(t, err)
	assert.Equal(t, answer, got)
	assert.Equal(t, "Bearer ek_secret", gotAuth)
	assert.Equal(t, "application/sdp", gotContentType)
	assert.Equal(t, "gpt-4o-realtime-preview", gotModel)
	assert.Equal(t, offer, gotBody)
}

func TestExchangeWithRemote_RejectionCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid ephemeral key"}`))
	}))
	defer srv.Close()

	n := testNegotiator(t, Config{SignalingURL: srv.URL})

	_, err := n.ExchangeWithRemote(context.Background(), "v=0", "ek_expired")
	require.Error(t, err)

	var httpErr *session.SignalingHTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "invalid ephemeral key")
	assert.Contains(t, err.Error(), "401")
}

func TestExchangeWithRemote_NetworkFailureIsNotAnHTTPError(t *testing.T) {
	// Bind-then-close guarantees a refused port.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := testNegotiator(t, Config{SignalingURL: url, HTTPTimeout: 2 * time.Second})

	_, err := n.ExchangeWithRemote(context.Background(), "v=0", "ek_secret")
	require.Error(t, err)

	var httpErr *session.SignalingHTTPError
	assert.False(t, errors.As(err, &httpErr), "transport failures must stay distinct from HTTP rejections")
	assert.Contains(t, err.Error(), "signaling request failed")
}

func TestCreatePeerLink_OfferAnnouncesChannelAndAudio(t *testing.T) {
	n := testNegotiator(t, Config{})

	link, err := n.CreatePeerLink()
	require.NoError(t, err)
	defer func() { _ = link.Close() }()

	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)
	factory, err := transport.NewFactory(logger)
	require.NoError(t, err)
	defer factory.Dispose()

	mic, err := factory.NewMicrophoneTrack()
	require.NoError(t, err)
	require.NoError(t, link.AttachMicrophone(mic))

	// The data channel must exist before the offer so it shows up in the SDP.
	_, err = link.OpenEventChannel(channel.Handlers{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sdp, err := link.CreateOffer(ctx)
	require.NoError(t, err)

	assert.Contains(t, sdp, "m=audio", "offer must carry the audio section")
	assert.Contains(t, sdp, "opus/48000/2", "offer must negotiate Opus")
	assert.Contains(t, sdp, "m=application", "offer must announce the data channel")
}

func TestCreatePeerLink_CloseIsIdempotent(t *testing.T) {
	n := testNegotiator(t, Config{})

	link, err := n.CreatePeerLink()
	require.NoError(t, err)

	require.NoError(t, link.Close())
	require.NoError(t, link.Close())
}

func TestCreatePeerLink_FailsAfterDispose(t *testing.T) {
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)
	factory, err := transport.NewFactory(logger)
	require.NoError(t, err)

	n := NewNegotiator(logger, factory, Config{HTTPTimeout: time.Second})
	factory.Dispose()

	_, err = n.CreatePeerLink()
	require.Error(t, err)
}
