// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package negotiate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voxlink-ai/voxlink/internal/session"
	"github.com/voxlink-ai/voxlink/internal/transport"
	"github.com/voxlink-ai/voxlink/pkg/commons"
)

const sdpContentType = "application/sdp"

// Config carries the negotiator's fixed inputs: where to POST offers and
// which STUN servers to fall back to.
type Config struct {
	SignalingURL string
	Model        string
	ICEServers   []string
	HTTPTimeout  time.Duration
}

// Negotiator owns the SDP offer/answer exchange and peer link construction
// against the remote signaling endpoint. The offer/answer/ICE dance is split
// into discrete, individually failable steps so each failure carries a
// precise cause.
type Negotiator struct {
	logger  commons.Logger
	factory *transport.Factory
	client  *resty.Client
	cfg     Config
}

// NewNegotiator builds a Negotiator on top of the shared media factory.
func NewNegotiator(logger commons.Logger, factory *transport.Factory, cfg Config) *Negotiator {
	return &Negotiator{
		logger:  logger,
		factory: factory,
		client:  resty.New().SetTimeout(cfg.HTTPTimeout),
		cfg:     cfg,
	}
}

// CreatePeerLink constructs the negotiation object with the fixed ICE
// configuration: STUN-only fallback, bundle-all, RTCP mux required. UDP-only
// candidate gathering is enforced by the factory's setting engine.
func (n *Negotiator) CreatePeerLink() (session.Link, error) {
	api, err := n.factory.API()
	if err != nil {
		return nil, fmt.Errorf("media engine unavailable: %w", err)
	}

	iceServers := make([]pionwebrtc.ICEServer, 0, len(n.cfg.ICEServers))
	for _, url := range n.cfg.ICEServers {
		iceServers = append(iceServers, pionwebrtc.ICEServer{URLs: []string{url}})
	}

	pc, err := api.NewPeerConnection(pionwebrtc.Configuration{
		ICEServers:    iceServers,
		BundlePolicy:  pionwebrtc.BundlePolicyMaxBundle,
		RTCPMuxPolicy: pionwebrtc.RTCPMuxPolicyRequire,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}
	if pc == nil {
		return nil, fmt.Errorf("peer connection construction returned nothing usable")
	}

	return &link{logger: n.logger, pc: pc}, nil
}

// ExchangeWithRemote POSTs the raw offer body with the credential presented
// as a bearer token and returns the answer SDP. A non-2xx response is a
// signaling failure carrying the HTTP status and body for diagnostics;
// network-layer failures are a distinct kind.
func (n *Negotiator) ExchangeWithRemote(ctx context.Context, offerSDP string, bearer string) (string, error) {
	start := time.Now()

	req := n.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+bearer).
		SetHeader("Content-Type", sdpContentType).
		SetBody(offerSDP)

	url := n.cfg.SignalingURL
	if n.cfg.Model != "" {
		req.SetQueryParam("model", n.cfg.Model)
	}

	resp, err := req.Post(url)
	if err != nil {
		return "", fmt.Errorf("signaling request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", &session.SignalingHTTPError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	n.logger.Benchmark("signaling.exchange", time.Since(start))
	return resp.String(), nil
}
