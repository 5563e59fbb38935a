// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package session

import (
	"context"

	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voxlink-ai/voxlink/internal/channel"
	"github.com/voxlink-ai/voxlink/internal/transport"
)

// The controller consumes its collaborators through these interfaces so the
// state machine is testable with fakes; the production implementations live
// in internal/negotiate and internal/transport.

// MediaFactory produces the local capture track and owns the process-wide
// media engine.
type MediaFactory interface {
	NewMicrophoneTrack() (*transport.MicrophoneTrack, error)
	Dispose()
}

// Link is one negotiation object: a peer connection plus the session-scoped
// resources hanging off it. Created per connect attempt, closed on teardown.
type Link interface {
	// OpenEventChannel creates the ordered reliable event channel. Must be
	// called before CreateOffer so the channel is announced in the offer.
	OpenEventChannel(h channel.Handlers) (channel.EventChannel, error)

	// AttachMicrophone adds the local capture track to the link.
	AttachMicrophone(mic *transport.MicrophoneTrack) error

	// CreateOffer produces the local session description (audio receive
	// requested, no video) and sets it as the local description before
	// returning — setting local description is a precondition for sending
	// the offer onward.
	CreateOffer(ctx context.Context) (string, error)

	// SetRemoteAnswer applies the answer SDP. Completion marks the session
	// "negotiated"; connectedness still waits on ICE.
	SetRemoteAnswer(answer string) error

	// OnICEStateChange registers the ICE state observer. Fires on the
	// transport's goroutines.
	OnICEStateChange(fn func(pionwebrtc.ICEConnectionState))

	// OnRemoteTrack registers the remote media observer.
	OnRemoteTrack(fn func(*pionwebrtc.TrackRemote))

	Close() error
}

// Negotiator owns link construction and the HTTP signaling exchange.
type Negotiator interface {
	CreatePeerLink() (Link, error)

	// ExchangeWithRemote POSTs the raw offer with the bearer credential and
	// returns the answer SDP. Non-2xx responses surface as
	// *SignalingHTTPError; transport-layer failures are a distinct kind.
	ExchangeWithRemote(ctx context.Context, offerSDP string, bearer string) (string, error)
}
