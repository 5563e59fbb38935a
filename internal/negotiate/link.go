// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package negotiate

import (
	"context"
	"fmt"
	"sync"

	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voxlink-ai/voxlink/internal/channel"
	"github.com/voxlink-ai/voxlink/internal/transport"
	"github.com/voxlink-ai/voxlink/pkg/commons"
)

const eventChannelLabel = "oai-events"

// link wraps one peer connection for the lifetime of a single session.
type link struct {
	mu     sync.Mutex
	logger commons.Logger
	pc     *pionwebrtc.PeerConnection
	closed bool
}

func (l *link) OpenEventChannel(h channel.Handlers) (channel.EventChannel, error) {
	// Ordered + reliable are pion defaults; the channel must exist before
	// offer creation so it is announced in the SDP.
	dc, err := l.pc.CreateDataChannel(eventChannelLabel, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create data channel: %w", err)
	}
	return channel.NewDataChannel(l.logger, dc, h), nil
}

func (l *link) AttachMicrophone(mic *transport.MicrophoneTrack) error {
	if _, err := l.pc.AddTrack(mic.Track()); err != nil {
		return fmt.Errorf("failed to add microphone track: %w", err)
	}
	return nil
}

// CreateOffer produces a local description requesting audio receive
// capability (the microphone track makes the audio section sendrecv; no
// video section is offered) and sets it as the local description. The
// returned SDP includes gathered candidates: the HTTP exchange is a single
// round trip, there is no trickle path for late candidates.
func (l *link) CreateOffer(ctx context.Context) (string, error) {
	offer, err := l.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create offer: %w", err)
	}

	gatherComplete := pionwebrtc.GatheringCompletePromise(l.pc)
	if err := l.pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("failed to set local description: %w", err)
	}

	select {
	case <-gatherComplete:
	case <-ctx.Done():
		return "", fmt.Errorf("candidate gathering interrupted: %w", ctx.Err())
	}

	local := l.pc.LocalDescription()
	if local == nil {
		return "", fmt.Errorf("local description missing after gathering")
	}
	return local.SDP, nil
}

func (l *link) SetRemoteAnswer(answer string) error {
	if err := l.pc.SetRemoteDescription(pionwebrtc.SessionDescription{
		Type: pionwebrtc.SDPTypeAnswer,
		SDP:  answer,
	}); err != nil {
		return fmt.Errorf("failed to set remote description: %w", err)
	}
	return nil
}

func (l *link) OnICEStateChange(fn func(pionwebrtc.ICEConnectionState)) {
	l.pc.OnICEConnectionStateChange(fn)
}

func (l *link) OnRemoteTrack(fn func(*pionwebrtc.TrackRemote)) {
	l.pc.OnTrack(func(track *pionwebrtc.TrackRemote, _ *pionwebrtc.RTPReceiver) {
		if track.Kind() != pionwebrtc.RTPCodecTypeAudio {
			return
		}
		fn(track)
	})
}

// Close tears the peer connection down. Idempotent.
func (l *link) Close() error {
	l.mu.Lock()
	alreadyClosed := l.closed
	l.closed = true
	l.mu.Unlock()
	if alreadyClosed {
		return nil
	}

	if err := l.pc.Close(); err != nil {
		return fmt.Errorf("failed to close peer connection: %w", err)
	}
	return nil
}
