// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package transport

import (
	"sync/atomic"
	"time"

	pionwebrtc "github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/voxlink-ai/voxlink/pkg/commons"
)

// MicrophoneTrack is the local capture stream for one session. Muting drops
// outbound frames at the write path without touching the connection, so a
// mute/unmute cycle never renegotiates.
type MicrophoneTrack struct {
	logger commons.Logger
	track  *pionwebrtc.TrackLocalStaticSample
	muted  atomic.Bool
}

// Track exposes the underlying pion track for AddTrack during link setup.
func (m *MicrophoneTrack) Track() *pionwebrtc.TrackLocalStaticSample {
	return m.track
}

// SetMuted toggles local capture without tearing down the connection.
func (m *MicrophoneTrack) SetMuted(muted bool) {
	if m.muted.Swap(muted) != muted {
		m.logger.Infow("Microphone mute changed", "muted", muted)
	}
}

// Muted reports the current mute state.
func (m *MicrophoneTrack) Muted() bool {
	return m.muted.Load()
}

// WriteFrame pushes one encoded audio frame onto the track. Frames written
// while muted are silently dropped.
func (m *MicrophoneTrack) WriteFrame(data []byte) error {
	if m.muted.Load() {
		return nil
	}
	return m.track.WriteSample(media.Sample{
		Data:     data,
		Duration: OpusFrameDuration * time.Millisecond,
	})
}
