// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package transport

import (
	"context"
	"errors"
	"io"

	"github.com/pion/rtp"
	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voxlink-ai/voxlink/pkg/commons"
)

const (
	rtpBufferSize        = 1500 // max RTP packet size (MTU)
	maxConsecutiveErrors = 50   // max read errors before stopping
)

// RemoteAudioSink consumes depacketized Opus payloads from the remote track.
// The playback layer owns decoding and device output.
type RemoteAudioSink func(payload []byte)

// ReadRemoteAudio reads RTP from the remote track and feeds Opus payloads to
// the sink until the track ends or ctx is cancelled. Intended to run on its
// own goroutine, one per remote track.
func ReadRemoteAudio(ctx context.Context, logger commons.Logger, track *pionwebrtc.TrackRemote, sink RemoteAudioSink) {
	if track.Codec().MimeType != pionwebrtc.MimeTypeOpus {
		logger.Errorw("Unsupported codec, only Opus is supported", "codec", track.Codec().MimeType)
		return
	}

	buf := make([]byte, rtpBufferSize)
	consecutiveErrors := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, _, err := track.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			consecutiveErrors++
			if consecutiveErrors >= maxConsecutiveErrors {
				logger.Errorw("Too many consecutive read errors, stopping audio reader", "lastError", err)
				return
			}
			continue
		}
		consecutiveErrors = 0

		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			logger.Debugw("Failed to unmarshal RTP packet", "error", err)
			continue
		}
		if len(pkt.Payload) == 0 {
			continue
		}
		sink(pkt.Payload)
	}
}
