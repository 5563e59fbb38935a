// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package transport

import (
	"fmt"
	"sync"

	"github.com/pion/interceptor"
	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voxlink-ai/voxlink/pkg/commons"
)

// Opus audio constants (WebRTC standard: 48kHz)
const (
	OpusSampleRate    = 48000
	OpusFrameDuration = 20 // milliseconds
	OpusChannels      = 2  // Opus RTP always signals 2 encoding channels (opus/48000/2) per RFC 7587, even for mono voice
	OpusPayloadType   = 111
	OpusSDPFmtpLine   = "minptime=10;useinbandfec=1;stereo=0;sprop-stereo=0"
)

// AudioProcessing is the fixed capture-chain contract required by the remote
// protocol. All stages are enabled by contract; the capture layer must honor
// them.
type AudioProcessing struct {
	EchoCancellation bool
	AutoGainControl  bool
	NoiseSuppression bool
	HighPassFilter   bool
}

// DefaultAudioProcessing returns the contract configuration.
func DefaultAudioProcessing() AudioProcessing {
	return AudioProcessing{
		EchoCancellation: true,
		AutoGainControl:  true,
		NoiseSuppression: true,
		HighPassFilter:   true,
	}
}

// Factory owns the process-wide media engine. It is built once, shared by
// every session the controller creates, and disposed exactly once in
// Release(). A failure here is an initialization error, not a connection
// error — callers retry by re-invoking NewFactory, not by looping connect.
type Factory struct {
	mu       sync.Mutex
	logger   commons.Logger
	api      *pionwebrtc.API
	proc     AudioProcessing
	disposed bool
}

// NewFactory builds the webrtc API: Opus-only media engine, default
// interceptors (NACK for audio recovery), UDP-only candidates for latency,
// pion logging bridged onto the application logger.
func NewFactory(logger commons.Logger) (*Factory, error) {
	mediaEngine := &pionwebrtc.MediaEngine{}
	if err := mediaEngine.RegisterCodec(pionwebrtc.RTPCodecParameters{
		RTPCodecCapability: pionwebrtc.RTPCodecCapability{
			MimeType:    pionwebrtc.MimeTypeOpus,
			ClockRate:   OpusSampleRate,
			Channels:    OpusChannels,
			SDPFmtpLine: OpusSDPFmtpLine,
		},
		PayloadType: OpusPayloadType,
	}, pionwebrtc.RTPCodecTypeAudio); err != nil {
		return nil, fmt.Errorf("failed to register Opus codec: %w", err)
	}

	registry := &interceptor.Registry{}
	if err := pionwebrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, fmt.Errorf("failed to register interceptors: %w", err)
	}

	settingEngine := pionwebrtc.SettingEngine{
		LoggerFactory: newPionLoggerFactory(logger),
	}
	// TCP candidates are disabled for latency; the remote protocol expects
	// UDP paths only.
	settingEngine.SetNetworkTypes([]pionwebrtc.NetworkType{
		pionwebrtc.NetworkTypeUDP4,
		pionwebrtc.NetworkTypeUDP6,
	})

	api := pionwebrtc.NewAPI(
		pionwebrtc.WithMediaEngine(mediaEngine),
		pionwebrtc.WithInterceptorRegistry(registry),
		pionwebrtc.WithSettingEngine(settingEngine),
	)

	return &Factory{logger: logger, api: api, proc: DefaultAudioProcessing()}, nil
}

// API exposes the configured webrtc API for peer link construction.
func (f *Factory) API() (*pionwebrtc.API, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		return nil, fmt.Errorf("media engine already disposed")
	}
	return f.api, nil
}

// AudioProcessing returns the fixed capture configuration.
func (f *Factory) AudioProcessing() AudioProcessing {
	return f.proc
}

// NewMicrophoneTrack creates the local capture track for one session. The
// track is exclusively owned by that session and disposed on disconnect.
func (f *Factory) NewMicrophoneTrack() (*MicrophoneTrack, error) {
	f.mu.Lock()
	disposed := f.disposed
	f.mu.Unlock()
	if disposed {
		return nil, fmt.Errorf("media engine already disposed")
	}

	track, err := pionwebrtc.NewTrackLocalStaticSample(
		pionwebrtc.RTPCodecCapability{
			MimeType:  pionwebrtc.MimeTypeOpus,
			ClockRate: OpusSampleRate,
			Channels:  OpusChannels,
		},
		"audio",
		"voxlink-mic",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create local audio track: %w", err)
	}
	return &MicrophoneTrack{logger: f.logger, track: track}, nil
}

// Dispose releases the media engine. Safe to call once; later calls are
// no-ops so Release() stays idempotent end to end.
func (f *Factory) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		return
	}
	f.disposed = true
	f.api = nil
	f.logger.Infow("Media engine disposed")
}
