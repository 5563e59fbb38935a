// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package session

import (
	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voxlink-ai/voxlink/internal/events"
)

// ConnectionObserver receives session lifecycle and event notifications. At
// most one observer per controller. Every callback is invoked from a single
// dedicated delivery goroutine, so implementations never need their own
// locking.
type ConnectionObserver interface {
	OnConnected()
	OnDisconnected(reason string)
	OnError(message string)
	OnServerEvent(event events.ParsedEvent)
	OnSpeechStarted()
	OnSpeechStopped()
	OnRemoteAudioTrack(track *pionwebrtc.TrackRemote)
}

// NopObserver is a ConnectionObserver that ignores everything. Embed it to
// implement only the callbacks a caller cares about.
type NopObserver struct{}

func (NopObserver) OnConnected()                               {}
func (NopObserver) OnDisconnected(string)                      {}
func (NopObserver) OnError(string)                             {}
func (NopObserver) OnServerEvent(events.ParsedEvent)           {}
func (NopObserver) OnSpeechStarted()                           {}
func (NopObserver) OnSpeechStopped()                           {}
func (NopObserver) OnRemoteAudioTrack(*pionwebrtc.TrackRemote) {}
