// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package channel

import (
	"github.com/voxlink-ai/voxlink/internal/events"
)

// EventChannel is the ordered, reliable message pipe carrying the JSON event
// protocol. Lifecycle is bound to the owning session: created once the
// negotiation object exists, closed before it is torn down.
type EventChannel interface {
	// Send writes one UTF-8 JSON frame. It returns false without error when
	// the channel is not open; frames are dropped, never queued — the caller
	// decides whether the drop is worth a user-visible warning.
	Send(json string) bool

	// Open reports whether the channel is currently in the open state.
	Open() bool

	// Close tears the channel down. Idempotent: closing an already-closed
	// channel is a no-op, not an error.
	Close() error
}

// Handlers receives channel lifecycle and traffic notifications. All
// callbacks fire on the transport's own goroutines; the owning controller is
// responsible for marshalling onto its serialized context.
type Handlers struct {
	OnOpen  func()
	OnClose func()
	OnEvent func(events.ParsedEvent)
}

func (h Handlers) open() {
	if h.OnOpen != nil {
		h.OnOpen()
	}
}

func (h Handlers) closed() {
	if h.OnClose != nil {
		h.OnClose()
	}
}

func (h Handlers) event(ev events.ParsedEvent) {
	if h.OnEvent != nil {
		h.OnEvent(ev)
	}
}
