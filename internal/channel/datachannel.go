// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package channel

import (
	"fmt"
	"sync"

	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voxlink-ai/voxlink/internal/events"
	"github.com/voxlink-ai/voxlink/pkg/commons"
)

// dataChannel wraps a pion ordered+reliable data channel. Inbound frames are
// decoded permissively — a frame that fails envelope parsing is delivered as
// an invalid event, never treated as a channel-fatal error.
type dataChannel struct {
	mu     sync.Mutex
	logger commons.Logger
	dc     *pionwebrtc.DataChannel
	closed bool
}

// NewDataChannel wires handlers onto a freshly created pion data channel and
// returns the EventChannel wrapper. The data channel must have been created
// before SDP offer generation so it is announced in the offer.
func NewDataChannel(logger commons.Logger, dc *pionwebrtc.DataChannel, h Handlers) EventChannel {
	c := &dataChannel{logger: logger, dc: dc}

	dc.OnOpen(func() {
		logger.Infow("Data channel open", "label", dc.Label())
		h.open()
	})
	dc.OnClose(func() {
		logger.Infow("Data channel closed", "label", dc.Label())
		h.closed()
	})
	dc.OnError(func(err error) {
		logger.Errorw("Data channel error", "label", dc.Label(), "error", err)
	})
	dc.OnMessage(func(msg pionwebrtc.DataChannelMessage) {
		h.event(events.Parse(msg.Data))
	})

	return c
}

func (c *dataChannel) Open() bool {
	return c.dc.ReadyState() == pionwebrtc.DataChannelStateOpen
}

func (c *dataChannel) Send(json string) bool {
	if !c.Open() {
		return false
	}
	if err := c.dc.SendText(json); err != nil {
		c.logger.Errorw("Failed to send data channel frame", "error", err)
		return false
	}
	return true
}

func (c *dataChannel) Close() error {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	c.mu.Unlock()
	if alreadyClosed {
		return nil
	}

	if err := c.dc.Close(); err != nil {
		return fmt.Errorf("failed to close data channel: %w", err)
	}
	return nil
}
