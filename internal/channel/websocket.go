// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package channel

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxlink-ai/voxlink/internal/events"
	"github.com/voxlink-ai/voxlink/pkg/commons"
	"github.com/voxlink-ai/voxlink/pkg/utils"
)

const (
	wsHandshakeTimeout = 30 * time.Second
	wsReadLimit        = 10 * 1024 * 1024 // 10MB max message size
)

// wsChannel is the websocket rendition of EventChannel, used for event-only
// sessions when no media path is available. Same drop-on-closed semantics as
// the data channel.
type wsChannel struct {
	mu      sync.Mutex
	writeMu sync.Mutex // separate mutex for write operations
	logger  commons.Logger
	conn    *websocket.Conn
	open    bool
	closed  bool
	h       Handlers
}

// DialWebsocket connects to an event endpoint over websocket and starts the
// read loop. The bearer credential is presented in the handshake headers.
func DialWebsocket(ctx context.Context, logger commons.Logger, url string, bearer string, h Handlers) (EventChannel, error) {
	headers := http.Header{}
	if bearer != "" {
		headers.Set("Authorization", "Bearer "+bearer)
	}

	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to websocket: %w", err)
	}
	conn.SetReadLimit(wsReadLimit)

	c := &wsChannel{logger: logger, conn: conn, open: true, h: h}
	utils.Go(ctx, c.readLoop)
	h.open()
	return c, nil
}

// readLoop pumps inbound frames into the event handler until the connection
// closes. A close, clean or not, flips the channel to closed exactly once.
func (c *wsChannel) readLoop() {
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debugf("Websocket closed normally")
			} else {
				c.logger.Warnw("Websocket read failed", "error", err)
			}
			c.markClosed()
			return
		}
		c.h.event(events.Parse(frame))
	}
}

func (c *wsChannel) markClosed() {
	c.mu.Lock()
	wasOpen := c.open
	c.open = false
	c.mu.Unlock()
	if wasOpen {
		c.h.closed()
	}
}

func (c *wsChannel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *wsChannel) Send(json string) bool {
	if !c.Open() {
		return false
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(json)); err != nil {
		c.logger.Errorw("Failed to write websocket frame", "error", err)
		return false
	}
	return true
}

func (c *wsChannel) Close() error {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	c.mu.Unlock()
	if alreadyClosed {
		return nil
	}

	c.writeMu.Lock()
	err := c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	c.writeMu.Unlock()
	if err != nil {
		c.logger.Debugw("Failed to send websocket close message", "error", err)
	}

	c.markClosed()
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close websocket: %w", err)
	}
	return nil
}
