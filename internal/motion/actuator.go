// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package motion

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/voxlink-ai/voxlink/pkg/commons"
)

// Gesture names an expressive movement the embodiment can perform.
type Gesture string

const (
	GestureNod       Gesture = "nod"
	GestureListen    Gesture = "listen"
	GestureAttention Gesture = "attention"
)

// Actuator is the optional embodiment boundary. Session logic never depends
// on whether a physical actuator exists; callers hold whichever
// implementation Probe selected and treat failures as advisory.
type Actuator interface {
	// Wake brings the embodiment out of rest, typically on connect.
	Wake(ctx context.Context) error
	// Perform plays a named gesture, e.g. on speech start/stop.
	Perform(ctx context.Context, g Gesture) error
	// Rest returns the embodiment to its idle pose.
	Rest(ctx context.Context) error
	Close() error
}

// Probe selects an actuator implementation for the configured endpoint. An
// empty endpoint means no embodiment is attached and every command becomes a
// no-op.
func Probe(logger commons.Logger, endpoint string, timeout time.Duration) Actuator {
	if endpoint == "" {
		logger.Infow("No actuator endpoint configured, motion disabled")
		return &noopActuator{}
	}
	logger.Infow("Using HTTP actuator", "endpoint", endpoint)
	return &httpActuator{
		logger:   logger,
		client:   resty.New().SetTimeout(timeout),
		endpoint: endpoint,
	}
}

// ============================================================================
// No-op actuator
// ============================================================================

type noopActuator struct{}

func (a *noopActuator) Wake(context.Context) error             { return nil }
func (a *noopActuator) Perform(context.Context, Gesture) error { return nil }
func (a *noopActuator) Rest(context.Context) error             { return nil }
func (a *noopActuator) Close() error                           { return nil }

// ============================================================================
// HTTP actuator
// ============================================================================

type motionCommand struct {
	Action  string `json:"action"`
	Gesture string `json:"gesture,omitempty"`
}

type httpActuator struct {
	logger   commons.Logger
	client   *resty.Client
	endpoint string
}

func (a *httpActuator) Wake(ctx context.Context) error {
	return a.send(ctx, motionCommand{Action: "wake"})
}

func (a *httpActuator) Perform(ctx context.Context, g Gesture) error {
	return a.send(ctx, motionCommand{Action: "gesture", Gesture: string(g)})
}

func (a *httpActuator) Rest(ctx context.Context) error {
	return a.send(ctx, motionCommand{Action: "rest"})
}

func (a *httpActuator) Close() error { return nil }

func (a *httpActuator) send(ctx context.Context, cmd motionCommand) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(cmd).
		Post(a.endpoint)
	if err != nil {
		return fmt.Errorf("motion command failed: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("motion endpoint returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
