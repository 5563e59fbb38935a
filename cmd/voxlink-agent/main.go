// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.

// voxlink-agent connects a local microphone session to the realtime speech
// backend and keeps it up until interrupted. It demonstrates the full wiring:
// config, token minting, SDP negotiation, event handling, lead capture, and
// the optional motion actuator.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voxlink-ai/voxlink/internal/config"
	"github.com/voxlink-ai/voxlink/internal/events"
	"github.com/voxlink-ai/voxlink/internal/lead"
	"github.com/voxlink-ai/voxlink/internal/motion"
	"github.com/voxlink-ai/voxlink/internal/negotiate"
	"github.com/voxlink-ai/voxlink/internal/session"
	"github.com/voxlink-ai/voxlink/internal/token"
	"github.com/voxlink-ai/voxlink/internal/transport"
	"github.com/voxlink-ai/voxlink/pkg/commons"
	"github.com/voxlink-ai/voxlink/pkg/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional; env vars and defaults apply)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Errorw("Agent exited with error", "error", err)
		os.Exit(1)
	}
}

func buildLogger(cfg *config.Config) (commons.Logger, error) {
	if cfg.LogPath != "" {
		return commons.NewRotatingLogger(cfg.LogPath, cfg.LogLevel)
	}
	return commons.NewApplicationLogger(cfg.LogLevel)
}

func run(cfg *config.Config, logger commons.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory, err := transport.NewFactory(logger)
	if err != nil {
		return err
	}

	negotiator := negotiate.NewNegotiator(logger, factory, negotiate.Config{
		SignalingURL: cfg.SignalingURL,
		Model:        cfg.Model,
		ICEServers:   cfg.ICEServers,
		HTTPTimeout:  cfg.HTTPTimeout,
	})
	tokens := token.NewHTTPProvider(logger, cfg.TokenURL, cfg.APIKey, cfg.Model, cfg.HTTPTimeout)
	actuator := motion.Probe(logger, cfg.ActuatorURL, cfg.HTTPTimeout)
	defer func() { _ = actuator.Close() }()

	store, err := lead.NewStore(logger, cfg.LeadDBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	observer := &agentObserver{
		ctx:      ctx,
		logger:   logger,
		actuator: actuator,
		leads:    store,
		runID:    uuid.New().String(),
	}
	controller := session.NewController(logger, factory, negotiator, tokens, observer)
	observer.controller = controller

	logger.Infow("Starting voxlink agent",
		"signalingUrl", cfg.SignalingURL,
		"model", cfg.Model,
		"runId", observer.runID)
	controller.Connect()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Infow("Shutting down")
	controller.Disconnect()
	controller.Release()
	return nil
}

// agentObserver bridges session callbacks to the actuator and the lead store.
// All callbacks arrive on the controller's single delivery goroutine.
type agentObserver struct {
	session.NopObserver

	ctx        context.Context
	logger     commons.Logger
	controller *session.Controller
	actuator   motion.Actuator
	leads      lead.Store
	runID      string
}

func (o *agentObserver) OnConnected() {
	o.logger.Infow("Session connected")
	if err := o.actuator.Wake(o.ctx); err != nil {
		o.logger.Warnw("Actuator wake failed", "error", err)
	}
}

func (o *agentObserver) OnDisconnected(reason string) {
	o.logger.Infow("Session disconnected", "reason", reason)
	if err := o.actuator.Rest(o.ctx); err != nil {
		o.logger.Warnw("Actuator rest failed", "error", err)
	}
}

func (o *agentObserver) OnError(message string) {
	o.logger.Errorw("Session error", "message", message)
}

func (o *agentObserver) OnSpeechStarted() {
	if err := o.actuator.Perform(o.ctx, motion.GestureListen); err != nil {
		o.logger.Debugw("Gesture failed", "error", err)
	}
}

func (o *agentObserver) OnSpeechStopped() {
	if err := o.actuator.Perform(o.ctx, motion.GestureNod); err != nil {
		o.logger.Debugw("Gesture failed", "error", err)
	}
}

func (o *agentObserver) OnServerEvent(ev events.ParsedEvent) {
	if ev.Kind != events.KindFunctionCall {
		return
	}
	if ev.Name != lead.FunctionName {
		o.logger.Warnw("Unhandled function call", "name", ev.Name, "callId", ev.CallID)
		o.reply(ev.CallID, map[string]string{"status": "error", "message": "unknown function"})
		return
	}

	captured, err := lead.FromArguments(o.runID, ev.Arguments)
	if err != nil {
		o.logger.Warnw("Rejected lead capture", "callId", ev.CallID, "error", err)
		o.reply(ev.CallID, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	if err := o.leads.Create(o.ctx, captured); err != nil {
		o.logger.Errorw("Failed to persist lead", "callId", ev.CallID, "error", err)
		o.reply(ev.CallID, map[string]string{"status": "error", "message": "storage failure"})
		return
	}
	o.reply(ev.CallID, map[string]string{"status": "saved", "lead_id": captured.ID})
}

func (o *agentObserver) OnRemoteAudioTrack(track *pionwebrtc.TrackRemote) {
	o.logger.Infow("Remote audio track started", "codec", track.Codec().MimeType)
	utils.Go(o.ctx, func() {
		// Playback device integration hooks in here; payloads are discarded
		// until one is attached.
		transport.ReadRemoteAudio(o.ctx, o.logger, track, func([]byte) {})
	})
}

func (o *agentObserver) reply(callID string, result map[string]string) {
	payload, err := json.Marshal(result)
	if err != nil {
		o.logger.Errorw("Failed to encode function result", "callId", callID, "error", err)
		return
	}
	o.controller.SendFunctionResult(callID, string(payload))
}
