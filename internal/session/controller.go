// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voxlink-ai/voxlink/internal/channel"
	"github.com/voxlink-ai/voxlink/internal/events"
	session_internal "github.com/voxlink-ai/voxlink/internal/session/internal"
	"github.com/voxlink-ai/voxlink/internal/token"
	"github.com/voxlink-ai/voxlink/internal/transport"
	"github.com/voxlink-ai/voxlink/pkg/commons"
	"github.com/voxlink-ai/voxlink/pkg/utils"
)

// activeSession is the single logical connection. Exactly one may exist per
// controller; a second Connect while one is active or connecting is a no-op.
// All fields are owned by the worker goroutine.
type activeSession struct {
	id        string
	startedAt time.Time
	cred      *token.Credential

	link Link
	mic  *transport.MicrophoneTrack
	ch   channel.EventChannel

	negotiated   bool
	iceConnected bool
	channelOpen  bool
}

// Controller coordinates TokenProvider -> SessionNegotiator -> EventChannel
// and exposes the public API. One worker goroutine executes every state
// transition and every network-step result; transport callbacks are
// marshalled onto it so ICE events, channel traffic, and user calls can
// never race on session state. Observer callbacks are delivered from a
// second dedicated goroutine so observers never need their own locking.
type Controller struct {
	logger     commons.Logger
	factory    MediaFactory
	negotiator Negotiator
	tokens     token.Provider
	observer   ConnectionObserver

	ctx    context.Context
	cancel context.CancelFunc

	ops        chan func()
	deliveries chan func()

	connected atomic.Bool

	// Worker-owned; never touched off the worker goroutine.
	state State
	sess  *activeSession
}

// NewController builds a controller and starts its worker and delivery
// goroutines. The observer may be nil; at most one is supported.
func NewController(
	logger commons.Logger,
	factory MediaFactory,
	negotiator Negotiator,
	tokens token.Provider,
	observer ConnectionObserver,
) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		logger:     logger,
		factory:    factory,
		negotiator: negotiator,
		tokens:     tokens,
		observer:   observer,
		ctx:        ctx,
		cancel:     cancel,
		ops:        make(chan func(), session_internal.WorkerQueueSize),
		deliveries: make(chan func(), session_internal.DeliveryQueueSize),
		state:      StateIdle,
	}

	utils.Go(nil, c.runWorker)
	utils.Go(nil, c.runDelivery)
	return c
}

// ============================================================================
// Public API — safe from any goroutine
// ============================================================================

// Connect starts the asynchronous connect sequence. Completion is signalled
// via observer callbacks, never a blocking return value. Calling Connect
// while a session is connecting or connected is a logged no-op.
func (c *Controller) Connect() {
	c.post(c.connect)
}

// Disconnect tears down channel, track, and link in that order (reverse of
// creation) and notifies onDisconnected("user initiated"). Always safe to
// call, including mid-negotiation; idempotent.
func (c *Controller) Disconnect() {
	c.post(func() {
		c.teardown(session_internal.DisconnectReasonUser, true)
	})
}

// SendEvent delivers one JSON event if the channel is open; otherwise the
// event is dropped and logged. Never blocks, never queues.
func (c *Controller) SendEvent(json string) {
	c.post(func() { c.sendEvent(json) })
}

// SendFunctionResult sends the function-output item followed by the
// response-trigger event as two ordered, separate channel sends — the remote
// protocol treats them as sequential instructions.
func (c *Controller) SendFunctionResult(callID, result string) {
	c.post(func() { c.sendFunctionResult(callID, result) })
}

// SetMicrophoneMuted toggles local capture without tearing down the
// connection.
func (c *Controller) SetMicrophoneMuted(muted bool) {
	c.post(func() {
		if c.sess == nil || c.sess.mic == nil {
			c.logger.Warnw("Mute toggle ignored, no active session")
			return
		}
		c.sess.mic.SetMuted(muted)
	})
}

// IsConnected reflects only the fully-connected state, not intermediate
// negotiation states.
func (c *Controller) IsConnected() bool {
	return c.connected.Load()
}

// Release disconnects, disposes the media engine, and shuts the controller
// down. Irreversible.
func (c *Controller) Release() {
	c.post(func() {
		if c.state == StateClosed {
			return
		}
		c.teardown(session_internal.DisconnectReasonReleased, true)
		c.factory.Dispose()
		c.state = StateClosed
		c.logger.Infow("Controller released")
		c.cancel()
	})
}

// ============================================================================
// Serialized contexts
// ============================================================================

// runWorker executes every command and marshalled callback in arrival order.
func (c *Controller) runWorker() {
	for {
		select {
		case fn := <-c.ops:
			fn()
		case <-c.ctx.Done():
			return
		}
	}
}

// runDelivery invokes observer callbacks one at a time. On shutdown the
// queue is drained so a final onDisconnected is not lost.
func (c *Controller) runDelivery() {
	for {
		select {
		case fn := <-c.deliveries:
			fn()
		case <-c.ctx.Done():
			for {
				select {
				case fn := <-c.deliveries:
					fn()
				default:
					return
				}
			}
		}
	}
}

// post marshals fn onto the worker goroutine. Non-blocking: transport
// callbacks must never stall on a busy controller.
func (c *Controller) post(fn func()) {
	select {
	case <-c.ctx.Done():
		c.logger.Debugw("Controller closed, dropping command")
		return
	default:
	}
	select {
	case c.ops <- fn:
	default:
		c.logger.Warnw("Worker queue full, dropping command")
	}
}

// notify queues an observer callback onto the delivery goroutine.
func (c *Controller) notify(fn func()) {
	if c.observer == nil {
		return
	}
	select {
	case c.deliveries <- fn:
	default:
		c.logger.Warnw("Delivery queue full, dropping notification")
	}
}

// ============================================================================
// Connect sequence — worker goroutine only
// ============================================================================

func (c *Controller) connect() {
	if c.state == StateClosed {
		c.logger.Warnw("Connect ignored, controller released")
		return
	}
	if c.state.connecting() || c.state == StateConnected {
		// At most one negotiation in flight per controller.
		c.logger.Warnw("Connect ignored, session already active", "state", c.state.String())
		return
	}

	c.setState(StateInitializing)
	sess := &activeSession{id: uuid.New().String(), startedAt: time.Now()}
	c.sess = sess
	c.setState(StateTokenPending)
	c.logger.Infow("Connecting", "session", sess.id)

	attemptID := sess.id
	utils.Go(c.ctx, func() {
		cred, err := c.tokens.Token(c.ctx)
		c.post(func() { c.onToken(attemptID, cred, err) })
	})
}

func (c *Controller) onToken(attemptID string, cred *token.Credential, err error) {
	if c.stale(attemptID) {
		return
	}
	if err != nil {
		c.fail(StepToken, err)
		return
	}

	sess := c.sess
	sess.cred = cred
	c.setState(StateNegotiating)

	// Fixed order: link, local media track, event channel, offer. A failure
	// at any step carries its specific cause and resets the connecting flag
	// so a fresh Connect can be retried.
	link, err := c.negotiator.CreatePeerLink()
	if err != nil {
		c.fail(StepLinkCreate, err)
		return
	}
	sess.link = link

	mic, err := c.factory.NewMicrophoneTrack()
	if err != nil {
		link.Close()
		c.fail(StepInitialize, err)
		return
	}
	sess.mic = mic
	if err := link.AttachMicrophone(mic); err != nil {
		link.Close()
		c.fail(StepInitialize, err)
		return
	}

	ch, err := link.OpenEventChannel(channel.Handlers{
		OnOpen: func() {
			c.post(func() { c.onChannelOpen(attemptID) })
		},
		OnClose: func() {
			c.post(func() { c.onChannelClose(attemptID) })
		},
		OnEvent: func(ev events.ParsedEvent) {
			c.post(func() { c.onServerEvent(attemptID, ev) })
		},
	})
	if err != nil {
		link.Close()
		c.fail(StepLinkCreate, err)
		return
	}
	sess.ch = ch

	link.OnICEStateChange(func(state pionwebrtc.ICEConnectionState) {
		c.post(func() { c.onICEState(attemptID, state) })
	})
	link.OnRemoteTrack(func(track *pionwebrtc.TrackRemote) {
		c.post(func() {
			if c.stale(attemptID) {
				return
			}
			c.notify(func() { c.observer.OnRemoteAudioTrack(track) })
		})
	})

	// Offer creation waits on candidate gathering; run it off the worker so
	// the state machine suspends rather than blocks.
	utils.Go(c.ctx, func() {
		sdp, err := link.CreateOffer(c.ctx)
		c.post(func() { c.onOffer(attemptID, sdp, err) })
	})
}

func (c *Controller) onOffer(attemptID string, sdp string, err error) {
	if c.stale(attemptID) {
		return
	}
	if err != nil {
		c.fail(StepLocalDescription, err)
		return
	}

	c.setState(StateAwaitingAnswer)
	bearer := c.sess.cred.Value
	utils.Go(c.ctx, func() {
		answer, err := c.negotiator.ExchangeWithRemote(c.ctx, sdp, bearer)
		c.post(func() { c.onAnswer(attemptID, answer, err) })
	})
}

func (c *Controller) onAnswer(attemptID string, answer string, err error) {
	if c.stale(attemptID) {
		return
	}
	if err != nil {
		c.fail(StepSignaling, err)
		return
	}
	if err := c.sess.link.SetRemoteAnswer(answer); err != nil {
		c.fail(StepRemoteDescription, err)
		return
	}

	c.sess.negotiated = true
	c.maybeConnected()
}

func (c *Controller) onICEState(attemptID string, state pionwebrtc.ICEConnectionState) {
	if c.stale(attemptID) {
		return
	}
	c.logger.Infow("ICE state changed", "state", state.String(), "session", attemptID)

	switch state {
	case pionwebrtc.ICEConnectionStateConnected, pionwebrtc.ICEConnectionStateCompleted:
		c.sess.iceConnected = true
		c.maybeConnected()

	case pionwebrtc.ICEConnectionStateFailed:
		// Fatal for the session; the caller must reconnect from scratch, no
		// automatic renegotiation.
		c.connected.Store(false)
		c.emitError("ICE connection failed")
		c.closeSessionResources()
		c.setState(StateError)
		c.setState(StateIdle)

	case pionwebrtc.ICEConnectionStateClosed:
		if c.state == StateConnected {
			c.teardown(session_internal.DisconnectReasonICEClosed, true)
		}
	}
}

// maybeConnected declares the session connected once both the remote
// description is applied and ICE reports connected. The event channel open
// state is tracked independently and does not gate this notification.
func (c *Controller) maybeConnected() {
	if c.state == StateConnected || c.sess == nil {
		return
	}
	if !c.sess.negotiated || !c.sess.iceConnected {
		return
	}

	c.setState(StateConnected)
	c.connected.Store(true)
	c.logger.Infow("Session connected", "session", c.sess.id,
		"elapsed", time.Since(c.sess.startedAt))
	c.notify(func() { c.observer.OnConnected() })
}

func (c *Controller) onChannelOpen(attemptID string) {
	if c.stale(attemptID) {
		return
	}
	c.sess.channelOpen = true
	c.logger.Infow("Event channel open", "session", attemptID)
}

func (c *Controller) onChannelClose(attemptID string) {
	if c.stale(attemptID) {
		return
	}
	c.sess.channelOpen = false
	c.logger.Infow("Event channel closed", "session", attemptID)
}

func (c *Controller) onServerEvent(attemptID string, ev events.ParsedEvent) {
	if c.stale(attemptID) {
		return
	}

	c.notify(func() { c.observer.OnServerEvent(ev) })
	switch ev.Kind {
	case events.KindSpeechStarted:
		c.notify(func() { c.observer.OnSpeechStarted() })
	case events.KindSpeechStopped:
		c.notify(func() { c.observer.OnSpeechStopped() })
	}
}

// ============================================================================
// Sending — worker goroutine only
// ============================================================================

func (c *Controller) sendEvent(json string) {
	if c.sess == nil || c.sess.ch == nil || !c.sess.ch.Open() {
		// Caller-misuse guard, not a protocol failure: dropped, logged,
		// never queued.
		c.logger.Warnw("Event dropped, channel not open")
		return
	}
	if !c.sess.ch.Send(json) {
		c.logger.Warnw("Event dropped, channel rejected send")
	}
}

func (c *Controller) sendFunctionResult(callID, result string) {
	if c.sess == nil || c.sess.ch == nil || !c.sess.ch.Open() {
		// Open-state is checked once up front so the pair is either fully
		// sent or fully dropped, never half-sent.
		c.logger.Warnw("Function result dropped, channel not open", "callId", callID)
		return
	}

	output, err := events.FunctionCallOutput(callID, result)
	if err != nil {
		c.logger.Errorw("Failed to build function call output", "callId", callID, "error", err)
		return
	}
	c.sess.ch.Send(output)
	c.sess.ch.Send(events.ResponseCreate())
}

// ============================================================================
// Failure and teardown — worker goroutine only
// ============================================================================

// stale reports whether a callback belongs to a session that is no longer
// current. Suppression is keyed by session identity, not just state, so
// in-flight results from an abandoned attempt are discarded even if a new
// attempt has reached the same state.
func (c *Controller) stale(attemptID string) bool {
	if c.sess == nil || c.sess.id != attemptID {
		c.logger.Debugw("Discarding stale callback", "attempt", attemptID)
		return true
	}
	return false
}

// fail handles a fatal connect-stage error: exactly one onError, resources
// released, state through Error back to Idle so a fresh Connect is accepted.
func (c *Controller) fail(step Step, err error) {
	connErr := &ConnectError{Step: step, Err: err}
	c.logger.Errorw("Connect failed", "step", string(step), "error", err)

	c.connected.Store(false)
	c.closeSessionResources()
	c.setState(StateError)
	c.emitError(connErr.Error())
	c.setState(StateIdle)
}

func (c *Controller) emitError(message string) {
	c.notify(func() { c.observer.OnError(message) })
}

// closeSessionResources releases the session's channel, track, and link in
// that order (reverse of creation) and clears the session slot.
func (c *Controller) closeSessionResources() {
	sess := c.sess
	if sess == nil {
		return
	}
	c.sess = nil

	if sess.ch != nil {
		if err := sess.ch.Close(); err != nil {
			c.logger.Warnw("Failed to close event channel", "error", err)
		}
	}
	if sess.mic != nil {
		sess.mic.SetMuted(true)
	}
	if sess.link != nil {
		if err := sess.link.Close(); err != nil {
			c.logger.Warnw("Failed to close peer link", "error", err)
		}
	}
}

// teardown ends the current session, if any. notifyDisconnect controls the
// single onDisconnected notification; calling teardown with no session is a
// no-op, which makes Disconnect idempotent.
func (c *Controller) teardown(reason string, notifyDisconnect bool) {
	if c.sess == nil {
		c.logger.Debugw("Disconnect ignored, no active session")
		return
	}

	c.setState(StateDisconnecting)
	c.connected.Store(false)
	c.closeSessionResources()
	c.setState(StateIdle)

	if notifyDisconnect {
		c.notify(func() { c.observer.OnDisconnected(reason) })
	}
}

func (c *Controller) setState(next State) {
	if c.state == next {
		return
	}
	c.logger.Debugw("State transition", "from", c.state.String(), "to", next.String())
	c.state = next
}
