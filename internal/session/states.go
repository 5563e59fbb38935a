// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package session

// State is the controller's lifecycle position. Transitions happen only on
// the controller's worker goroutine.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateTokenPending
	StateNegotiating
	StateAwaitingAnswer
	StateConnected
	StateDisconnecting
	// StateError is reachable from every non-terminal state; the controller
	// resets to Idle immediately after emitting onError so a fresh Connect
	// is accepted.
	StateError
	// StateClosed is terminal, entered by Release(). Irreversible.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateTokenPending:
		return "token-pending"
	case StateNegotiating:
		return "negotiating"
	case StateAwaitingAnswer:
		return "awaiting-answer"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// connecting reports whether the state is one of the in-flight connect
// stages. Used to reject duplicate Connect calls.
func (s State) connecting() bool {
	switch s {
	case StateInitializing, StateTokenPending, StateNegotiating, StateAwaitingAnswer:
		return true
	default:
		return false
	}
}
