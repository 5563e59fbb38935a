// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package session

import (
	"fmt"
)

// Step names the connect stage a failure belongs to, so onError messages
// carry a precise cause instead of an opaque "connect failed".
type Step string

const (
	StepInitialize        Step = "initialize"
	StepToken             Step = "token"
	StepLinkCreate        Step = "link-create"
	StepLocalDescription  Step = "local-description"
	StepSignaling         Step = "signaling"
	StepRemoteDescription Step = "remote-description"
	StepICE               Step = "ice"
)

// ConnectError wraps a stage failure. All fatal kinds transition the session
// to Error then Idle and emit exactly one onError.
type ConnectError struct {
	Step Step
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SignalingHTTPError is a protocol rejection from the signaling endpoint:
// the request reached the remote but came back non-2xx. Distinct from
// network-layer failures (DNS, timeout, reset), which arrive as plain
// wrapped transport errors.
type SignalingHTTPError struct {
	StatusCode int
	Body       string
}

func (e *SignalingHTTPError) Error() string {
	return fmt.Sprintf("signaling endpoint returned status %d: %s", e.StatusCode, e.Body)
}
