// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package session_internal

// Queue sizes for the controller's two serialized contexts.
const (
	// WorkerQueueSize buffers state-machine commands and marshalled
	// transport callbacks. Sized generously; a full queue drops the command
	// with a warning rather than blocking a transport goroutine.
	WorkerQueueSize = 64

	// DeliveryQueueSize buffers observer notifications. Server event bursts
	// are the dominant traffic.
	DeliveryQueueSize = 256
)

// Disconnect reason strings surfaced through onDisconnected.
const (
	DisconnectReasonUser      = "user initiated"
	DisconnectReasonICEClosed = "ice closed"
	DisconnectReasonReleased  = "released"
)
