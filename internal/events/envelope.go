// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package events

import (
	"encoding/json"
)

// Kind classifies a server event after envelope parsing.
type Kind int

const (
	// KindGeneric is a well-formed envelope whose type has no dedicated
	// handling. Forwarded as-is so new server event kinds never break the
	// channel.
	KindGeneric Kind = iota
	KindSpeechStarted
	KindSpeechStopped
	KindFunctionCall
	// KindInvalid is a frame that failed envelope parsing. Still a valid
	// event value — a bad frame is the sender's problem, not a reason to
	// abort the channel.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindSpeechStarted:
		return "speech_started"
	case KindSpeechStopped:
		return "speech_stopped"
	case KindFunctionCall:
		return "function_call"
	case KindInvalid:
		return "invalid"
	default:
		return "generic"
	}
}

// Server event type discriminators recognised by the parser.
const (
	TypeSpeechStarted    = "input_audio_buffer.speech_started"
	TypeSpeechStopped    = "input_audio_buffer.speech_stopped"
	TypeFunctionCallDone = "response.function_call_arguments.done"
)

// ParsedEvent is the result of decoding one data-channel frame. Type is the
// raw discriminator ("" when the frame was not valid JSON), Raw the original
// frame for consumers that need fields the union does not surface.
type ParsedEvent struct {
	Kind Kind
	Type string
	Raw  []byte

	// Populated for KindFunctionCall.
	CallID    string
	Name      string
	Arguments string
}

// envelope is the permissive top-level decode target. Only the discriminator
// is mandatory; everything else is optional per event type.
type envelope struct {
	Type      string `json:"type"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Parse decodes a single UTF-8 JSON frame into a ParsedEvent. It never
// returns an error: malformed input yields KindInvalid and unknown types
// yield KindGeneric, both deliverable to the observer.
func Parse(frame []byte) ParsedEvent {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil || env.Type == "" {
		return ParsedEvent{Kind: KindInvalid, Raw: frame}
	}

	ev := ParsedEvent{Kind: KindGeneric, Type: env.Type, Raw: frame}
	switch env.Type {
	case TypeSpeechStarted:
		ev.Kind = KindSpeechStarted
	case TypeSpeechStopped:
		ev.Kind = KindSpeechStopped
	case TypeFunctionCallDone:
		ev.Kind = KindFunctionCall
		ev.CallID = env.CallID
		ev.Name = env.Name
		ev.Arguments = env.Arguments
	}
	return ev
}
