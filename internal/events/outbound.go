// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package events

import (
	"encoding/json"
	"fmt"
)

// Outbound event type discriminators.
const (
	TypeConversationItemCreate = "conversation.item.create"
	TypeResponseCreate         = "response.create"
)

type functionCallOutputItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

type conversationItemCreate struct {
	Type string                 `json:"type"`
	Item functionCallOutputItem `json:"item"`
}

type responseCreate struct {
	Type string `json:"type"`
}

// FunctionCallOutput builds the conversation.item.create envelope carrying a
// function result back to the model. The remote protocol requires it to be
// followed by a separate ResponseCreate frame; the two must not be coalesced.
func FunctionCallOutput(callID, output string) (string, error) {
	payload, err := json.Marshal(conversationItemCreate{
		Type: TypeConversationItemCreate,
		Item: functionCallOutputItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal function call output: %w", err)
	}
	return string(payload), nil
}

// ResponseCreate builds the response-trigger envelope.
func ResponseCreate() string {
	payload, _ := json.Marshal(responseCreate{Type: TypeResponseCreate})
	return string(payload)
}
