// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionCallOutput_WireShape(t *testing.T) {
	payload, err := FunctionCallOutput("call_1", "42")
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"type":"conversation.item.create","item":{"type":"function_call_output","call_id":"call_1","output":"42"}}`,
		payload)
}

func TestFunctionCallOutput_EscapesOutput(t *testing.T) {
	payload, err := FunctionCallOutput("call_2", `{"ok":true}`)
	require.NoError(t, err)

	// The output field is a string, so embedded JSON must arrive escaped.
	assert.Contains(t, payload, `"output":"{\"ok\":true}"`)
}

func TestResponseCreate_WireShape(t *testing.T) {
	assert.Equal(t, `{"type":"response.create"}`, ResponseCreate())
}
