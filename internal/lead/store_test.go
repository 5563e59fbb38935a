// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package lead

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlink-ai/voxlink/pkg/commons"
)

func testStore(t *testing.T) Store {
	t.Helper()
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)

	store, err := NewStore(logger, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_CreateListRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := FromArguments("sess-1", `{"name":"Ada Lovelace","phone":"+44 20 7946 0958"}`)
	require.NoError(t, err)
	second, err := FromArguments("sess-1", `{"email":"grace@example.com","notes":"call back tomorrow"}`)
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	leads, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)

	byID := map[string]Lead{leads[0].ID: leads[0], leads[1].ID: leads[1]}
	got, ok := byID[first.ID]
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "+44 20 7946 0958", got.Phone)
	assert.Equal(t, "sess-1", got.SessionID)

	got, ok = byID[second.ID]
	require.True(t, ok)
	assert.Equal(t, "grace@example.com", got.Email)
	assert.Equal(t, "call back tomorrow", got.Notes)
}

func TestFromArguments_Validation(t *testing.T) {
	tests := []struct {
		name      string
		arguments string
		wantErr   string
	}{
		{
			name:      "malformed json",
			arguments: `{"name":`,
			wantErr:   "malformed capture arguments",
		},
		{
			name:      "no contact details",
			arguments: `{"notes":"seemed interested"}`,
			wantErr:   "no contact details",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromArguments("sess-1", tt.arguments)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromArguments_UnknownFieldsIgnored(t *testing.T) {
	l, err := FromArguments("sess-2", `{"name":"Joan Clarke","budget":"unknown-field"}`)
	require.NoError(t, err)
	assert.Equal(t, "Joan Clarke", l.Name)
	assert.NotEmpty(t, l.ID)
}
