// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := New("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, mr
}

func TestReadBaseline_MissingKeyIsEmpty(t *testing.T) {
	st, _ := newTestStore(t)

	set, err := st.ReadBaseline(context.Background(), "acme", "vault")
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.NotNil(t, set)
}

func TestWriteBaseline_RoundTrip(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()

	fps := []string{
		"slither|reentrancy-eth|contracts/Vault.sol|42",
		"mythril|SWC-107|contracts/Vault.sol|42",
	}
	require.NoError(t, st.WriteBaseline(ctx, "acme", "vault", fps))

	// The key carries no prefix.
	raw, err := mr.Get("acme:vault")
	require.NoError(t, err)

	var stored []string
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, fps, stored)

	set, err := st.ReadBaseline(ctx, "acme", "vault")
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Contains(t, set, fps[0])
	assert.Contains(t, set, fps[1])
}

func TestWriteBaseline_ReplacesPrevious(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WriteBaseline(ctx, "acme", "vault", []string{"old|a|f.sol|1", "old|b|f.sol|2"}))
	require.NoError(t, st.WriteBaseline(ctx, "acme", "vault", []string{"new|c|f.sol|3"}))

	set, err := st.ReadBaseline(ctx, "acme", "vault")
	require.NoError(t, err)
	assert.Len(t, set, 1)
	assert.Contains(t, set, "new|c|f.sol|3")
}

func TestWriteBaseline_NilStoresEmptyArray(t *testing.T) {
	st, mr := newTestStore(t)

	require.NoError(t, st.WriteBaseline(context.Background(), "acme", "vault", nil))

	raw, err := mr.Get("acme:vault")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestReadBaseline_CorruptValue(t *testing.T) {
	st, mr := newTestStore(t)
	require.NoError(t, mr.Set("acme:vault", "{definitely not json"))

	_, err := st.ReadBaseline(context.Background(), "acme", "vault")
	require.Error(t, err)

	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestReadBaseline_TransportError(t *testing.T) {
	st, mr := newTestStore(t)
	mr.Close()

	_, err := st.ReadBaseline(context.Background(), "acme", "vault")
	require.Error(t, err)

	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestWriteScanRecord(t *testing.T) {
	st, mr := newTestStore(t)

	rec := ScanRecord{Status: "completed", NewIssuesFound: 3, Mode: "pr"}
	require.NoError(t, st.WriteScanRecord(context.Background(), "acme", "vault", rec))

	raw, err := mr.Get("scan_result:acme:vault")
	require.NoError(t, err)

	var stored ScanRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "completed", stored.Status)
	assert.Equal(t, 3, stored.NewIssuesFound)
	assert.Equal(t, "pr", stored.Mode)
	assert.False(t, stored.SavedAt.IsZero(), "SavedAt should be stamped on write")

	assert.Equal(t, 7*24*time.Hour, mr.TTL("scan_result:acme:vault"))
}

func TestPing(t *testing.T) {
	st, mr := newTestStore(t)

	require.NoError(t, st.Ping(context.Background()))

	mr.Close()
	err := st.Ping(context.Background())
	require.Error(t, err)

	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
}
