package cppcheck

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRecordAndQuery(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), HistoryFile))
	require.NoError(t, err)
	defer h.Close()

	_, ok, err := h.Latest("hello")
	require.NoError(t, err)
	assert.False(t, ok)

	first := NewRunCounts("hello", map[string]int{"error": 2, "style": 5})
	require.NoError(t, h.Record(first))

	latest, ok, err := h.Latest("hello")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, latest.Errors)
	assert.Equal(t, 5, latest.Style)
	assert.Equal(t, 7, latest.Total())

	// A single run has nothing to compare against.
	_, ok, err = h.Previous("hello")
	require.NoError(t, err)
	assert.False(t, ok)

	second := NewRunCounts("hello", map[string]int{"style": 3})
	require.NoError(t, h.Record(second))

	prev, ok, err := h.Previous("hello")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, prev.Errors)

	latest, ok, err = h.Latest("hello")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, latest.Errors)
	assert.Equal(t, 3, latest.Style)
}

func TestHistoryKeepsComponentsApart(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), HistoryFile))
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Record(NewRunCounts("hello", map[string]int{"error": 1})))
	require.NoError(t, h.Record(NewRunCounts("core", map[string]int{"warning": 4})))

	latest, ok, err := h.Latest("hello")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, latest.Errors)
	assert.Zero(t, latest.Warnings)
}
