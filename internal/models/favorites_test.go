package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavorites_AddIsIdempotent(t *testing.T) {
	fav := NewFavorites()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, fav.Add("fur-elise", now))
	assert.False(t, fav.Add("fur-elise", now.Add(time.Hour)))

	assert.Equal(t, []string{"fur-elise"}, fav.IDs)
	assert.Equal(t, now, fav.UpdatedAt)
}

func TestFavorites_Remove(t *testing.T) {
	fav := NewFavorites()
	now := time.Now()
	fav.Add("a", now)
	fav.Add("b", now)
	fav.Add("c", now)

	assert.True(t, fav.Remove("b", now))
	assert.Equal(t, []string{"a", "c"}, fav.IDs)

	assert.False(t, fav.Remove("missing", now))
	assert.Equal(t, []string{"a", "c"}, fav.IDs)
}

func TestFavorites_RoundTrip(t *testing.T) {
	fav := NewFavorites()
	fav.Add("fur-elise", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))

	data, err := fav.Encode()
	require.NoError(t, err)

	decoded, err := ParseFavorites(data)
	require.NoError(t, err)
	assert.Equal(t, fav.IDs, decoded.IDs)
	assert.True(t, fav.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestParseFavorites_Empty(t *testing.T) {
	fav, err := ParseFavorites(nil)
	require.NoError(t, err)
	assert.NotNil(t, fav.IDs)
	assert.Empty(t, fav.IDs)

	fav, err = ParseFavorites([]byte(`{"favorites":null}`))
	require.NoError(t, err)
	assert.NotNil(t, fav.IDs)
}

func TestRunSummary_Record(t *testing.T) {
	run := NewRunSummary("catalog", time.Now())
	require.NotEmpty(t, run.RunID)

	run.Record(ItemResult{ID: "a", Status: ItemSucceeded, Chars: 120})
	run.Record(ItemResult{ID: "b", Status: ItemFailed, Reason: "no notes found"})
	run.Record(ItemResult{ID: "c", Status: ItemSucceeded})

	assert.Equal(t, 2, run.Successful)
	assert.Equal(t, 1, run.Failed)
	assert.Len(t, run.Items, 3)

	run.Finish(run.StartedAt.Add(time.Minute), nil)
	assert.False(t, run.Aborted)
	assert.Equal(t, time.Minute, run.Duration())
}
