// ABOUTME: Tests for the pagination helpers
// ABOUTME: Termination on short pages and cursor exhaustion
package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestFetchAllOffsetStopsOnShortPage(t *testing.T) {
	pages := [][]int{
		make([]int, 100),
		make([]int, 100),
		make([]int, 47),
	}
	fetches := 0

	items, err := FetchAllOffset(context.Background(), 100, time.Millisecond, noSleep,
		func(ctx context.Context, offset int) ([]int, error) {
			require.Equal(t, fetches*100, offset)
			page := pages[fetches]
			fetches++
			return page, nil
		})

	require.NoError(t, err)
	assert.Len(t, items, 247)
	// The short third page terminates the loop; there is no fourth fetch.
	assert.Equal(t, 3, fetches)
}

func TestFetchAllOffsetEmptyFirstPage(t *testing.T) {
	fetches := 0
	items, err := FetchAllOffset(context.Background(), 100, 0, noSleep,
		func(ctx context.Context, offset int) ([]int, error) {
			fetches++
			return nil, nil
		})

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, fetches)
}

func TestFetchAllOffsetDelaysBetweenPages(t *testing.T) {
	sleeper := &recordedSleeper{}
	pages := [][]string{
		{"a", "b"},
		{"c", "d"},
		{"e"},
	}
	fetches := 0

	items, err := FetchAllOffset(context.Background(), 2, 50*time.Millisecond, sleeper.sleep,
		func(ctx context.Context, offset int) ([]string, error) {
			page := pages[fetches]
			fetches++
			return page, nil
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, items)
	// One courtesy delay before each follow-up page.
	assert.Len(t, sleeper.waits, 2)
}

func TestFetchAllCursorFollowsUntilEmpty(t *testing.T) {
	pages := map[string]struct {
		items []string
		next  string
	}{
		"":         {items: []string{"a", "b"}, next: "cursor-1"},
		"cursor-1": {items: []string{"c"}, next: ""},
	}
	var seen []string

	items, err := FetchAllCursor(context.Background(), 0, noSleep,
		func(ctx context.Context, after string) ([]string, string, error) {
			seen = append(seen, after)
			page := pages[after]
			return page.items, page.next, nil
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, items)
	assert.Equal(t, []string{"", "cursor-1"}, seen)
}
