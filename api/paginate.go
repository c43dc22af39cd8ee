// ABOUTME: Pagination drivers for offset- and cursor-style collection APIs
// ABOUTME: Materializes complete ordered collections with inter-page courtesy delays
package api

import (
	"context"
	"time"
)

// OffsetPageFunc fetches one page starting at the given offset.
type OffsetPageFunc[T any] func(ctx context.Context, offset int) ([]T, error)

// CursorPageFunc fetches one page after the given cursor (empty for the
// first page), returning the items and the next-page cursor. An empty
// next cursor ends pagination.
type CursorPageFunc[T any] func(ctx context.Context, after string) ([]T, string, error)

// FetchAllOffset drives offset pagination until a short page. A page
// with fewer than pageSize items is a definitive end-of-data signal;
// the loop never probes for a trailing empty page. The delay between
// page fetches is a required rate-limit courtesy.
func FetchAllOffset[T any](ctx context.Context, pageSize int, delay time.Duration, sleep SleepFunc, fetch OffsetPageFunc[T]) ([]T, error) {
	if sleep == nil {
		sleep = sleepContext
	}
	var all []T
	offset := 0
	for {
		page, err := fetch(ctx, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			// An empty first page yields an empty collection.
			return all, nil
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		offset += pageSize
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// FetchAllCursor drives cursor pagination until the provider stops
// returning a next-page pointer.
func FetchAllCursor[T any](ctx context.Context, delay time.Duration, sleep SleepFunc, fetch CursorPageFunc[T]) ([]T, error) {
	if sleep == nil {
		sleep = sleepContext
	}
	var all []T
	after := ""
	for {
		page, next, err := fetch(ctx, after)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		after = next
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}
