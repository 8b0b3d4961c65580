// Package replay rebuilds application snapshots by folding the event journal.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/substratehq/provision/internal/app/domain/app"
	"github.com/substratehq/provision/internal/app/domain/event"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrAppIDRequired indicates a missing app id.
	ErrAppIDRequired = errors.New("app id is required")
)

// EventStore lists journal events for replay.
type EventStore interface {
	ListEvents(ctx context.Context, appID string, afterSeq uint64, limit int) ([]event.Event, error)
}

// Options configures replay behavior.
type Options struct {
	// UntilSeq stops the fold after this sequence (0 = replay everything).
	UntilSeq uint64
	// PageSize bounds how many events are loaded per store call.
	PageSize int
}

// Result captures replay outcomes.
type Result struct {
	Snapshot app.Snapshot
	LastSeq  uint64
	Applied  int
}

// Replay folds the application's journal from its first event and returns
// the rebuilt snapshot. The fold always starts from the empty snapshot so
// the result depends only on the journal contents.
func Replay(ctx context.Context, store EventStore, appID string, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrEventStoreRequired
	}
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return Result{}, ErrAppIDRequired
	}

	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result{}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		events, err := store.ListEvents(ctx, appID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(events) == 0 {
			return result, nil
		}
		for _, evt := range events {
			if options.UntilSeq > 0 && evt.Seq > options.UntilSeq {
				return result, nil
			}
			expectedSeq := result.LastSeq + 1
			if evt.Seq != expectedSeq {
				return result, fmt.Errorf("event sequence gap: expected %d got %d", expectedSeq, evt.Seq)
			}
			result.Snapshot = app.Reduce(result.Snapshot, evt)
			result.LastSeq = evt.Seq
			result.Applied++
		}
	}
}
