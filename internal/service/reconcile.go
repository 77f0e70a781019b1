// Package service holds the write side of the curation pipeline: committing
// payloads to the record store and replaying channel history.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/protein/supplement-bot/common/logger"
	"github.com/protein/supplement-bot/internal/domain"
	"github.com/protein/supplement-bot/internal/store"
)

// SharerStore is the record-store surface for sharer identities.
type SharerStore interface {
	// FindSharer returns store.ErrNotFound when no row matches.
	FindSharer(ctx context.Context, externalID string) (*domain.SharerRecord, error)
	CreateSharer(ctx context.Context, handle, externalID string) (*domain.SharerRecord, error)
}

// CurationStore is the record-store surface for curation rows.
type CurationStore interface {
	CreateCuration(ctx context.Context, p domain.CurationPayload) (string, error)
	CurationsBetween(ctx context.Context, start, end time.Time, limit int) ([]domain.CurationRow, error)
}

// Reconciler commits payloads to the record store.
type Reconciler interface {
	Commit(ctx context.Context, p domain.CurationPayload) (string, error)
}

type reconciler struct {
	sharers   SharerStore
	curations CurationStore
	logger    *slog.Logger
}

func NewReconciler(sharers SharerStore, curations CurationStore, log *slog.Logger) Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &reconciler{sharers: sharers, curations: curations, logger: log}
}

// Commit resolves (or lazily creates) the payload's sharer row, then writes
// the curation row. Each stage is terminal on failure with no retry and no
// rollback: a sharer created here survives a failed curation write as an
// accepted orphan. Commit itself performs no uniqueness check; live events
// fire at most once per reaction-add and backfill guards with its known-id
// set before calling in.
func (r *reconciler) Commit(ctx context.Context, p domain.CurationPayload) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(p.ID)})

	sharer, err := r.sharers.FindSharer(ctx, p.Sharer.ExternalID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.logger.InfoContext(ctx, "adding sharer to the sharers table", "handle", p.Sharer.Handle)
		sharer, err = r.sharers.CreateSharer(ctx, p.Sharer.Handle, p.Sharer.ExternalID)
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to create sharer, payload not committed", "error", err)
			return "", fmt.Errorf("creating sharer: %w", err)
		}
	case err != nil:
		r.logger.ErrorContext(ctx, "failed to resolve sharer, payload not committed", "error", err)
		return "", fmt.Errorf("resolving sharer: %w", err)
	default:
		r.logger.DebugContext(ctx, "sharer found in the sharers table", "handle", sharer.Handle)
	}

	p.Sharer.RecordID = sharer.RecordID

	recordID, err := r.curations.CreateCuration(ctx, p)
	if err != nil {
		// No compensating delete of a sharer created above; an orphan sharer
		// row is accepted over a partial-rollback path.
		r.logger.ErrorContext(ctx, "failed to commit curation record", "error", err)
		return "", fmt.Errorf("committing curation record: %w", err)
	}

	r.logger.InfoContext(ctx, "curation record committed",
		"record_id", recordID,
		"link", p.Link,
		"comment", logger.Truncate(p.Comment, 90))
	return recordID, nil
}
