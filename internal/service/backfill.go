package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/protein/supplement-bot/common/logger"
	"github.com/protein/supplement-bot/internal/curation"
	"github.com/protein/supplement-bot/internal/domain"
)

// historyLimit bounds how far back one backfill run looks. A full historical
// replay beyond the most recent batch is a known limitation of the sync
// command, not something the coordinator works around.
const historyLimit = 100

// MessageSource fetches recent channel history from the chat platform,
// most recent first.
type MessageSource interface {
	RecentMessages(ctx context.Context, channelID string, limit int) ([]*domain.Message, error)
}

// Qualifier mirrors curation.Engine so the coordinator stays mockable
// without dragging in the engine's collaborators.
type Qualifier interface {
	Qualify(ctx context.Context, msg *domain.Message) (*curation.Qualified, bool, error)
}

// Backfill replays a channel's recent history through the same
// qualification/build/reconcile pipeline as the live path, reconciling
// against rows already committed to the record store.
type Backfill struct {
	source     MessageSource
	engine     Qualifier
	reconciler Reconciler
	curations  CurationStore
	logger     *slog.Logger
}

func NewBackfill(source MessageSource, engine Qualifier, reconciler Reconciler, curations CurationStore, log *slog.Logger) *Backfill {
	if log == nil {
		log = slog.Default()
	}
	return &Backfill{
		source:     source,
		engine:     engine,
		reconciler: reconciler,
		curations:  curations,
		logger:     log,
	}
}

// Run scans the channel's most recent messages against the window
// [start, end) and commits qualifying messages the store does not know yet.
// Each qualifying message lands in exactly one report bucket: AlreadySynced
// when its id is present in the store, Synced when reconciliation commits it.
// The known-id check is read-then-write with no transactional guarantee; a
// live event racing the same message can still double-insert, which is
// accepted.
func (b *Backfill) Run(ctx context.Context, channel domain.CurationChannel, start, end time.Time) (*domain.SyncReport, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{ChannelID: logger.Ptr(channel.ID)})

	rows, err := b.curations.CurationsBetween(ctx, start, end, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing synced curations: %w", err)
	}

	report := &domain.SyncReport{Channel: channel.Name}
	known := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.MessageID == "" {
			// Rows created outside the bot carry no message id; they are
			// reported but never matched.
			report.Unrecognized++
			continue
		}
		known[row.MessageID] = struct{}{}
	}

	msgs, err := b.source.RecentMessages(ctx, channel.ID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching channel history: %w", err)
	}
	report.Scanned = len(msgs)

	for _, msg := range msgs {
		if msg.CreatedAt.Before(start) || !msg.CreatedAt.Before(end) {
			continue
		}

		q, ok, err := b.engine.Qualify(ctx, msg)
		if err != nil {
			b.logger.WarnContext(ctx, "skipping message, qualification aborted", "message_id", msg.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		report.Qualifying++

		payload := curation.BuildPayload(q)
		if _, dup := known[payload.ID]; dup {
			report.AlreadySynced++
			continue
		}

		if _, err := b.reconciler.Commit(ctx, payload); err != nil {
			// Commit logged the failing stage; the message stays uncounted
			// and the next sync picks it up again.
			continue
		}
		report.Synced++
	}

	b.logger.InfoContext(ctx, "backfill finished",
		"scanned", report.Scanned,
		"qualifying", report.Qualifying,
		"synced", report.Synced,
		"already_synced", report.AlreadySynced,
		"unrecognized", report.Unrecognized)
	return report, nil
}
