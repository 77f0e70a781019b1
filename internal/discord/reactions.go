package discord

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/trace"

	"github.com/protein/supplement-bot/common/logger"
	"github.com/protein/supplement-bot/internal/curation"
	"github.com/protein/supplement-bot/internal/metrics"
	"github.com/protein/supplement-bot/internal/service"
)

const handleTimeout = 30 * time.Second

// ReactionHandler drives the live curation path: one reaction-add event in,
// at most one committed record out. Cheap identity checks run before any
// fetch; the message is then re-fetched so qualification sees the full
// current reaction state rather than the single event that woke us.
type ReactionHandler struct {
	session    *Session
	watcher    *ChannelWatcher
	engine     service.Qualifier
	reconciler service.Reconciler
	metrics    *metrics.Metrics
	guildID    string
	emojiID    string
	logger     *slog.Logger
}

func NewReactionHandler(
	session *Session,
	watcher *ChannelWatcher,
	engine service.Qualifier,
	reconciler service.Reconciler,
	m *metrics.Metrics,
	guildID, emojiID string,
	log *slog.Logger,
) *ReactionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ReactionHandler{
		session:    session,
		watcher:    watcher,
		engine:     engine,
		reconciler: reconciler,
		metrics:    m,
		guildID:    guildID,
		emojiID:    emojiID,
		logger:     log,
	}
}

func (h *ReactionHandler) Bind(s *Session) {
	s.dg.AddHandler(h.onReactionAdd)
}

func (h *ReactionHandler) onReactionAdd(_ *discordgo.Session, e *discordgo.MessageReactionAdd) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	h.handle(ctx, e)
}

func (h *ReactionHandler) handle(ctx context.Context, e *discordgo.MessageReactionAdd) {
	if e.GuildID != h.guildID {
		return
	}
	if emojiKey(&e.Emoji) != h.emojiID {
		return
	}
	if _, ok := h.watcher.Lookup(e.ChannelID); !ok {
		h.metrics.IncReaction("untracked_channel")
		return
	}

	sc := logger.StartSpan(ctx, "bot.handle_reaction", trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		ChannelID: logger.Ptr(e.ChannelID),
		MessageID: logger.Ptr(e.MessageID),
	})

	h.metrics.IncReaction("candidate")

	msg, err := h.session.Message(ctx, e.ChannelID, e.MessageID)
	if err != nil {
		h.metrics.IncReaction("fetch_failed")
		sc.RecordError(err)
		h.logger.WarnContext(ctx, "dropping reaction event, message fetch failed", "error", err)
		return
	}
	msg.GuildID = e.GuildID

	q, ok, err := h.engine.Qualify(ctx, msg)
	if err != nil {
		h.metrics.IncReaction("qualify_failed")
		sc.RecordError(err)
		h.logger.WarnContext(ctx, "dropping reaction event, qualification aborted", "error", err)
		return
	}
	if !ok {
		h.metrics.IncReaction("rejected")
		h.logger.DebugContext(ctx, "message does not qualify for curation")
		return
	}

	payload := curation.BuildPayload(q)
	h.logger.InfoContext(ctx, "curation payload built",
		"link", payload.Link,
		"sharer", payload.Sharer.Handle,
		"taggers", len(payload.Taggers))

	if _, err := h.reconciler.Commit(ctx, payload); err != nil {
		// Commit logged the failing stage; the event is dropped and /sync
		// picks the message up later.
		h.metrics.IncCommitFailure("live")
		sc.RecordError(err)
		return
	}
	h.metrics.IncCommitted()
}
