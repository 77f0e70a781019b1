package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/trace"

	"github.com/protein/supplement-bot/common/logger"
	"github.com/protein/supplement-bot/internal/domain"
	"github.com/protein/supplement-bot/internal/metrics"
	"github.com/protein/supplement-bot/internal/service"
)

const (
	commandName = "sync"
	syncTimeout = 2 * time.Minute
)

// SyncCommand registers and serves the /sync slash command: a backfill of
// the invoking channel over the current calendar month, reported back as an
// ephemeral reply.
type SyncCommand struct {
	session  *Session
	watcher  *ChannelWatcher
	backfill *service.Backfill
	metrics  *metrics.Metrics
	appID    string
	guildID  string
	logger   *slog.Logger
}

func NewSyncCommand(
	session *Session,
	watcher *ChannelWatcher,
	backfill *service.Backfill,
	m *metrics.Metrics,
	appID, guildID string,
	log *slog.Logger,
) *SyncCommand {
	if log == nil {
		log = slog.Default()
	}
	return &SyncCommand{
		session:  session,
		watcher:  watcher,
		backfill: backfill,
		metrics:  m,
		appID:    appID,
		guildID:  guildID,
		logger:   log,
	}
}

// Register upserts the command definition with the platform. Guild-scoped
// registration propagates immediately, unlike the global variant.
func (c *SyncCommand) Register(ctx context.Context) error {
	_, err := c.session.dg.ApplicationCommandCreate(c.appID, c.guildID, &discordgo.ApplicationCommand{
		Name:        commandName,
		Description: "Fetch tagged messages in this channel and synchronise with supplement data.",
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("registering /%s command: %w", commandName, err)
	}
	return nil
}

func (c *SyncCommand) Bind(s *Session) {
	s.dg.AddHandler(c.onInteraction)
}

func (c *SyncCommand) onInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.ApplicationCommandData().Name != commandName {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	c.handle(ctx, i)
}

func (c *SyncCommand) handle(ctx context.Context, i *discordgo.InteractionCreate) {
	sc := logger.StartSpan(ctx, "bot.sync", trace.WithSpanKind(trace.SpanKindServer))
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{ChannelID: logger.Ptr(i.ChannelID)})

	channel, tracked := c.watcher.Lookup(i.ChannelID)
	if !tracked {
		c.respondEphemeral(ctx, i, "This channel is not tracked for supplement curation.")
		return
	}

	// Ack within the 3s interaction deadline; the backfill takes longer.
	err := c.session.dg.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
	if err != nil {
		sc.RecordError(err)
		c.logger.ErrorContext(ctx, "failed to acknowledge sync command", "error", err)
		return
	}

	start, end := monthWindow(time.Now().UTC())
	c.logger.InfoContext(ctx, "sync started", "channel", channel.Name, "start", start, "end", end)

	var content string
	report, err := c.backfill.Run(ctx, channel, start, end)
	if err != nil {
		c.metrics.IncBackfillRun("error")
		sc.RecordError(err)
		c.logger.ErrorContext(ctx, "sync failed", "error", err)
		content = "Something went wrong during the sync, please try again later."
	} else {
		c.metrics.IncBackfillRun("ok")
		content = formatReport(report)
	}

	if _, err := c.session.dg.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}, discordgo.WithContext(ctx)); err != nil {
		sc.RecordError(err)
		c.logger.ErrorContext(ctx, "failed to deliver sync report", "error", err)
	}
}

func (c *SyncCommand) respondEphemeral(ctx context.Context, i *discordgo.InteractionCreate, content string) {
	err := c.session.dg.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to respond to sync command", "error", err)
	}
}

// monthWindow is the current calendar month in UTC, end exclusive.
func monthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func formatReport(r *domain.SyncReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The #%s sync report for the current month:\n\n", r.Channel)

	if r.Qualifying == 0 {
		b.WriteString("✅ There aren't any messages tagged as supplement.\n")
	} else {
		fmt.Fprintf(&b, "✅ %d messages tagged as supplement from %d messages.\n", r.Qualifying, r.Scanned)
	}

	if r.Synced == 0 {
		b.WriteString("✅ All messages are in sync with Airtable.")
	} else {
		fmt.Fprintf(&b, "✅ Synced %d supplement messages which wasn't in Airtable", r.Synced)
	}
	b.WriteString("\n")

	if r.Unrecognized > 0 {
		fmt.Fprintf(&b, "👀 %d messages in Airtable not recognized as they have no match with messages on Discord, FYI.\n", r.Unrecognized)
	}

	b.WriteString("\nThanks 👋")
	return b.String()
}
