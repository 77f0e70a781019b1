package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/protein/supplement-bot/internal/domain"
)

const refreshTimeout = 15 * time.Second

// channelLister is the slice of Session the watcher needs.
type channelLister interface {
	GuildChannels(ctx context.Context) ([]*discordgo.Channel, error)
}

// ChannelWatcher maintains a versioned snapshot of the text channels under
// the curated category. Refresh replaces the whole snapshot atomically; a
// lookup observes either the previous version or the next, never a partial
// one.
type ChannelWatcher struct {
	lister     channelLister
	categoryID string
	logger     *slog.Logger

	mu       sync.RWMutex
	version  uint64
	snapshot map[string]domain.CurationChannel
}

func NewChannelWatcher(lister channelLister, categoryID string, log *slog.Logger) *ChannelWatcher {
	if log == nil {
		log = slog.Default()
	}
	return &ChannelWatcher{
		lister:     lister,
		categoryID: categoryID,
		logger:     log,
		snapshot:   make(map[string]domain.CurationChannel),
	}
}

// Refresh rebuilds the snapshot from the guild's current channel list. On
// error the previous snapshot stays in place.
func (w *ChannelWatcher) Refresh(ctx context.Context) error {
	channels, err := w.lister.GuildChannels(ctx)
	if err != nil {
		return fmt.Errorf("refreshing channel snapshot: %w", err)
	}

	categoryName := ""
	for _, ch := range channels {
		if ch.ID == w.categoryID {
			categoryName = ch.Name
			break
		}
	}

	next := make(map[string]domain.CurationChannel)
	for _, ch := range channels {
		if ch.ParentID != w.categoryID || ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		next[ch.ID] = domain.CurationChannel{ID: ch.ID, Name: ch.Name, Category: categoryName}
	}

	w.mu.Lock()
	prev := w.snapshot
	w.snapshot = next
	w.version++
	version := w.version
	w.mu.Unlock()

	added, removed := diffChannels(prev, next)
	w.logger.Info("channel snapshot refreshed",
		"version", version,
		"tracked", len(next),
		"added", added,
		"removed", removed)
	return nil
}

// Lookup returns the tracked channel for the id, if any.
func (w *ChannelWatcher) Lookup(channelID string) (domain.CurationChannel, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ch, ok := w.snapshot[channelID]
	return ch, ok
}

// Version returns the snapshot generation, monotonically increasing per
// successful Refresh.
func (w *ChannelWatcher) Version() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.version
}

// Bind refreshes the snapshot on every channel lifecycle event. The events
// carry the changed channel, but a full rebuild keeps renames of the category
// itself and cross-category moves correct without per-event bookkeeping.
func (w *ChannelWatcher) Bind(s *Session) {
	s.dg.AddHandler(func(_ *discordgo.Session, _ *discordgo.ChannelCreate) { w.refreshAsync() })
	s.dg.AddHandler(func(_ *discordgo.Session, _ *discordgo.ChannelUpdate) { w.refreshAsync() })
	s.dg.AddHandler(func(_ *discordgo.Session, _ *discordgo.ChannelDelete) { w.refreshAsync() })
}

func (w *ChannelWatcher) refreshAsync() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if err := w.Refresh(ctx); err != nil {
		w.logger.Error("channel snapshot refresh failed", "error", err)
	}
}

func diffChannels(prev, next map[string]domain.CurationChannel) (added, removed []string) {
	for id, ch := range next {
		if _, ok := prev[id]; !ok {
			added = append(added, ch.Name)
		}
	}
	for id, ch := range prev {
		if _, ok := next[id]; !ok {
			removed = append(removed, ch.Name)
		}
	}
	return added, removed
}
