// Package curation decides whether a (message, reaction) pair is a curation
// event and builds the canonical payload from one that is.
package curation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/protein/supplement-bot/internal/domain"
	"github.com/protein/supplement-bot/internal/extract"
)

// ChannelResolver is the watcher's read surface: the current snapshot of
// channels tracked for curation.
type ChannelResolver interface {
	Lookup(channelID string) (domain.CurationChannel, bool)
}

// ReactorSource fetches the users behind a reaction bucket and their guild
// roles. Implemented by the discord session adapter in production and by
// fakes in tests.
type ReactorSource interface {
	// Reactors lists every user who applied the reaction identified by its
	// API emoji name.
	Reactors(ctx context.Context, channelID, messageID, emojiName string) ([]domain.User, error)
	MemberRoles(ctx context.Context, userID string) ([]string, error)
}

// Qualified carries everything the payload builder needs from a qualifying
// message.
type Qualified struct {
	Message   *domain.Message
	Channel   domain.CurationChannel
	Link      extract.Link
	Taggers   []domain.User
	VoteCount int
}

// Engine evaluates qualification. One engine serves both temporal modes: the
// live path (a reaction arriving) and the backfill path (a historical message
// with its full reaction state) call the same Qualify, and both consider the
// full fetched reactor list, so accept/reject never depends on arrival order.
type Engine struct {
	channels ChannelResolver
	reactors ReactorSource
	auth     *Authorizer
	emojiID  string
	logger   *slog.Logger
}

func NewEngine(channels ChannelResolver, reactors ReactorSource, auth *Authorizer, emojiID string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		channels: channels,
		reactors: reactors,
		auth:     auth,
		emojiID:  emojiID,
		logger:   logger,
	}
}

// Qualify evaluates a message's current reaction state. ok false with a nil
// error means the message does not qualify; that is a silent no-op, never a
// failure. A non-nil error means qualification could not be completed
// (collaborator fetch failed) and the event should be dropped.
func (e *Engine) Qualify(ctx context.Context, msg *domain.Message) (*Qualified, bool, error) {
	channel, ok := e.channels.Lookup(msg.ChannelID)
	if !ok {
		return nil, false, nil
	}

	reaction, ok := msg.Reaction(e.emojiID)
	if !ok || reaction.Count == 0 {
		return nil, false, nil
	}

	if msg.Author == nil || msg.Author.ID == "" {
		return nil, false, nil
	}

	link, ok := extract.FromMessage(msg)
	if !ok {
		return nil, false, nil
	}

	users, err := e.reactors.Reactors(ctx, msg.ChannelID, msg.ID, reaction.EmojiName)
	if err != nil {
		return nil, false, fmt.Errorf("fetching reactors: %w", err)
	}

	taggers, err := e.authorizedTaggers(ctx, users)
	if err != nil {
		return nil, false, err
	}
	if len(taggers) == 0 {
		return nil, false, nil
	}

	return &Qualified{
		Message:   msg,
		Channel:   channel,
		Link:      link,
		Taggers:   taggers,
		VoteCount: reaction.Count,
	}, true, nil
}

func (e *Engine) authorizedTaggers(ctx context.Context, users []domain.User) ([]domain.User, error) {
	if e.auth.AllowsAll() {
		return users, nil
	}

	taggers := make([]domain.User, 0, len(users))
	for _, u := range users {
		roles, err := e.reactors.MemberRoles(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching roles for %s: %w", u.ID, err)
		}
		if e.auth.Allows(roles) {
			taggers = append(taggers, u)
		}
	}
	return taggers, nil
}
