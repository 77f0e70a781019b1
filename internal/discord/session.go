// Package discord adapts the gateway connection: converting wire messages to
// domain types, watching the curated channel category, and handling the
// reaction and slash-command events that drive the pipeline.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/protein/supplement-bot/internal/domain"
)

// reactorPageLimit caps one reactor listing call. A curation emoji gathering
// more reactors than this on a single message is not a case worth paginating
// for.
const reactorPageLimit = 100

// Session wraps the gateway connection with the domain-typed read surface the
// rest of the bot consumes.
type Session struct {
	dg      *discordgo.Session
	guildID string
	logger  *slog.Logger
}

func NewSession(token, guildID string, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentMessageContent

	return &Session{dg: dg, guildID: guildID, logger: log}, nil
}

func (s *Session) Open() error {
	if err := s.dg.Open(); err != nil {
		return fmt.Errorf("opening gateway connection: %w", err)
	}
	return nil
}

func (s *Session) Close() error {
	return s.dg.Close()
}

// Message fetches a single message with its current reaction state. The
// gateway omits GuildID on this endpoint; callers holding it from the
// triggering event should set it themselves.
func (s *Session) Message(ctx context.Context, channelID, messageID string) (*domain.Message, error) {
	msg, err := s.dg.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", messageID, err)
	}
	return convertMessage(msg), nil
}

// RecentMessages returns the channel's most recent messages, newest first.
func (s *Session) RecentMessages(ctx context.Context, channelID string, limit int) ([]*domain.Message, error) {
	msgs, err := s.dg.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching channel messages: %w", err)
	}

	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, convertMessage(m))
	}
	return out, nil
}

// Reactors lists every user behind one reaction bucket, identified by the
// emoji's API name ("name:id" for custom emoji, the glyph otherwise).
func (s *Session) Reactors(ctx context.Context, channelID, messageID, emojiName string) ([]domain.User, error) {
	users, err := s.dg.MessageReactions(channelID, messageID, emojiName, reactorPageLimit, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching reactors: %w", err)
	}

	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, domain.User{ID: u.ID, Handle: handle(u)})
	}
	return out, nil
}

func (s *Session) MemberRoles(ctx context.Context, userID string) ([]string, error) {
	member, err := s.dg.GuildMember(s.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching member %s: %w", userID, err)
	}
	return member.Roles, nil
}

func (s *Session) GuildChannels(ctx context.Context) ([]*discordgo.Channel, error) {
	channels, err := s.dg.GuildChannels(s.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching guild channels: %w", err)
	}
	return channels, nil
}

func convertMessage(m *discordgo.Message) *domain.Message {
	msg := &domain.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		CreatedAt: m.Timestamp,
	}

	if m.Author != nil {
		msg.Author = &domain.User{ID: m.Author.ID, Handle: handle(m.Author)}
	}

	for _, e := range m.Embeds {
		msg.Embeds = append(msg.Embeds, domain.Embed{Title: e.Title, URL: e.URL})
	}

	for _, r := range m.Reactions {
		if r.Emoji == nil {
			continue
		}
		msg.Reactions = append(msg.Reactions, domain.Reaction{
			EmojiID:   emojiKey(r.Emoji),
			EmojiName: r.Emoji.APIName(),
			Count:     r.Count,
		})
	}

	return msg
}

// emojiKey is the stable identity of an emoji: the snowflake for custom
// emoji, the glyph for unicode ones. Matches what operators configure.
func emojiKey(e *discordgo.Emoji) string {
	if e == nil {
		return ""
	}
	if e.ID != "" {
		return e.ID
	}
	return e.Name
}

// handle renders a user the way curators know them. Discriminators are "0"
// on migrated accounts and omitted there.
func handle(u *discordgo.User) string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}
