package domain

import "time"

// User is a chat-platform user as seen by the curation pipeline.
type User struct {
	ID     string
	Handle string // username#discriminator
}

// Embed is a platform-rendered link preview attached to a message.
type Embed struct {
	Title string
	URL   string
}

// Reaction is one emoji bucket on a message.
type Reaction struct {
	EmojiID   string // stable identifier: custom emoji id, or the glyph itself
	EmojiName string // API name used to enumerate reactors ("name:id" for custom emoji)
	Count     int
}

// Message is the platform-neutral view of a channel message. Built by the
// event source adapter; never written back to the platform.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	Author    *User // nil when the author is deleted or only partially known
	Content   string
	Embeds    []Embed
	Reactions []Reaction
	CreatedAt time.Time
}

// Reaction returns the message's reaction bucket for an emoji identifier.
func (m *Message) Reaction(emojiID string) (Reaction, bool) {
	for _, r := range m.Reactions {
		if r.EmojiID == emojiID {
			return r, true
		}
	}
	return Reaction{}, false
}

// CurationChannel is a channel tracked for curation. The set of tracked
// channels is owned by the channel watcher and fully replaced on refresh.
type CurationChannel struct {
	ID       string
	Name     string
	Category string // parent category name
}
