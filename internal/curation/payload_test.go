package curation_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/protein/supplement-bot/internal/curation"
	"github.com/protein/supplement-bot/internal/domain"
)

var _ = Describe("BuildPayload", func() {
	var (
		channels *mockChannelResolver
		reactors *mockReactorSource
	)

	BeforeEach(func() {
		channels = &mockChannelResolver{channels: map[string]domain.CurationChannel{
			"chan-1": {ID: "chan-1", Name: "reports", Category: "cat-1"},
		}}
		reactors = &mockReactorSource{}
	})

	It("builds the canonical record from an embed message", func() {
		sent := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		msg := &domain.Message{
			ID:        "msg-9",
			ChannelID: "chan-1",
			Author:    &domain.User{ID: "author-1", Handle: "fig#0001"},
			Content:   "worth a read",
			CreatedAt: sent,
			Embeds:    []domain.Embed{{Title: "Piece", URL: "https://blog.example.com/x"}},
			Reactions: []domain.Reaction{{EmojiID: pinEmojiID, EmojiName: "pill:" + pinEmojiID, Count: 1}},
		}
		tagger := domain.User{ID: "tagger-1", Handle: "cur#0002"}
		reactors.reactorsFn = func(ctx context.Context, channelID, messageID, emojiName string) ([]domain.User, error) {
			return []domain.User{tagger}, nil
		}

		engine := curation.NewEngine(channels, reactors, curation.NewAuthorizer("*"), pinEmojiID, nil)
		q, ok, err := engine.Qualify(context.Background(), msg)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		p := curation.BuildPayload(q)
		Expect(p.ID).To(Equal("msg-9"))
		Expect(p.Title).To(Equal("Piece"))
		Expect(p.Link).To(Equal("https://blog.example.com/x"))
		Expect(p.Comment).To(Equal("worth a read"))
		Expect(p.Source).To(Equal("Example"))
		Expect(p.Channel).To(Equal("reports"))
		Expect(p.Timestamp).To(Equal(sent))
		Expect(p.Sharer.ExternalID).To(Equal("author-1"))
		Expect(p.Sharer.Handle).To(Equal("fig#0001"))
		Expect(p.Sharer.RecordID).To(BeEmpty())
		Expect(p.Taggers).To(Equal([]domain.Tagger{{ExternalID: "tagger-1", Handle: "cur#0002"}}))
		Expect(p.Votes.Count).To(Equal(1))
	})

	It("counts every vote while listing only authorized taggers", func() {
		msg := &domain.Message{
			ID:        "msg-10",
			ChannelID: "chan-1",
			Author:    &domain.User{ID: "author-1", Handle: "fig#0001"},
			Content:   "https://blog.example.com/y",
			Reactions: []domain.Reaction{{EmojiID: pinEmojiID, EmojiName: "pill:" + pinEmojiID, Count: 5}},
		}
		reactors.reactorsFn = func(ctx context.Context, channelID, messageID, emojiName string) ([]domain.User, error) {
			return []domain.User{
				{ID: "u-1", Handle: "a#1"},
				{ID: "u-2", Handle: "b#2"},
				{ID: "u-3", Handle: "c#3"},
			}, nil
		}
		reactors.memberRolesFn = func(ctx context.Context, userID string) ([]string, error) {
			if userID == "u-2" {
				return []string{"role-curator"}, nil
			}
			return nil, nil
		}

		engine := curation.NewEngine(channels, reactors, curation.NewAuthorizer("role-curator"), pinEmojiID, nil)
		q, ok, err := engine.Qualify(context.Background(), msg)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		p := curation.BuildPayload(q)
		Expect(p.Taggers).To(HaveLen(1))
		Expect(p.Votes.Count).To(Equal(5))
	})
})
