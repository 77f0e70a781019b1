package discord_test

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/protein/supplement-bot/internal/discord"
)

type fakeLister struct {
	channelsFn func(ctx context.Context) ([]*discordgo.Channel, error)
}

func (f *fakeLister) GuildChannels(ctx context.Context) ([]*discordgo.Channel, error) {
	return f.channelsFn(ctx)
}

var _ = Describe("ChannelWatcher", func() {
	const categoryID = "800000000000000001"

	var (
		lister  *fakeLister
		watcher *discord.ChannelWatcher
	)

	category := &discordgo.Channel{ID: categoryID, Name: "Supplement", Type: discordgo.ChannelTypeGuildCategory}
	nutrition := &discordgo.Channel{ID: "900000000000000001", Name: "nutrition", ParentID: categoryID, Type: discordgo.ChannelTypeGuildText}
	training := &discordgo.Channel{ID: "900000000000000002", Name: "training", ParentID: categoryID, Type: discordgo.ChannelTypeGuildText}
	offTopic := &discordgo.Channel{ID: "900000000000000003", Name: "off-topic", ParentID: "800000000000000099", Type: discordgo.ChannelTypeGuildText}
	voice := &discordgo.Channel{ID: "900000000000000004", Name: "hangout", ParentID: categoryID, Type: discordgo.ChannelTypeGuildVoice}

	BeforeEach(func() {
		lister = &fakeLister{}
		watcher = discord.NewChannelWatcher(lister, categoryID, nil)
	})

	It("tracks only text channels under the category", func() {
		lister.channelsFn = func(ctx context.Context) ([]*discordgo.Channel, error) {
			return []*discordgo.Channel{category, nutrition, training, offTopic, voice}, nil
		}

		Expect(watcher.Refresh(context.Background())).To(Succeed())

		ch, ok := watcher.Lookup(nutrition.ID)
		Expect(ok).To(BeTrue())
		Expect(ch.Name).To(Equal("nutrition"))
		Expect(ch.Category).To(Equal("Supplement"))

		_, ok = watcher.Lookup(offTopic.ID)
		Expect(ok).To(BeFalse())
		_, ok = watcher.Lookup(voice.ID)
		Expect(ok).To(BeFalse())
	})

	It("replaces the snapshot wholesale on refresh", func() {
		lister.channelsFn = func(ctx context.Context) ([]*discordgo.Channel, error) {
			return []*discordgo.Channel{category, nutrition, training}, nil
		}
		Expect(watcher.Refresh(context.Background())).To(Succeed())

		lister.channelsFn = func(ctx context.Context) ([]*discordgo.Channel, error) {
			return []*discordgo.Channel{category, training}, nil
		}
		Expect(watcher.Refresh(context.Background())).To(Succeed())

		_, ok := watcher.Lookup(nutrition.ID)
		Expect(ok).To(BeFalse())
		_, ok = watcher.Lookup(training.ID)
		Expect(ok).To(BeTrue())
	})

	It("bumps the version per successful refresh", func() {
		lister.channelsFn = func(ctx context.Context) ([]*discordgo.Channel, error) {
			return []*discordgo.Channel{category, nutrition}, nil
		}

		Expect(watcher.Version()).To(BeZero())
		Expect(watcher.Refresh(context.Background())).To(Succeed())
		Expect(watcher.Version()).To(Equal(uint64(1)))
		Expect(watcher.Refresh(context.Background())).To(Succeed())
		Expect(watcher.Version()).To(Equal(uint64(2)))
	})

	It("keeps the previous snapshot when the listing fails", func() {
		lister.channelsFn = func(ctx context.Context) ([]*discordgo.Channel, error) {
			return []*discordgo.Channel{category, nutrition}, nil
		}
		Expect(watcher.Refresh(context.Background())).To(Succeed())

		lister.channelsFn = func(ctx context.Context) ([]*discordgo.Channel, error) {
			return nil, errors.New("missing access")
		}
		Expect(watcher.Refresh(context.Background())).NotTo(Succeed())

		_, ok := watcher.Lookup(nutrition.ID)
		Expect(ok).To(BeTrue())
		Expect(watcher.Version()).To(Equal(uint64(1)))
	})

	It("starts empty before the first refresh", func() {
		_, ok := watcher.Lookup(nutrition.ID)
		Expect(ok).To(BeFalse())
	})
})
