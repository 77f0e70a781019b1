package curation_test

import (
	"context"

	"github.com/protein/supplement-bot/internal/domain"
)

type mockChannelResolver struct {
	channels map[string]domain.CurationChannel
}

func (m *mockChannelResolver) Lookup(channelID string) (domain.CurationChannel, bool) {
	ch, ok := m.channels[channelID]
	return ch, ok
}

type mockReactorSource struct {
	reactorsFn    func(ctx context.Context, channelID, messageID, emojiName string) ([]domain.User, error)
	memberRolesFn func(ctx context.Context, userID string) ([]string, error)

	reactorCalls int
	roleCalls    int
}

func (m *mockReactorSource) Reactors(ctx context.Context, channelID, messageID, emojiName string) ([]domain.User, error) {
	m.reactorCalls++
	if m.reactorsFn != nil {
		return m.reactorsFn(ctx, channelID, messageID, emojiName)
	}
	return nil, nil
}

func (m *mockReactorSource) MemberRoles(ctx context.Context, userID string) ([]string, error) {
	m.roleCalls++
	if m.memberRolesFn != nil {
		return m.memberRolesFn(ctx, userID)
	}
	return nil, nil
}
