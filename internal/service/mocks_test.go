package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/protein/supplement-bot/internal/curation"
	"github.com/protein/supplement-bot/internal/domain"
	"github.com/protein/supplement-bot/internal/store"
)

type mockSharerStore struct {
	findFn   func(ctx context.Context, externalID string) (*domain.SharerRecord, error)
	createFn func(ctx context.Context, handle, externalID string) (*domain.SharerRecord, error)

	mu      sync.Mutex
	created []domain.SharerRecord
}

func (m *mockSharerStore) FindSharer(ctx context.Context, externalID string) (*domain.SharerRecord, error) {
	if m.findFn != nil {
		return m.findFn(ctx, externalID)
	}
	return nil, store.ErrNotFound
}

func (m *mockSharerStore) CreateSharer(ctx context.Context, handle, externalID string) (*domain.SharerRecord, error) {
	if m.createFn != nil {
		return m.createFn(ctx, handle, externalID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := domain.SharerRecord{
		RecordID:   fmt.Sprintf("recSharer%d", len(m.created)+1),
		Handle:     handle,
		ExternalID: externalID,
	}
	m.created = append(m.created, rec)
	return &rec, nil
}

func (m *mockSharerStore) createdRecords() []domain.SharerRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SharerRecord(nil), m.created...)
}

type mockCurationStore struct {
	createFn  func(ctx context.Context, p domain.CurationPayload) (string, error)
	betweenFn func(ctx context.Context, start, end time.Time, limit int) ([]domain.CurationRow, error)

	mu        sync.Mutex
	committed []domain.CurationPayload
}

func (m *mockCurationStore) CreateCuration(ctx context.Context, p domain.CurationPayload) (string, error) {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, p)
	return fmt.Sprintf("recCuration%d", len(m.committed)), nil
}

func (m *mockCurationStore) CurationsBetween(ctx context.Context, start, end time.Time, limit int) ([]domain.CurationRow, error) {
	if m.betweenFn != nil {
		return m.betweenFn(ctx, start, end, limit)
	}
	return nil, nil
}

func (m *mockCurationStore) committedPayloads() []domain.CurationPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CurationPayload(nil), m.committed...)
}

type mockMessageSource struct {
	recentFn func(ctx context.Context, channelID string, limit int) ([]*domain.Message, error)
}

func (m *mockMessageSource) RecentMessages(ctx context.Context, channelID string, limit int) ([]*domain.Message, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, channelID, limit)
	}
	return nil, nil
}

type mockQualifier struct {
	qualifyFn func(ctx context.Context, msg *domain.Message) (*curation.Qualified, bool, error)
}

func (m *mockQualifier) Qualify(ctx context.Context, msg *domain.Message) (*curation.Qualified, bool, error) {
	if m.qualifyFn != nil {
		return m.qualifyFn(ctx, msg)
	}
	return nil, false, nil
}
