// Package store adapts the Airtable record store behind the narrow surfaces
// the reconciliation and backfill services consume.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mehanizm/airtable"

	"github.com/protein/supplement-bot/internal/domain"
)

// Config identifies the Airtable base and tables backing the record store.
type Config struct {
	APIKey          string
	BaseID          string
	SupplementTable string
	SharersTable    string
}

// Airtable is the record store adapter over both logical tables. The store
// has no native uniqueness constraint; idempotency is enforced upstream by
// the backfill coordinator's known-id check.
type Airtable struct {
	supplements *airtable.Table
	sharers     *airtable.Table
	logger      *slog.Logger
}

func NewAirtable(cfg Config, logger *slog.Logger) *Airtable {
	if logger == nil {
		logger = slog.Default()
	}
	client := airtable.NewClient(cfg.APIKey)
	return &Airtable{
		supplements: client.GetTable(cfg.BaseID, cfg.SupplementTable),
		sharers:     client.GetTable(cfg.BaseID, cfg.SharersTable),
		logger:      logger,
	}
}

// Validate probes both tables with the mapped column lists so a renamed or
// missing column fails at startup as a configuration error rather than as a
// silent lookup miss at runtime.
func (a *Airtable) Validate(ctx context.Context) error {
	if _, err := a.sharers.GetRecords().
		ReturnFields(sharerFields()...).
		MaxRecords(1).
		Do(); err != nil {
		return fmt.Errorf("sharers table schema check: %w", err)
	}
	if _, err := a.supplements.GetRecords().
		ReturnFields(curationQueryFields()...).
		MaxRecords(1).
		Do(); err != nil {
		return fmt.Errorf("supplement table schema check: %w", err)
	}
	return nil
}

// FindSharer looks up a sharer row by external (Discord) id. Returns
// ErrNotFound when no row matches.
func (a *Airtable) FindSharer(ctx context.Context, externalID string) (*domain.SharerRecord, error) {
	res, err := a.sharers.GetRecords().
		WithFilterFormula(equals(SharerFieldExternalID, externalID)).
		ReturnFields(sharerFields()...).
		MaxRecords(1).
		Do()
	if err != nil {
		return nil, fmt.Errorf("querying sharers: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, ErrNotFound
	}

	rec := res.Records[0]
	return &domain.SharerRecord{
		RecordID:   rec.ID,
		Handle:     fieldString(rec, SharerFieldHandle),
		ExternalID: fieldString(rec, SharerFieldExternalID),
	}, nil
}

// CreateSharer inserts a sharer row and returns it with the store-assigned
// record id.
func (a *Airtable) CreateSharer(ctx context.Context, handle, externalID string) (*domain.SharerRecord, error) {
	res, err := a.sharers.AddRecords(&airtable.Records{
		Records: []*airtable.Record{{
			Fields: map[string]any{
				SharerFieldHandle:     handle,
				SharerFieldExternalID: externalID,
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("creating sharer: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("creating sharer: store returned no record")
	}

	return &domain.SharerRecord{
		RecordID:   res.Records[0].ID,
		Handle:     handle,
		ExternalID: externalID,
	}, nil
}

// CreateCuration commits a payload as a supplement row and returns the
// store-assigned record id. Typecast is enabled so previously unseen
// Category values are created on the fly instead of rejected.
func (a *Airtable) CreateCuration(ctx context.Context, p domain.CurationPayload) (string, error) {
	res, err := a.supplements.AddRecords(&airtable.Records{
		Typecast: true,
		Records: []*airtable.Record{{
			Fields: map[string]any{
				CurationFieldTitle:     p.Title,
				CurationFieldLink:      p.Link,
				CurationFieldSharedBy:  []string{p.Sharer.RecordID},
				CurationFieldTaggedBy:  firstTaggerHandle(p),
				CurationFieldSent:      p.Timestamp.UTC().Format(time.RFC3339),
				CurationFieldMessage:   p.Comment,
				CurationFieldSource:    p.Source,
				CurationFieldCategory:  p.Channel,
				CurationFieldMessageID: p.ID,
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("creating curation record: %w", err)
	}
	if len(res.Records) == 0 {
		return "", fmt.Errorf("creating curation record: store returned no record")
	}
	return res.Records[0].ID, nil
}

// CurationsBetween lists committed rows whose Sent timestamp falls inside the
// window, bounded at limit rows.
func (a *Airtable) CurationsBetween(ctx context.Context, start, end time.Time, limit int) ([]domain.CurationRow, error) {
	res, err := a.supplements.GetRecords().
		WithFilterFormula(sentBetween(start, end)).
		ReturnFields(curationQueryFields()...).
		MaxRecords(limit).
		Do()
	if err != nil {
		return nil, fmt.Errorf("querying curation records: %w", err)
	}

	rows := make([]domain.CurationRow, 0, len(res.Records))
	for _, rec := range res.Records {
		rows = append(rows, domain.CurationRow{
			RecordID:  rec.ID,
			MessageID: fieldString(rec, CurationFieldMessageID),
			Title:     fieldString(rec, CurationFieldTitle),
		})
	}
	return rows, nil
}

func firstTaggerHandle(p domain.CurationPayload) string {
	if len(p.Taggers) == 0 {
		return ""
	}
	return p.Taggers[0].Handle
}

func fieldString(rec *airtable.Record, field string) string {
	if rec.Fields == nil {
		return ""
	}
	if v, ok := rec.Fields[field].(string); ok {
		return v
	}
	return ""
}
