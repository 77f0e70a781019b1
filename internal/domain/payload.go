package domain

import "time"

// Sharer identifies the author of a curated message.
type Sharer struct {
	ExternalID string
	Handle     string
	RecordID   string // bound by reconciliation once resolved in the record store
}

// Tagger is an authorized user whose reaction marked a message for curation.
type Tagger struct {
	ExternalID string
	Handle     string
}

// Votes counts every curation-emoji reaction on a message, authorized or not.
type Votes struct {
	Count int
}

// CurationPayload is the canonical record extracted from a qualifying
// message. ID is the source message id and the sole deduplication key; Link
// is never empty and Taggers is never empty by the time a payload reaches
// reconciliation.
type CurationPayload struct {
	ID        string
	Title     string
	Link      string
	Comment   string
	Sharer    Sharer
	Source    string
	Channel   string
	Timestamp time.Time
	Taggers   []Tagger
	Votes     Votes
}

// SharerRecord is a resolved row of the sharers table.
type SharerRecord struct {
	RecordID   string
	ExternalID string
	Handle     string
}

// CurationRow is the projection of a committed curation record that backfill
// uses to detect already-synced messages. MessageID is empty for rows created
// outside the bot.
type CurationRow struct {
	RecordID  string
	MessageID string
	Title     string
}

// SyncReport tallies one backfill run. AlreadySynced and Synced are mutually
// exclusive per qualifying message.
type SyncReport struct {
	Channel       string
	Scanned       int
	Qualifying    int
	Synced        int
	AlreadySynced int
	Unrecognized  int
}
