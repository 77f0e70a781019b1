package curation

import (
	"github.com/protein/supplement-bot/internal/domain"
	"github.com/protein/supplement-bot/internal/extract"
)

// BuildPayload assembles the canonical curation record from a qualifying
// message. Pure and deterministic: no fetches, no writes. Taggers lists
// authorized reactors only, while Votes.Count is the total reaction count for
// the curation emoji regardless of authorization.
func BuildPayload(q *Qualified) domain.CurationPayload {
	taggers := make([]domain.Tagger, 0, len(q.Taggers))
	for _, u := range q.Taggers {
		taggers = append(taggers, domain.Tagger{ExternalID: u.ID, Handle: u.Handle})
	}

	return domain.CurationPayload{
		ID:      q.Message.ID,
		Title:   q.Link.Title,
		Link:    q.Link.URL,
		Comment: q.Message.Content,
		Sharer: domain.Sharer{
			ExternalID: q.Message.Author.ID,
			Handle:     q.Message.Author.Handle,
		},
		Source:    extract.SourceLabel(q.Link.URL),
		Channel:   q.Channel.Name,
		Timestamp: q.Message.CreatedAt,
		Taggers:   taggers,
		Votes:     domain.Votes{Count: q.VoteCount},
	}
}
