package store

import (
	"fmt"
	"strings"
	"time"
)

// Column names of the two Airtable tables, logical field → store column in
// one place. Lookups against the store go through these constants only, so a
// renamed column fails the startup probe instead of silently reading empty
// values.
const (
	SharerFieldHandle     = "Discord handle"
	SharerFieldExternalID = "Discord ID"

	CurationFieldTitle     = "Title"
	CurationFieldLink      = "Link"
	CurationFieldSharedBy  = "Shared by"
	CurationFieldTaggedBy  = "Tagged by"
	CurationFieldSent      = "Sent"
	CurationFieldMessage   = "Message"
	CurationFieldSource    = "Source"
	CurationFieldCategory  = "Category"
	CurationFieldMessageID = "[BOT] Discord Message Id"
)

func sharerFields() []string {
	return []string{SharerFieldHandle, SharerFieldExternalID}
}

// curationQueryFields is the projection backfill reads; writes use the full
// column set in CreateCuration.
func curationQueryFields() []string {
	return []string{CurationFieldTitle, CurationFieldMessageID}
}

// equals builds an Airtable formula matching a column against a string value.
func equals(column, value string) string {
	return fmt.Sprintf(`{%s} = "%s"`, column, escapeFormulaValue(value))
}

// sentBetween builds the window formula used by backfill: rows whose Sent
// timestamp is strictly inside (start, end).
func sentBetween(start, end time.Time) string {
	return fmt.Sprintf(`AND(IS_AFTER({%s}, "%s"), IS_BEFORE({%s}, "%s"))`,
		CurationFieldSent, start.UTC().Format(time.RFC3339),
		CurationFieldSent, end.UTC().Format(time.RFC3339))
}

func escapeFormulaValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}
