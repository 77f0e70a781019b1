// Package extract pulls the canonical link out of a message and derives the
// short source label shown in the record store.
package extract

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/protein/supplement-bot/internal/domain"
)

// linkPattern is deliberately permissive: http/https/ftp, with or without
// "//". Candidates are filtered by host afterwards since RE2 has no
// lookaheads to reject private addresses inline.
var linkPattern = regexp.MustCompile(`(?i)\b(?:https?|ftp):(?://)?[^\s<>"'` + "`" + `]+`)

// Link is a resolved reference carried by a message.
type Link struct {
	URL   string
	Title string
}

// FromMessage returns the canonical link for a message. A rendered embed
// wins: its url is the link and its title is taken verbatim. Otherwise the
// raw text is scanned and the first public-looking match is the link with an
// empty title. ok is false when the message carries no link at all; that is
// a disqualification signal, not an error.
func FromMessage(msg *domain.Message) (Link, bool) {
	for _, e := range msg.Embeds {
		if e.URL != "" {
			return Link{URL: e.URL, Title: e.Title}, true
		}
	}

	for _, candidate := range linkPattern.FindAllString(msg.Content, -1) {
		if host := hostname(candidate); host != "" && !hostLooksPrivate(host) {
			return Link{URL: candidate}, true
		}
	}

	return Link{}, false
}

// SourceLabel derives the short source name stored alongside a curation from
// its link. The truncation mirrors the reference bot and is pinned by tests:
// strip a leading "www.", split the hostname on ".", drop the trailing
// segment and label from the one in front of it. "blog.example.com" becomes
// "Example" and "www.example.co.uk" becomes "Co"; for a two-segment host the
// sole remaining segment is used, so "example.com" yields "Example" only by
// coincidence of segment count. Malformed links yield "".
func SourceLabel(link string) string {
	host := strings.TrimPrefix(hostname(link), "www.")
	if host == "" {
		return ""
	}

	segments := strings.Split(host, ".")
	label := segments[0]
	if len(segments) >= 2 {
		label = segments[len(segments)-2]
	}
	return upperFirst(label)
}

func hostname(link string) string {
	u, err := url.Parse(normalizeScheme(link))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// normalizeScheme inserts the "//" that scheme-only matches like
// "http:example.com" lack, so url.Parse sees a host instead of an opaque
// part.
func normalizeScheme(link string) string {
	if strings.Contains(link, "://") {
		return link
	}
	if i := strings.Index(link, ":"); i >= 0 {
		return link[:i+1] + "//" + link[i+1:]
	}
	return link
}

func hostLooksPrivate(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
	}
	return !strings.Contains(host, ".")
}

func upperFirst(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
