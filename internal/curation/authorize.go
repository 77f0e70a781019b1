package curation

import "strings"

// Wildcard authorizes every member, including members holding no roles.
const Wildcard = "*"

// Authorizer decides whether a member's roles permit tagging curations.
// It is a pure predicate over a configured allow-list.
type Authorizer struct {
	wildcard bool
	allowed  map[string]struct{}
}

// NewAuthorizer parses a comma-separated role-id allow-list. The Wildcard
// sentinel anywhere in the list authorizes everyone.
func NewAuthorizer(allowList string) *Authorizer {
	a := &Authorizer{allowed: make(map[string]struct{})}
	for _, id := range strings.Split(allowList, ",") {
		id = strings.TrimSpace(id)
		switch id {
		case "":
		case Wildcard:
			a.wildcard = true
		default:
			a.allowed[id] = struct{}{}
		}
	}
	return a
}

// Allows reports whether a member holding the given roles may tag curations.
func (a *Authorizer) Allows(roleIDs []string) bool {
	if a.wildcard {
		return true
	}
	for _, id := range roleIDs {
		if _, ok := a.allowed[id]; ok {
			return true
		}
	}
	return false
}

// AllowsAll reports whether the allow-list is the wildcard sentinel, in
// which case role lookups can be skipped entirely.
func (a *Authorizer) AllowsAll() bool {
	return a.wildcard
}
