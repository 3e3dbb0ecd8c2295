package domain

import "strings"

// Event is a single entry of the Yonote workspace event feed.
// The feed arrives newest-first; only the id is ever persisted (as the
// per-user cursor), the rest is consumed in flight.
type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"` // action tag, e.g. "comments.create"
	DocumentID string    `json:"documentId"`
	Actor      Actor     `json:"actor"`
	Data       EventData `json:"data"`
	CreatedAt  string    `json:"createdAt"`
}

// Actor is the workspace member who produced an event.
type Actor struct {
	Name string `json:"name"`
}

// EventData carries the optional comment body attached to comment events.
type EventData struct {
	Data string `json:"data"`
}

// Document is fetched on demand per notification, never cached.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Comment is an entry of a document's comment list.
type Comment struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// NewEventsSince returns the prefix of a newest-first event page that the
// user has not seen yet. Scanning stops at the element whose id equals
// lastID; that element and everything after it is already processed. An
// empty lastID marks a first run: the whole page counts as new, bounded by
// the fetch limit.
func NewEventsSince(lastID string, events []Event) []Event {
	var fresh []Event
	for _, e := range events {
		if lastID != "" && e.ID == lastID {
			break
		}
		fresh = append(fresh, e)
	}
	return fresh
}

// CommentMatch reports how an event's action tag was classified.
type CommentMatch int

const (
	MatchNone CommentMatch = iota
	MatchExact
	MatchFuzzy
)

// commentActions is the exact allowlist of known comment action tags.
var commentActions = map[string]struct{}{
	"comments.create":  {},
	"comments.update":  {},
	"comments.delete":  {},
	"comments.resolve": {},
	"comment.create":   {},
	"comment.update":   {},
	"comment.delete":   {},
	"comment.resolve":  {},
}

// MatchComment classifies an action tag in two tiers: the exact allowlist
// first, then a case-insensitive substring check that tolerates naming
// drift in the upstream feed. Fuzzy matches are reported separately so
// callers can log them.
func MatchComment(name string) CommentMatch {
	tag := strings.ToLower(name)
	if _, ok := commentActions[tag]; ok {
		return MatchExact
	}
	if strings.Contains(tag, "comment") {
		return MatchFuzzy
	}
	return MatchNone
}

// FilterCommentEvents keeps the events whose action tag is comment-related.
func FilterCommentEvents(events []Event) []Event {
	var out []Event
	for _, e := range events {
		if MatchComment(e.Name) != MatchNone {
			out = append(out, e)
		}
	}
	return out
}
