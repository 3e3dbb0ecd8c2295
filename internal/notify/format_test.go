package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/novikov-denis/yonote-tg-bot/internal/domain"
)

var testTime = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func event(name, body string) domain.Event {
	return domain.Event{
		ID:         "E1",
		Name:       name,
		DocumentID: "D1",
		Actor:      domain.Actor{Name: "Alice"},
		Data:       domain.EventData{Data: body},
	}
}

func TestFormat_Basic(t *testing.T) {
	f := New("https://app.yonote.ru")
	msg := f.Format(event("comments.create", "Looks good to me"), domain.Document{ID: "D1", Title: "Roadmap"}, testTime)

	assert.Contains(t, msg, "<b>Roadmap</b>")
	assert.Contains(t, msg, "Alice created a comment")
	assert.Contains(t, msg, `<a href="https://app.yonote.ru/doc/D1">`)
	assert.Contains(t, msg, "(MSK)")
	assert.Contains(t, msg, "<i>Looks good to me</i>")
	// 09:00 UTC is 12:00 in Moscow.
	assert.Contains(t, msg, "01.06.2025 12:00")
}

func TestFormat_VerbMapping(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"comments.create", "created a comment"},
		{"comments.update", "updated a comment"},
		{"comments.delete", "deleted a comment"},
		{"comments.resolve", "changed a comment's status"},
		{"commentThreads.ping", "did something with a comment"},
	}
	f := New("https://app.yonote.ru")
	for _, tt := range tests {
		msg := f.Format(event(tt.name, ""), domain.Document{ID: "D1", Title: "T"}, testTime)
		assert.Contains(t, msg, "Alice "+tt.want, "tag %q", tt.name)
	}
}

func TestFormat_Fallbacks(t *testing.T) {
	f := New("https://app.yonote.ru")
	e := event("comments.create", "")
	e.Actor.Name = ""

	msg := f.Format(e, domain.Document{ID: "D1"}, testTime)
	assert.Contains(t, msg, "<b>Untitled page</b>")
	assert.Contains(t, msg, "Unknown user created a comment")
	assert.NotContains(t, msg, "💬")
}

func TestFormat_TruncatesAt200(t *testing.T) {
	f := New("https://app.yonote.ru")

	exact := strings.Repeat("x", 200)
	msg := f.Format(event("comments.create", exact), domain.Document{ID: "D1", Title: "T"}, testTime)
	assert.Contains(t, msg, "<i>"+exact+"</i>")
	assert.NotContains(t, msg, "...")

	over := strings.Repeat("x", 201)
	msg = f.Format(event("comments.create", over), domain.Document{ID: "D1", Title: "T"}, testTime)
	assert.Contains(t, msg, "<i>"+strings.Repeat("x", 200)+"...</i>")
}

func TestTruncate_Runes(t *testing.T) {
	// Multi-byte text must be cut by runes, not bytes.
	long := strings.Repeat("ф", 250)
	got := truncate(long, 200)
	assert.Equal(t, strings.Repeat("ф", 200)+"...", got)
}
