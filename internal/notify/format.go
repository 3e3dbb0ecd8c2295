// Package notify renders comment events into Telegram HTML messages.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/novikov-denis/yonote-tg-bot/internal/domain"
)

const (
	untitledDocument = "Untitled page"
	unknownActor     = "Unknown user"
	maxCommentRunes  = 200
)

// Timestamps are always rendered in Moscow time, matching the workspace UI.
var moscow = mustLocation("Europe/Moscow")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Formatter builds notification messages. It is a pure renderer: malformed
// or missing fields degrade to fallback literals, never to an error.
type Formatter struct {
	appBase string
}

// New creates a Formatter that links documents under the given app base URL.
func New(appBase string) *Formatter {
	return &Formatter{appBase: strings.TrimRight(appBase, "/")}
}

// Format renders one event/document pair. The timestamp is the formatting
// time, not the event's own time.
func (f *Formatter) Format(event domain.Event, doc domain.Document, now time.Time) string {
	title := doc.Title
	if title == "" {
		title = untitledDocument
	}
	actor := event.Actor.Name
	if actor == "" {
		actor = unknownActor
	}

	url := fmt.Sprintf("%s/doc/%s", f.appBase, doc.ID)
	stamp := now.In(moscow).Format("02.01.2006 15:04")

	var b strings.Builder
	fmt.Fprintf(&b, "📄 <b>%s</b>\n\n", title)
	fmt.Fprintf(&b, "👤 %s %s\n\n", actor, actionPhrase(event.Name))
	fmt.Fprintf(&b, "🕐 %s (MSK)\n\n", stamp)
	fmt.Fprintf(&b, "🔗 <a href=\"%s\">Open the page</a>", url)

	if body := event.Data.Data; body != "" {
		fmt.Fprintf(&b, "\n\n💬 <i>%s</i>", truncate(body, maxCommentRunes))
	}
	return b.String()
}

// actionPhrase maps an action tag to a verb phrase. First match wins;
// "create" takes precedence by check order.
func actionPhrase(name string) string {
	tag := strings.ToLower(name)
	switch {
	case strings.Contains(tag, "create"):
		return "created a comment"
	case strings.Contains(tag, "update"):
		return "updated a comment"
	case strings.Contains(tag, "delete"):
		return "deleted a comment"
	case strings.Contains(tag, "resolve"):
		return "changed a comment's status"
	default:
		return "did something with a comment"
	}
}

// truncate cuts s to max runes, appending an ellipsis marker only when
// something was actually cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
