package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novikov-denis/yonote-tg-bot/internal/domain"
	"github.com/novikov-denis/yonote-tg-bot/internal/notify"
	"github.com/novikov-denis/yonote-tg-bot/internal/store"
)

// --- fakes ---

type fakeRepo struct {
	mu      sync.Mutex
	users   []domain.User
	cursors map[int64]string
	listErr error
}

func newFakeRepo(users ...domain.User) *fakeRepo {
	return &fakeRepo{users: users, cursors: make(map[int64]string)}
}

func (f *fakeRepo) ListUsers(context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.User(nil), f.users...), nil
}

func (f *fakeRepo) SetLastEventID(_ context.Context, id int64, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors[id] = eventID
	return nil
}

func (f *fakeRepo) cursor(id int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursors[id]
}

func (f *fakeRepo) UpsertToken(context.Context, int64, string) error { return nil }
func (f *fakeRepo) GetUser(context.Context, int64) (*domain.User, error) {
	return nil, store.ErrNotFound
}
func (f *fakeRepo) SetEnabled(context.Context, int64, bool) error { return nil }
func (f *fakeRepo) DeleteUser(context.Context, int64) error       { return nil }
func (f *fakeRepo) GetMuteUntil(context.Context, int64) (time.Time, error) {
	return time.Time{}, store.ErrNotFound
}
func (f *fakeRepo) UpsertMute(context.Context, int64, time.Time) error { return nil }
func (f *fakeRepo) DeleteMute(context.Context, int64) error            { return nil }
func (f *fakeRepo) Close() error                                       { return nil }

type fakeGate struct {
	muted map[int64]bool
	err   error
}

func (f *fakeGate) IsEnabled(_ context.Context, id int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return !f.muted[id], nil
}

type fakeClient struct {
	mu        sync.Mutex
	events    []domain.Event
	eventsErr error
	docs      map[string]domain.Document
	docErr    error
	closed    bool
}

func (f *fakeClient) Events(context.Context, int, int) ([]domain.Event, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events, nil
}

func (f *fakeClient) Document(_ context.Context, id string) (*domain.Document, error) {
	if f.docErr != nil {
		return nil, f.docErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, errors.New("no such document")
	}
	return &doc, nil
}

func (f *fakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type sent struct {
	chatID int64
	html   string
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []sent
}

func (f *fakeSender) SendNotification(chatID int64, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{chatID, html})
	return nil
}

func (f *fakeSender) sent() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.msgs...)
}

func newTestPoller(repo *fakeRepo, gate MuteGate, clients map[string]*fakeClient, sender *fakeSender) *Poller {
	factory := func(token string) WorkspaceClient { return clients[token] }
	return New(repo, gate, factory, sender,
		notify.New("https://app.yonote.ru"), zap.NewNop(), time.Minute, 20)
}

func user(id int64, token, cursor string) domain.User {
	return domain.User{TelegramID: id, YonoteToken: token, NotificationsEnabled: true, LastEventID: cursor}
}

func ev(id, name, docID string) domain.Event {
	return domain.Event{ID: id, Name: name, DocumentID: docID, Actor: domain.Actor{Name: "Bob"}}
}

// --- tests ---

func TestTick_CursorAndSingleNotification(t *testing.T) {
	repo := newFakeRepo(user(1, "tok", "E3"))
	client := &fakeClient{
		events: []domain.Event{
			ev("E5", "documents.update", "D5"),
			ev("E4", "comments.create", "D4"),
			ev("E3", "comments.create", "D3"),
			ev("E2", "comments.create", "D2"),
		},
		docs: map[string]domain.Document{"D4": {ID: "D4", Title: "Spec review"}},
	}
	sender := &fakeSender{}
	p := newTestPoller(repo, &fakeGate{}, map[string]*fakeClient{"tok": client}, sender)

	p.tick(context.Background())

	// Cursor advances to the newest fetched event even though it is not a
	// comment event.
	assert.Equal(t, "E5", repo.cursor(1))

	msgs := sender.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(1), msgs[0].chatID)
	assert.Contains(t, msgs[0].html, "Spec review")
	assert.True(t, client.isClosed())
}

func TestTick_FreshUserGetsWholePage(t *testing.T) {
	events := []domain.Event{
		ev("E20", "documents.update", "D1"),
		ev("E19", "comments.create", "D1"),
	}
	for i := 18; i >= 2; i-- {
		events = append(events, ev("E"+string(rune('0'+i/10))+string(rune('0'+i%10)), "documents.update", "D1"))
	}
	events = append(events, ev("E1", "comments.update", "D1"))
	require.Len(t, events, 20)

	repo := newFakeRepo(user(1, "tok", ""))
	client := &fakeClient{
		events: events,
		docs:   map[string]domain.Document{"D1": {ID: "D1", Title: "Notes"}},
	}
	sender := &fakeSender{}
	p := newTestPoller(repo, &fakeGate{}, map[string]*fakeClient{"tok": client}, sender)

	p.tick(context.Background())

	assert.Equal(t, "E20", repo.cursor(1))
	assert.Len(t, sender.sent(), 2)
}

func TestTick_NoNewEventsKeepsCursor(t *testing.T) {
	repo := newFakeRepo(user(1, "tok", "E5"))
	client := &fakeClient{events: []domain.Event{ev("E5", "comments.create", "D1")}}
	sender := &fakeSender{}
	p := newTestPoller(repo, &fakeGate{}, map[string]*fakeClient{"tok": client}, sender)

	p.tick(context.Background())

	assert.Empty(t, repo.cursor(1))
	assert.Empty(t, sender.sent())
	assert.True(t, client.isClosed())
}

func TestTick_SkipsDisabledAndMuted(t *testing.T) {
	disabled := user(1, "tok1", "")
	disabled.NotificationsEnabled = false
	muted := user(2, "tok2", "")
	unconnected := user(3, "", "")

	clients := map[string]*fakeClient{
		"tok1": {events: []domain.Event{ev("E1", "comments.create", "D1")}},
		"tok2": {events: []domain.Event{ev("E1", "comments.create", "D1")}},
	}
	repo := newFakeRepo(disabled, muted, unconnected)
	sender := &fakeSender{}
	p := newTestPoller(repo, &fakeGate{muted: map[int64]bool{2: true}}, clients, sender)

	p.tick(context.Background())

	assert.Empty(t, sender.sent())
	assert.Empty(t, repo.cursor(1))
	assert.Empty(t, repo.cursor(2))
}

func TestTick_PerUserIsolation(t *testing.T) {
	repo := newFakeRepo(user(1, "bad", ""), user(2, "good", ""))
	clients := map[string]*fakeClient{
		"bad": {eventsErr: errors.New("boom")},
		"good": {
			events: []domain.Event{ev("E1", "comments.create", "D1")},
			docs:   map[string]domain.Document{"D1": {ID: "D1", Title: "Plan"}},
		},
	}
	sender := &fakeSender{}
	p := newTestPoller(repo, &fakeGate{}, clients, sender)

	p.tick(context.Background())

	msgs := sender.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(2), msgs[0].chatID)
	assert.True(t, clients["bad"].isClosed())
	assert.True(t, clients["good"].isClosed())
}

func TestTick_DocumentFailureSkipsSingleEvent(t *testing.T) {
	repo := newFakeRepo(user(1, "tok", ""))
	client := &fakeClient{
		events: []domain.Event{
			ev("E3", "comments.create", "D-missing"),
			ev("E2", "comments.create", "D2"),
			ev("E1", "comments.create", ""), // no document id at all
		},
		docs: map[string]domain.Document{"D2": {ID: "D2", Title: "Kept"}},
	}
	sender := &fakeSender{}
	p := newTestPoller(repo, &fakeGate{}, map[string]*fakeClient{"tok": client}, sender)

	p.tick(context.Background())

	assert.Equal(t, "E3", repo.cursor(1))
	msgs := sender.sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].html, "Kept")
}

func TestTick_SkipsWhenCycleInFlight(t *testing.T) {
	repo := newFakeRepo(user(1, "tok", ""))
	client := &fakeClient{events: []domain.Event{ev("E1", "comments.create", "D1")}}
	sender := &fakeSender{}
	p := newTestPoller(repo, &fakeGate{}, map[string]*fakeClient{"tok": client}, sender)

	p.running.Store(true)
	p.tick(context.Background())
	assert.Empty(t, sender.sent())

	p.running.Store(false)
}

func TestTick_MuteGateErrorSkipsUser(t *testing.T) {
	repo := newFakeRepo(user(1, "tok", ""))
	client := &fakeClient{events: []domain.Event{ev("E1", "comments.create", "D1")}}
	sender := &fakeSender{}
	p := newTestPoller(repo, &fakeGate{err: errors.New("store down")}, map[string]*fakeClient{"tok": client}, sender)

	p.tick(context.Background())

	assert.Empty(t, sender.sent())
	assert.Empty(t, repo.cursor(1))
}
