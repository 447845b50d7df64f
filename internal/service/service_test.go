package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tocafy/tocafy-server/internal/database"
	"github.com/tocafy/tocafy-server/internal/model"
	"github.com/tocafy/tocafy-server/internal/repository"
)

const (
	artist   = "artist-ana"
	stranger = "artist-bruno"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type eventLog struct {
	mu     sync.Mutex
	events []model.ChangeEvent
}

func (l *eventLog) Publish(_ context.Context, ev model.ChangeEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) snapshot() []model.ChangeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.ChangeEvent(nil), l.events...)
}

type fixture struct {
	*Services
	clock  *fakeClock
	events *eventLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, "sqlite3"))

	clock := &fakeClock{now: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)}
	events := &eventLog{}
	svcs := New(Options{
		DB:        db,
		Dialect:   repository.SQLite,
		Publisher: events,
		OpTimeout: 30 * time.Second,
		Clock:     clock.Now,
	})
	return &fixture{Services: svcs, clock: clock, events: events}
}

// liveShow creates a show owned by artist and starts it.
func (f *fixture) liveShow(t *testing.T, name string) *model.Show {
	t.Helper()
	ctx := context.Background()
	show, err := f.Shows.CreateShow(ctx, artist, NewShow{Name: name})
	require.NoError(t, err)
	show, err = f.Shows.Transition(ctx, show.ID, model.ShowLive, artist)
	require.NoError(t, err)
	return show
}

func (f *fixture) song(t *testing.T, owner, title, performer string) *model.Song {
	t.Helper()
	song, err := f.Songs.Create(context.Background(), owner, NewSong{Title: title, Artist: performer})
	require.NoError(t, err)
	return song
}

func (f *fixture) custom(t *testing.T, showID, requester string) *model.SongRequest {
	t.Helper()
	req, err := f.Queue.Submit(context.Background(), showID, Submission{
		RequesterName: requester, CustomTitle: "X", CustomArtist: "Y",
	})
	require.NoError(t, err)
	return req
}

// activePositions returns the positions of the show's active requests.
func (f *fixture) activePositions(t *testing.T, showID string) []int {
	t.Helper()
	reqs, err := f.Queue.ListForArtist(context.Background(), showID, artist)
	require.NoError(t, err)
	var out []int
	for _, r := range reqs {
		if !r.Status.Active() {
			require.Nil(t, r.Position, "request %s is %s but has a position", r.ID, r.Status)
			continue
		}
		require.NotNil(t, r.Position, "active request %s has no position", r.ID)
		out = append(out, *r.Position)
	}
	return out
}

func countStatus(reqs []*model.SongRequest, st model.RequestStatus) int {
	n := 0
	for _, r := range reqs {
		if r.Status == st {
			n++
		}
	}
	return n
}
