// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package eventprocessor

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/blogflock/internal/database"
	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/metrics"
	"github.com/tomtom215/blogflock/internal/models"
	"github.com/tomtom215/blogflock/internal/websocket"
)

func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
	os.Exit(m.Run())
}

type postKey struct {
	blogID int64
	guid   string
}

// fakePostStore is an in-memory PostStore.
type fakePostStore struct {
	mu        sync.Mutex
	blogs     map[int64]bool
	posts     map[postKey]models.Post
	lists     map[int64][]models.List
	refreshed []time.Time
	nextID    int64

	findErr    error
	insertErr  error
	refreshErr error
	listsErr   error
	// raceInsert reports the row as already present on insert, as when a
	// concurrent worker wins.
	raceInsert bool
}

func newFakePostStore(blogIDs ...int64) *fakePostStore {
	s := &fakePostStore{
		blogs: make(map[int64]bool),
		posts: make(map[postKey]models.Post),
		lists: make(map[int64][]models.List),
	}
	for _, id := range blogIDs {
		s.blogs[id] = true
	}
	return s
}

func (s *fakePostStore) FindPost(ctx context.Context, blogID int64, guid string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	p, ok := s.posts[postKey{blogID, guid}]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &p, nil
}

func (s *fakePostStore) InsertPost(ctx context.Context, np models.NewPost) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, false, s.insertErr
	}
	if !s.blogs[np.BlogID] {
		return 0, false, &pq.Error{Code: "23503", Message: "violates foreign key constraint"}
	}
	if s.raceInsert {
		return 0, false, nil
	}
	key := postKey{np.BlogID, np.GUID}
	if _, ok := s.posts[key]; ok {
		return 0, false, nil
	}
	s.nextID++
	s.posts[key] = models.Post{
		ID:          s.nextID,
		BlogID:      np.BlogID,
		GUID:        np.GUID,
		Title:       np.Title,
		Content:     np.Content,
		URL:         np.URL,
		PublishedAt: np.PublishedAt,
	}
	return s.nextID, true, nil
}

func (s *fakePostStore) RefreshBlogStats(ctx context.Context, blogID int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshErr != nil {
		return s.refreshErr
	}
	s.refreshed = append(s.refreshed, now)
	return nil
}

func (s *fakePostStore) ListsContaining(ctx context.Context, blogID int64) ([]models.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listsErr != nil {
		return nil, s.listsErr
	}
	return s.lists[blogID], nil
}

func (s *fakePostStore) post(blogID int64, guid string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postKey{blogID, guid}]
	return p, ok
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls [][]models.List
}

func (b *fakeBroadcaster) BroadcastNewPosts(lists []models.List) websocket.BroadcastResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, lists)
	return websocket.BroadcastResult{Lists: len(lists)}
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestIngest(store *fakePostStore, b *fakeBroadcaster) *IngestHandler {
	h := NewIngestHandler(store, b, watermill.NopLogger{})
	h.SetClock(func() time.Time { return fixedNow })
	return h
}

func candidateMsg(payload string) *message.Message {
	return message.NewMessage(watermill.NewUUID(), []byte(payload))
}

func TestIngestNewPost(t *testing.T) {
	t.Parallel()

	store := newFakePostStore(1)
	store.lists[1] = []models.List{{ID: 10, HashID: "abcde"}, {ID: 11, HashID: "fghij"}}
	b := &fakeBroadcaster{}
	h := newTestIngest(store, b)

	err := h.Handle(candidateMsg(`{"blog_id":1,"title":"Hello","content":"c","url":"https://a.example/1","published_at":"2025-03-01T00:00:00Z","guid":"g1"}`))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	p, ok := store.post(1, "g1")
	if !ok {
		t.Fatal("post not stored")
	}
	if p.Title != "Hello" || p.URL != "https://a.example/1" {
		t.Errorf("stored post = %+v", p)
	}
	if !p.PublishedAt.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("PublishedAt = %v", p.PublishedAt)
	}
	if len(store.refreshed) != 1 || !store.refreshed[0].Equal(fixedNow) {
		t.Errorf("refreshed = %v, want [%v]", store.refreshed, fixedNow)
	}
	if b.count() != 1 || len(b.calls[0]) != 2 {
		t.Errorf("broadcasts = %v, want one call with two lists", b.calls)
	}
}

func TestIngestDuplicateRefreshesWithoutBroadcast(t *testing.T) {
	t.Parallel()

	store := newFakePostStore(1)
	store.lists[1] = []models.List{{ID: 10, HashID: "abcde"}}
	b := &fakeBroadcaster{}
	h := newTestIngest(store, b)

	payload := `{"blog_id":1,"title":"Hello","guid":"g1"}`
	for i := 0; i < 2; i++ {
		if err := h.Handle(candidateMsg(payload)); err != nil {
			t.Fatalf("Handle #%d: %v", i, err)
		}
	}

	if len(store.posts) != 1 {
		t.Errorf("stored %d posts, want 1", len(store.posts))
	}
	if len(store.refreshed) != 2 {
		t.Errorf("stats refreshed %d times, want 2", len(store.refreshed))
	}
	if b.count() != 1 {
		t.Errorf("broadcasts = %d, want 1", b.count())
	}
}

func TestIngestConcurrentInsertIsDuplicate(t *testing.T) {
	t.Parallel()

	store := newFakePostStore(1)
	store.raceInsert = true
	store.lists[1] = []models.List{{ID: 10}}
	b := &fakeBroadcaster{}
	h := newTestIngest(store, b)

	if err := h.Handle(candidateMsg(`{"blog_id":1,"guid":"g"}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if b.count() != 0 {
		t.Error("a lost insert race should not broadcast")
	}
	if len(store.refreshed) != 1 {
		t.Error("stats should still be refreshed")
	}
}

func TestIngestMalformedIsAcked(t *testing.T) {
	t.Parallel()

	store := newFakePostStore(1)
	h := newTestIngest(store, &fakeBroadcaster{})

	payloads := []string{
		`not json`,
		`{"title":"no blog"}`,
		`{"blog_id":"abc"}`,
		`{"blog_id":0}`,
	}
	for _, p := range payloads {
		if err := h.Handle(candidateMsg(p)); err != nil {
			t.Errorf("Handle(%q) = %v, want nil (ack)", p, err)
		}
	}
	if len(store.posts) != 0 || len(store.refreshed) != 0 {
		t.Error("malformed candidates must not touch the store")
	}
}

func TestIngestKeepsPostWithNonHTTPURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		payload  string
		wantGUID string
	}{
		{"relative url with guid", `{"blog_id":1,"guid":"abc","url":"/2024/hello","title":"Hello"}`, "abc"},
		{"unparseable url with guid", `{"blog_id":1,"guid":"abc","url":"::::","title":"Hello"}`, "abc"},
		{"relative url without guid", `{"blog_id":1,"url":"/2024/hello","title":"Hello"}`, EffectiveGUID(&CandidatePost{Title: "Hello"}, fixedNow)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFakePostStore(1)
			h := newTestIngest(store, &fakeBroadcaster{})

			if err := h.Handle(candidateMsg(tt.payload)); err != nil {
				t.Fatalf("Handle: %v", err)
			}
			p, ok := store.post(1, tt.wantGUID)
			if !ok {
				t.Fatalf("post with guid %q not stored", tt.wantGUID)
			}
			if p.URL != "" {
				t.Errorf("URL = %q, want blank", p.URL)
			}
			if p.Title != "Hello" {
				t.Errorf("Title = %q", p.Title)
			}
		})
	}
}

func TestIngestStringBlogID(t *testing.T) {
	t.Parallel()

	store := newFakePostStore(42)
	h := newTestIngest(store, &fakeBroadcaster{})

	if err := h.Handle(candidateMsg(`{"blog_id":"42","guid":"x"}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if _, ok := store.post(42, "x"); !ok {
		t.Error("post for string blog id not stored")
	}
}

func TestIngestGUIDFallbacks(t *testing.T) {
	t.Parallel()

	store := newFakePostStore(1)
	h := newTestIngest(store, &fakeBroadcaster{})

	if err := h.Handle(candidateMsg(`{"blog_id":1,"url":"https://a.example/p"}`)); err != nil {
		t.Fatalf("Handle url: %v", err)
	}
	if _, ok := store.post(1, "https://a.example/p"); !ok {
		t.Error("url should be used as guid")
	}

	if err := h.Handle(candidateMsg(`{"blog_id":1,"title":"Only title"}`)); err != nil {
		t.Fatalf("Handle title: %v", err)
	}
	want := EffectiveGUID(&CandidatePost{Title: "Only title"}, fixedNow)
	p, ok := store.post(1, want)
	if !ok {
		t.Fatal("hashed guid not stored")
	}
	if !p.PublishedAt.Equal(fixedNow) {
		t.Errorf("missing published_at should default to now, got %v", p.PublishedAt)
	}
}

func TestIngestUnknownBlogIsPermanent(t *testing.T) {
	t.Parallel()

	store := newFakePostStore()
	h := newTestIngest(store, &fakeBroadcaster{})

	err := h.Handle(candidateMsg(`{"blog_id":777,"guid":"g"}`))
	if !IsPermanentError(err) {
		t.Fatalf("error = %v, want PermanentError", err)
	}
	if len(store.refreshed) != 0 {
		t.Error("stats should not refresh for an unknown blog")
	}
}

func TestIngestStoreFailuresAreRetryable(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")

	tests := []struct {
		name  string
		setup func(*fakePostStore)
	}{
		{"find", func(s *fakePostStore) { s.findErr = boom }},
		{"insert", func(s *fakePostStore) { s.insertErr = boom }},
		{"refresh", func(s *fakePostStore) { s.refreshErr = boom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFakePostStore(1)
			tt.setup(store)
			h := newTestIngest(store, &fakeBroadcaster{})

			err := h.Handle(candidateMsg(`{"blog_id":1,"guid":"g"}`))
			if !IsRetryableError(err) {
				t.Fatalf("error = %v, want RetryableError", err)
			}
			if !errors.Is(err, boom) {
				t.Errorf("error should wrap cause, got %v", err)
			}
		})
	}
}

func TestIngestStatsFailureStillBroadcastsNewPost(t *testing.T) {
	t.Parallel()

	store := newFakePostStore(1)
	store.refreshErr = errors.New("stats down")
	store.lists[1] = []models.List{{ID: 10}}
	b := &fakeBroadcaster{}
	h := newTestIngest(store, b)

	if err := h.Handle(candidateMsg(`{"blog_id":1,"guid":"g"}`)); !IsRetryableError(err) {
		t.Fatalf("error = %v, want RetryableError", err)
	}
	if b.count() != 1 {
		t.Errorf("broadcasts = %d, want 1", b.count())
	}

	// The redelivery finds the post and only refreshes stats.
	store.mu.Lock()
	store.refreshErr = nil
	store.mu.Unlock()
	if err := h.Handle(candidateMsg(`{"blog_id":1,"guid":"g"}`)); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if b.count() != 1 {
		t.Errorf("broadcasts after redelivery = %d, want 1", b.count())
	}
}

func TestIngestFanoutFailureAcks(t *testing.T) {
	t.Parallel()

	store := newFakePostStore(1)
	store.listsErr = errors.New("lists query failed")
	b := &fakeBroadcaster{}
	h := newTestIngest(store, b)

	if err := h.Handle(candidateMsg(`{"blog_id":1,"guid":"g"}`)); err != nil {
		t.Fatalf("fan-out failure should ack, got %v", err)
	}
	if _, ok := store.post(1, "g"); !ok {
		t.Error("post should be stored despite fan-out failure")
	}
	if b.count() != 0 {
		t.Error("nothing should be broadcast")
	}
}

func TestIngestNoListsSkipsBroadcast(t *testing.T) {
	t.Parallel()

	store := newFakePostStore(1)
	b := &fakeBroadcaster{}
	h := newTestIngest(store, b)

	if err := h.Handle(candidateMsg(`{"blog_id":1,"guid":"g"}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if b.count() != 0 {
		t.Error("orphan blog should not broadcast")
	}
}

func TestIngestNilBroadcaster(t *testing.T) {
	t.Parallel()

	store := newFakePostStore(1)
	store.lists[1] = []models.List{{ID: 1}}
	h := NewIngestHandler(store, nil, nil)

	if err := h.Handle(candidateMsg(`{"blog_id":1,"guid":"g"}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestIngestMetrics(t *testing.T) {
	store := newFakePostStore(1)
	h := newTestIngest(store, &fakeBroadcaster{})

	newBefore := testutil.ToFloat64(metrics.IngestNewPosts)
	dupBefore := testutil.ToFloat64(metrics.IngestDuplicates)
	badBefore := testutil.ToFloat64(metrics.IngestMalformed)
	fkBefore := testutil.ToFloat64(metrics.IngestFailures.WithLabelValues("unknown_blog"))

	_ = h.Handle(candidateMsg(`{"blog_id":1,"guid":"m1"}`))
	_ = h.Handle(candidateMsg(`{"blog_id":1,"guid":"m1"}`))
	_ = h.Handle(candidateMsg(`garbage`))
	_ = h.Handle(candidateMsg(`{"blog_id":5,"guid":"m2"}`))

	if d := testutil.ToFloat64(metrics.IngestNewPosts) - newBefore; d != 1 {
		t.Errorf("new posts delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(metrics.IngestDuplicates) - dupBefore; d != 1 {
		t.Errorf("duplicates delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(metrics.IngestMalformed) - badBefore; d != 1 {
		t.Errorf("malformed delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(metrics.IngestFailures.WithLabelValues("unknown_blog")) - fkBefore; d != 1 {
		t.Errorf("unknown blog delta = %v, want 1", d)
	}
}
