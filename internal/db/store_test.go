package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveStoreOperation(collection, operation string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.calls = append(o.calls, fmt.Sprintf("%s/%s/%s", collection, operation, status))
}

type steppingClock struct {
	mu   sync.Mutex
	next time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Second)
	return now
}

func setupStoreTestDB(t *testing.T, opts ...Option) (*Store, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:store-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	store, err := New(gdb, opts...)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	return store, func() {
		_ = store.Close()
	}
}

func TestStoreCreateStampsEnvelope(t *testing.T) {
	clock := &steppingClock{next: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	store, cleanup := setupStoreTestDB(t, WithClock(clock.Now))
	defer cleanup()

	doc, err := store.Create(context.Background(), "worry", map[string]any{"text": "deadline", "intensity": 4, "id": "spoofed"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if doc.ID == "" || doc.ID == "spoofed" {
		t.Fatalf("expected generated id, got %q", doc.ID)
	}
	if !doc.CreatedAt.Equal(doc.UpdatedAt) {
		t.Fatalf("expected created_at == updated_at, got %v / %v", doc.CreatedAt, doc.UpdatedAt)
	}
	if !doc.CreatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected created_at %v", doc.CreatedAt)
	}

	docs, err := store.List(context.Background(), "worry", nil, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].ID != doc.ID {
		t.Fatalf("expected id %s, got %s", doc.ID, docs[0].ID)
	}
	if docs[0].Fields["text"] != "deadline" {
		t.Fatalf("unexpected text field %v", docs[0].Fields["text"])
	}
	if docs[0].Fields["intensity"] != json.Number("4") {
		t.Fatalf("expected intensity to round-trip as 4, got %#v", docs[0].Fields["intensity"])
	}
	if _, ok := docs[0].Fields["id"]; ok {
		t.Fatal("expected envelope keys to be stripped from the body")
	}
}

func TestStoreListOrdersNewestFirstAndLimits(t *testing.T) {
	clock := &steppingClock{next: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store, cleanup := setupStoreTestDB(t, WithClock(clock.Now))
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := store.Create(ctx, "worry", map[string]any{"text": fmt.Sprintf("worry-%d", i)}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	docs, err := store.List(ctx, "worry", Filter{}, 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Fields["text"] != "worry-4" || docs[1].Fields["text"] != "worry-3" {
		t.Fatalf("unexpected order: %v, %v", docs[0].Fields["text"], docs[1].Fields["text"])
	}

	all, err := store.List(ctx, "worry", nil, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected default limit to return all 5, got %d", len(all))
	}
}

func TestStoreListSameTimestampUsesInsertionOrder(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store, cleanup := setupStoreTestDB(t, WithClock(func() time.Time { return fixed }))
	defer cleanup()

	ctx := context.Background()
	for _, text := range []string{"first", "second"} {
		if _, err := store.Create(ctx, "worry", map[string]any{"text": text}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	docs, err := store.List(ctx, "worry", nil, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if docs[0].Fields["text"] != "second" {
		t.Fatalf("expected latest insert first, got %v", docs[0].Fields["text"])
	}
}

func TestStoreListFilter(t *testing.T) {
	store, cleanup := setupStoreTestDB(t)
	defer cleanup()

	ctx := context.Background()
	for _, status := range []string{"done", "skipped", "done"} {
		if _, err := store.Create(ctx, "habitlog", map[string]any{"habit_id": "h1", "status": status}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}
	if _, err := store.Create(ctx, "habitlog", map[string]any{"habit_id": "h2", "status": "done"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	docs, err := store.List(ctx, "habitlog", Filter{"habit_id": "h1", "status": "done"}, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 matching documents, got %d", len(docs))
	}

	byID, err := store.List(ctx, "habitlog", Filter{"id": docs[0].ID}, 10)
	if err != nil {
		t.Fatalf("List by id returned error: %v", err)
	}
	if len(byID) != 1 || byID[0].ID != docs[0].ID {
		t.Fatalf("expected lookup by id to return one document, got %d", len(byID))
	}

	if _, err := store.List(ctx, "habitlog", Filter{"bad key')": 1}, 10); !errors.Is(err, ErrStoreQuery) {
		t.Fatalf("expected ErrStoreQuery for invalid filter key, got %v", err)
	}
}

func TestStoreListUnknownCollectionIsEmpty(t *testing.T) {
	store, cleanup := setupStoreTestDB(t)
	defer cleanup()

	docs, err := store.List(context.Background(), "reflection", nil, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", docs)
	}
}

func TestStoreRejectsInvalidCollection(t *testing.T) {
	store, cleanup := setupStoreTestDB(t)
	defer cleanup()

	for _, name := range []string{"", "Mood", "mood; DROP TABLE x", "1mood"} {
		if _, err := store.Create(context.Background(), name, map[string]any{}); !errors.Is(err, ErrInvalidCollection) {
			t.Fatalf("collection %q: expected ErrInvalidCollection, got %v", name, err)
		}
	}
}

func TestStoreCreateRejectsNonObject(t *testing.T) {
	store, cleanup := setupStoreTestDB(t)
	defer cleanup()

	if _, err := store.Create(context.Background(), "worry", []string{"not", "an", "object"}); !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}
}

func TestStoreCollections(t *testing.T) {
	store, cleanup := setupStoreTestDB(t)
	defer cleanup()

	ctx := context.Background()
	for _, name := range []string{"worry", "moodentry", "habit"} {
		if _, err := store.Create(ctx, name, map[string]any{"k": "v"}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	names, err := store.Collections(ctx, 2)
	if err != nil {
		t.Fatalf("Collections returned error: %v", err)
	}
	if len(names) != 2 || names[0] != "habit" || names[1] != "moodentry" {
		t.Fatalf("unexpected collections: %v", names)
	}
}

func TestUnavailableStore(t *testing.T) {
	observer := &recordingObserver{}
	store := Unavailable(WithObserver(observer))
	ctx := context.Background()

	if store.Available() {
		t.Fatal("expected degraded store")
	}
	if _, err := store.Create(ctx, "moodentry", map[string]any{"mood": 5}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from Create, got %v", err)
	}
	if _, err := store.List(ctx, "moodentry", nil, 10); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from List, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from Ping, got %v", err)
	}
	if _, err := store.Collections(ctx, 10); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from Collections, got %v", err)
	}
	if len(observer.calls) != 2 || observer.calls[0] != "moodentry/create/error" {
		t.Fatalf("unexpected observed calls: %v", observer.calls)
	}

	var nilStore *Store
	if _, err := nilStore.List(ctx, "moodentry", nil, 10); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected nil store to be unavailable, got %v", err)
	}
}

func TestStoreConcurrentCreates(t *testing.T) {
	store, cleanup := setupStoreTestDB(t)
	defer cleanup()

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Create(ctx, "moodentry", map[string]any{"mood": i%10 + 1}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Create returned error: %v", err)
	}

	docs, err := store.List(ctx, "moodentry", nil, 100)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(docs) != 10 {
		t.Fatalf("expected 10 documents, got %d", len(docs))
	}
}

func TestDocumentMarshalJSON(t *testing.T) {
	created := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	doc := Document{
		ID:        "abc",
		CreatedAt: created,
		UpdatedAt: created,
		Fields:    map[string]any{"mood": json.Number("7"), "date": "2025-02-01T00:00:00Z"},
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	want := `{"created_at":"2025-02-03T04:05:06Z","date":"2025-02-01T00:00:00Z","id":"abc","mood":7,"updated_at":"2025-02-03T04:05:06Z"}`
	if string(raw) != want {
		t.Fatalf("unexpected JSON:\n got %s\nwant %s", raw, want)
	}

	if got := doc.SortTime("date"); !got.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected sort time from date field, got %v", got)
	}
	if got := doc.SortTime("missing"); !got.Equal(created) {
		t.Fatalf("expected fallback to created_at, got %v", got)
	}
}
