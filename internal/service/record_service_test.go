package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/moodica/internal/db"
	"github.com/moodica/internal/schema"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubStore struct {
	created []any
	err     error
}

func (s *stubStore) Create(_ context.Context, collection string, record any) (db.Document, error) {
	if s.err != nil {
		return db.Document{}, s.err
	}
	s.created = append(s.created, record)
	return db.Document{ID: fmt.Sprintf("%s-%d", collection, len(s.created))}, nil
}

func (s *stubStore) List(context.Context, string, db.Filter, int) ([]db.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []db.Document{}, nil
}

func setupRecordTestStore(t *testing.T) (*db.Store, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:records-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	store, err := db.New(gdb)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store, func() { _ = store.Close() }
}

func TestRecordServiceCreateValidatesBeforeStore(t *testing.T) {
	stub := &stubStore{}
	svc := NewRecordService(stub)

	_, err := svc.Create(context.Background(), schema.KindMoodEntry, map[string]any{"mood": 11})
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(stub.created) != 0 {
		t.Fatalf("expected no store writes, got %d", len(stub.created))
	}
}

func TestRecordServiceCreateStampsMoodDate(t *testing.T) {
	stub := &stubStore{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewRecordService(stub).WithClock(func() time.Time { return now })

	doc, err := svc.Create(context.Background(), schema.KindMoodEntry, map[string]any{"mood": 4})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if doc.ID != "moodentry-1" {
		t.Fatalf("expected record in moodentry collection, got %s", doc.ID)
	}
	entry := stub.created[0].(schema.MoodEntry)
	if entry.Date == nil || !entry.Date.Equal(now) {
		t.Fatalf("expected date stamped with server time, got %v", entry.Date)
	}
}

func TestRecordServiceWrapsStoreErrors(t *testing.T) {
	svc := NewRecordService(&stubStore{err: db.ErrStoreUnavailable})

	if _, err := svc.Create(context.Background(), schema.KindWorry, map[string]any{"text": "x"}); !errors.Is(err, db.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from Create, got %v", err)
	}
	if _, err := svc.List(context.Background(), schema.KindWorry, 10); !errors.Is(err, db.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from List, got %v", err)
	}
	if _, err := svc.List(context.Background(), schema.Kind("nope"), 10); !errors.Is(err, schema.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRecordServiceListSortsMoodByDate(t *testing.T) {
	store, cleanup := setupRecordTestStore(t)
	defer cleanup()

	svc := NewRecordService(store)
	ctx := context.Background()

	// 写入顺序与日期顺序不一致
	dates := []string{"2025-01-02T00:00:00Z", "2025-01-03T00:00:00Z", "2025-01-01T00:00:00Z"}
	for i, date := range dates {
		if _, err := svc.Create(ctx, schema.KindMoodEntry, map[string]any{"mood": i + 1, "date": date}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	docs, err := svc.List(ctx, schema.KindMoodEntry, 30)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(docs))
	}

	want := []string{"2025-01-03T00:00:00Z", "2025-01-02T00:00:00Z", "2025-01-01T00:00:00Z"}
	for i, doc := range docs {
		if doc.Fields["date"] != want[i] {
			t.Fatalf("position %d: expected date %s, got %v", i, want[i], doc.Fields["date"])
		}
	}
}

func TestRecordServiceListLimit(t *testing.T) {
	store, cleanup := setupRecordTestStore(t)
	defer cleanup()

	svc := NewRecordService(store)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := svc.Create(ctx, schema.KindWorry, map[string]any{"text": fmt.Sprintf("worry %d", i)}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	docs, err := svc.List(ctx, schema.KindWorry, 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 worries, got %d", len(docs))
	}
}

func TestChatPersistsUserAndAssistantMessages(t *testing.T) {
	store, cleanup := setupRecordTestStore(t)
	defer cleanup()

	svc := NewRecordService(store)
	ctx := context.Background()

	docs, err := svc.Chat(ctx, map[string]any{"role": "user", "content": "I feel anxious"}, "session-conv")
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(docs))
	}
	if docs[0].Fields["role"] != "user" || docs[0].Fields["content"] != "I feel anxious" {
		t.Fatalf("unexpected user message: %v", docs[0].Fields)
	}
	if docs[1].Fields["role"] != "assistant" || docs[1].Fields["content"] != SupportiveReply {
		t.Fatalf("unexpected assistant message: %v", docs[1].Fields)
	}
	for _, doc := range docs {
		if doc.Fields["conversation_id"] != "session-conv" {
			t.Fatalf("expected session conversation id, got %v", doc.Fields["conversation_id"])
		}
	}

	stored, err := store.List(ctx, schema.KindChatMessage.Collection(), nil, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored chat messages, got %d", len(stored))
	}

	// 请求自带 conversation_id 时不被覆盖
	docs, err = svc.Chat(ctx, map[string]any{"role": "user", "content": "again", "conversation_id": "mine"}, "session-conv")
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if docs[1].Fields["conversation_id"] != "mine" {
		t.Fatalf("expected client conversation id to be kept, got %v", docs[1].Fields["conversation_id"])
	}
}

func TestChatRejectsInvalidMessage(t *testing.T) {
	stub := &stubStore{}
	svc := NewRecordService(stub)

	_, err := svc.Chat(context.Background(), map[string]any{"role": "bot", "content": "hi"}, "")
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(stub.created) != 0 {
		t.Fatal("expected nothing to be stored")
	}
}

func TestComplianceIsStatic(t *testing.T) {
	first := Compliance()
	second := Compliance()
	if first != second {
		t.Fatal("expected identical disclaimers")
	}
	if first.Medical == "" || first.Danger == "" || first.Advice == "" {
		t.Fatalf("expected all disclaimer fields to be set: %+v", first)
	}
}
