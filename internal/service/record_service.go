package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/moodica/internal/db"
	"github.com/moodica/internal/schema"
)

// DocumentStore 是 RecordService 依赖的存储能力，*db.Store 实现该接口。
type DocumentStore interface {
	Create(ctx context.Context, collection string, record any) (db.Document, error)
	List(ctx context.Context, collection string, filter db.Filter, limit int) ([]db.Document, error)
}

// RecordService 负责所有记录类型的"校验 → 写入"与"查询 → 排序"流程。
// 各记录类型共用同一套实现，差异只来自 schema 注册表。
type RecordService struct {
	store DocumentStore
	now   func() time.Time
}

// NewRecordService 构造 RecordService。
func NewRecordService(store DocumentStore) *RecordService {
	return &RecordService{store: store, now: time.Now}
}

// WithClock overrides the clock used for server-side defaults.
func (s *RecordService) WithClock(now func() time.Time) *RecordService {
	if now != nil {
		s.now = now
	}
	return s
}

// Create 校验 payload 并写入对应集合；校验失败时不会访问存储。
func (s *RecordService) Create(ctx context.Context, kind schema.Kind, payload map[string]any) (db.Document, error) {
	record, err := schema.Validate(kind, payload, s.now().UTC())
	if err != nil {
		return db.Document{}, err
	}

	doc, err := s.store.Create(ctx, kind.Collection(), record)
	if err != nil {
		return db.Document{}, fmt.Errorf("create %s: %w", kind, err)
	}
	return doc, nil
}

// List 返回最近的 limit 条记录，并按该类型的语义日期字段倒序重排。
func (s *RecordService) List(ctx context.Context, kind schema.Kind, limit int) ([]db.Document, error) {
	if !kind.Known() {
		return nil, fmt.Errorf("%w: %q", schema.ErrUnknownKind, kind)
	}

	docs, err := s.store.List(ctx, kind.Collection(), db.Filter{}, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	field := kind.SortField()
	slices.SortStableFunc(docs, func(a, b db.Document) int {
		return b.SortTime(field).Compare(a.SortTime(field))
	})
	return docs, nil
}
