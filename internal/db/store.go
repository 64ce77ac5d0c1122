package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrStoreUnavailable 在启动时未能建立数据库连接（降级模式）时返回
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStoreWrite 在连接正常但写入失败时返回
	ErrStoreWrite = errors.New("store write failed")
	// ErrStoreQuery 在连接正常但查询失败时返回
	ErrStoreQuery = errors.New("store query failed")
	// ErrInvalidCollection 在集合名不合法时返回
	ErrInvalidCollection = errors.New("invalid collection name")
)

// DefaultListLimit 是 List 未指定 limit 时的返回上限。
const DefaultListLimit = 100

var (
	collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)
	fieldPattern      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Filter 是字段相等匹配条件，空 Filter 匹配全部文档。
type Filter map[string]any

// Observer receives the outcome of every store operation.
type Observer interface {
	ObserveStoreOperation(collection, operation string, err error)
}

// documentRow 是每个集合表的行结构：信封字段独立成列，业务字段以 JSON 存入 body。
type documentRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Body      string    `gorm:"type:text;not null"`
}

// Store 是唯一直接访问文档存储的组件。
// 零值或 nil 的 Store 处于降级模式，所有数据操作返回 ErrStoreUnavailable。
type Store struct {
	db       *gorm.DB
	logger   *zap.Logger
	observer Observer
	now      func() time.Time

	migrateMu sync.Mutex
	ensured   sync.Map
}

// Option 调整 Store 的可选依赖。
type Option func(*Store)

// WithLogger 设置失败日志输出。
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver 设置操作结果观察者（用于指标统计）。
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func newStore(gdb *gorm.DB, opts ...Option) *Store {
	s := &Store{db: gdb, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open 打开 sqlite 数据库并确认连接可用。
func Open(dsn string, opts ...Option) (*Store, error) {
	path := strings.TrimSpace(dsn)
	if path == "" {
		path = "moodica.db"
	}

	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite 只允许单写者，串行化连接避免 database is locked。
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	return New(gdb, opts...)
}

// New wraps an existing gorm handle and pings it.
func New(gdb *gorm.DB, opts ...Option) (*Store, error) {
	if gdb == nil {
		return nil, ErrStoreUnavailable
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return newStore(gdb, opts...), nil
}

// Unavailable 返回降级模式的 Store。
func Unavailable(opts ...Option) *Store {
	return newStore(nil, opts...)
}

// Available reports whether a connection was established.
func (s *Store) Available() bool {
	return s != nil && s.db != nil
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping 检查数据库连通性。
func (s *Store) Ping(ctx context.Context) error {
	if !s.Available() {
		return ErrStoreUnavailable
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreQuery, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreQuery, err)
	}
	return nil
}

// Create 写入一条文档：补齐 created_at/updated_at，生成 id，返回写入后的文档。
func (s *Store) Create(ctx context.Context, collection string, record any) (doc Document, err error) {
	defer func() { s.observe(collection, "create", err) }()

	if !s.Available() {
		return Document{}, ErrStoreUnavailable
	}
	if err := validateCollection(collection); err != nil {
		return Document{}, err
	}

	fields, body, err := encodeBody(record)
	if err != nil {
		return Document{}, fmt.Errorf("%w: encode %s: %w", ErrStoreWrite, collection, err)
	}

	if err := s.ensureCollection(ctx, collection); err != nil {
		return Document{}, fmt.Errorf("%w: prepare %s: %w", ErrStoreWrite, collection, err)
	}

	now := s.now().UTC()
	row := documentRow{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Body:      body,
	}
	if err := s.db.WithContext(ctx).Table(collection).Create(&row).Error; err != nil {
		return Document{}, fmt.Errorf("%w: insert into %s: %w", ErrStoreWrite, collection, err)
	}

	return Document{ID: row.ID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt, Fields: fields}, nil
}

// List 按 created_at 倒序返回至多 limit 条匹配 filter 的文档。
func (s *Store) List(ctx context.Context, collection string, filter Filter, limit int) (docs []Document, err error) {
	defer func() { s.observe(collection, "list", err) }()

	if !s.Available() {
		return nil, ErrStoreUnavailable
	}
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	exists, err := s.hasCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: inspect %s: %w", ErrStoreQuery, collection, err)
	}
	if !exists {
		return []Document{}, nil
	}

	query := s.db.WithContext(ctx).Table(collection)
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		value := filter[key]
		if key == "id" {
			query = query.Where("id = ?", value)
			continue
		}
		if !fieldPattern.MatchString(key) {
			return nil, fmt.Errorf("%w: invalid filter field %q", ErrStoreQuery, key)
		}
		query = query.Where("json_extract(body, ?) = ?", "$."+key, value)
	}

	var rows []documentRow
	if err := query.Order("created_at DESC").Order("rowid DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrStoreQuery, collection, err)
	}

	docs = make([]Document, 0, len(rows))
	for _, row := range rows {
		fields, err := decodeBody(row.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s/%s: %w", ErrStoreQuery, collection, row.ID, err)
		}
		docs = append(docs, Document{ID: row.ID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt, Fields: fields})
	}
	return docs, nil
}

// Collections 返回已存在的集合名（按名称排序，至多 limit 个）。
func (s *Store) Collections(ctx context.Context, limit int) ([]string, error) {
	if !s.Available() {
		return nil, ErrStoreUnavailable
	}
	tables, err := s.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("%w: list collections: %w", ErrStoreQuery, err)
	}

	names := make([]string, 0, len(tables))
	for _, table := range tables {
		if strings.HasPrefix(table, "sqlite_") {
			continue
		}
		names = append(names, table)
	}
	slices.Sort(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (s *Store) ensureCollection(ctx context.Context, collection string) error {
	if _, ok := s.ensured.Load(collection); ok {
		return nil
	}

	s.migrateMu.Lock()
	defer s.migrateMu.Unlock()
	if _, ok := s.ensured.Load(collection); ok {
		return nil
	}

	tx := s.db.WithContext(ctx)
	if err := tx.Table(collection).AutoMigrate(&documentRow{}); err != nil {
		return err
	}
	// 索引名在 sqlite 中全局唯一，因此按集合名单独创建。
	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at)", collection, collection)
	if err := tx.Exec(stmt).Error; err != nil {
		return err
	}

	s.ensured.Store(collection, struct{}{})
	return nil
}

func (s *Store) hasCollection(ctx context.Context, collection string) (bool, error) {
	if _, ok := s.ensured.Load(collection); ok {
		return true, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Raw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", collection).
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) observe(collection, operation string, err error) {
	if s == nil {
		return
	}
	if err != nil && !errors.Is(err, ErrStoreUnavailable) {
		s.logger.Warn("store operation failed",
			zap.String("collection", collection),
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	if s.observer != nil {
		s.observer.ObserveStoreOperation(collection, operation, err)
	}
}

func validateCollection(name string) error {
	if !collectionPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}

func encodeBody(record any) (map[string]any, string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, "", err
	}
	fields, err := decodeBody(string(raw))
	if err != nil {
		return nil, "", err
	}
	for _, key := range envelopeFields {
		delete(fields, key)
	}
	normalized, err := json.Marshal(fields)
	if err != nil {
		return nil, "", err
	}
	return fields, string(normalized), nil
}

func decodeBody(body string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("document body must be a JSON object")
	}
	return fields, nil
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, ":memory:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
