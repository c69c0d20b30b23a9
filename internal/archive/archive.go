package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/tierlist-backend/internal/engine"
	"github.com/DoyleJ11/tierlist-backend/internal/session"
)

// Record is one finished session. Items and Results are stored as JSON.
type Record struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Items      string    `gorm:"type:text;not null"`
	Results    string    `gorm:"type:text;not null"`
	ItemCount  int       `gorm:"not null"`
	FinishedAt time.Time `gorm:"index;not null"`
}

func (Record) TableName() string { return "session_results" }

func NewRecord(s session.Summary) (Record, error) {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return Record{}, fmt.Errorf("encode items: %w", err)
	}
	results, err := json.Marshal(s.Results)
	if err != nil {
		return Record{}, fmt.Errorf("encode results: %w", err)
	}
	return Record{
		ID:         uuid.NewString(),
		Items:      string(items),
		Results:    string(results),
		ItemCount:  len(s.Items),
		FinishedAt: s.FinishedAt,
	}, nil
}

// Summary decodes the record back into a session summary.
func (r Record) Summary() (session.Summary, error) {
	var s session.Summary
	if err := json.Unmarshal([]byte(r.Items), &s.Items); err != nil {
		return session.Summary{}, fmt.Errorf("decode items: %w", err)
	}
	s.Results = engine.NewTierResults()
	if err := json.Unmarshal([]byte(r.Results), &s.Results); err != nil {
		return session.Summary{}, fmt.Errorf("decode results: %w", err)
	}
	s.FinishedAt = r.FinishedAt
	return s, nil
}

// Store writes finished sessions to postgres.
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, sum session.Summary) error {
	rec, err := NewRecord(sum)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	var recs []Record
	err := s.db.WithContext(ctx).Order("finished_at desc").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return recs, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Memory keeps records in process. Used when no database is configured.
type Memory struct {
	mu   sync.Mutex
	recs []Record
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Save(_ context.Context, sum session.Summary) error {
	rec, err := NewRecord(sum)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, limit)
	for i := len(m.recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.recs[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
