// Package history keeps a diagnostic log of every request the runners issue.
// It is the only place the raw failure detail is stored; views never read it.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

const DefaultListLimit = 50

type Attempt struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Session    string    `gorm:"size:32;index" json:"session"`
	Endpoint   string    `gorm:"size:16" json:"endpoint"`
	Seq        uint64    `json:"seq"`
	Outcome    string    `gorm:"size:16" json:"outcome"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	StartedAt  time.Time `gorm:"index" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (a Attempt) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}

// Age renders FinishedAt relative to now, e.g. "3 minutes ago".
func (a Attempt) Age(now time.Time) string {
	return humanize.RelTime(a.FinishedAt, now, "ago", "from now")
}

type Store struct {
	db *gorm.DB
}

// Open connects to postgres and migrates the attempts table.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("history: empty dsn")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	return New(db)
}

// New wraps an existing connection. Any gorm dialect works.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Attempt{}); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Record(ctx context.Context, a Attempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// List returns the newest attempts for session first.
func (s *Store) List(ctx context.Context, session string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var out []Attempt
	err := s.db.WithContext(ctx).
		Where("session = ?", session).
		Order("started_at desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
