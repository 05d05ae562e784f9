package history

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// one connection, or every new one gets its own empty in-memory db
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, a := range []Attempt{
		{Session: "ABC123", Endpoint: "health", Seq: 1, Outcome: OutcomeSuccess, HTTPStatus: 200},
		{Session: "ABC123", Endpoint: "hello", Seq: 2, Outcome: OutcomeError, Detail: "connection refused"},
		{Session: "OTHER1", Endpoint: "hello", Seq: 1, Outcome: OutcomeSuccess, HTTPStatus: 200},
	} {
		a.StartedAt = base.Add(time.Duration(i) * time.Second)
		a.FinishedAt = a.StartedAt.Add(100 * time.Millisecond)
		require.NoError(t, s.Record(ctx, a))
	}

	got, err := s.List(ctx, "ABC123", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// newest first
	assert.Equal(t, uint64(2), got[0].Seq)
	assert.Equal(t, OutcomeError, got[0].Outcome)
	assert.Equal(t, "connection refused", got[0].Detail)
	assert.Equal(t, uint64(1), got[1].Seq)
	assert.Equal(t, 200, got[1].HTTPStatus)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.Equal(t, 100*time.Millisecond, got[0].Duration())

	limited, err := s.List(ctx, "ABC123", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, uint64(2), limited[0].Seq)

	none, err := s.List(ctx, "NOPE00", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_RecordKeepsGivenID(t *testing.T) {
	s := newStore(t)
	id := uuid.New()

	require.NoError(t, s.Record(context.Background(), Attempt{ID: id, Session: "S", StartedAt: time.Now()}))
	got, err := s.List(context.Background(), "S", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
}

func TestAttempt_Age(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	a := Attempt{FinishedAt: now.Add(-3 * time.Minute)}
	assert.Equal(t, "3 minutes ago", a.Age(now))
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
