package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-agent/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "data", "research.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)

	var n int
	require.NoError(t, s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reports'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research.db")
	s1, err := Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, s1.Append(context.Background(), types.StoredReport{ID: "a", Query: "q", Report: "r", Timestamp: base}))
	require.NoError(t, s1.Close())

	s2, err := Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAppendAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := types.StoredReport{ID: "run-1", Query: "go generics", Report: "- finding", Timestamp: base.Add(123 * time.Millisecond)}

	require.NoError(t, s.Append(ctx, want))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Query, got.Query)
	assert.Equal(t, want.Report, got.Report)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
}

func TestAppendFillsIDAndTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, types.StoredReport{Query: "q", Report: "r"}))

	got, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.WithinDuration(t, time.Now(), got[0].Timestamp, time.Minute)
}

func TestAppendDuplicateIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := types.StoredReport{ID: "dup", Query: "q", Report: "r", Timestamp: base}

	require.NoError(t, s.Append(ctx, r))
	assert.Error(t, s.Append(ctx, r))
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Inserted out of order, with a non-UTC zone and sub-second spacing.
	east := time.FixedZone("east", 3*3600)
	inputs := []types.StoredReport{
		{ID: "middle", Query: "q2", Report: "r2", Timestamp: base.Add(time.Second)},
		{ID: "oldest", Query: "q1", Report: "r1", Timestamp: base},
		{ID: "newest", Query: "q3", Report: "r3", Timestamp: base.Add(1500 * time.Millisecond).In(east)},
	}
	for _, r := range inputs {
		require.NoError(t, s.Append(ctx, r))
	}

	got, err := s.List(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"newest", "middle", "oldest"}, ids)

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, "newest", limited[0].ID)
}

func TestListEmpty(t *testing.T) {
	got, err := openTestStore(t).List(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestConcurrentAppend(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, types.StoredReport{
				Query:     "q",
				Report:    "r",
				Timestamp: base.Add(time.Duration(i) * time.Second),
			}))
		}()
	}
	wg.Wait()

	got, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}
