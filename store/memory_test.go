package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerag/types"
)

var _ VectorStorer = (*MemoryStore)(nil)
var _ VectorStorer = (*PostgresStore)(nil)

func meta(text string) map[string]any {
	return map[string]any{types.MetaText: text, types.MetaSource: "doc.txt"}
}

func TestMemoryStoreQueryEmpty(t *testing.T) {
	s := NewMemoryStore()
	matches, err := s.Query(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryStoreUpsertIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "doc.txt_0", []float32{1, 0}, meta("first")))
	require.NoError(t, s.Upsert(ctx, "doc.txt_0", []float32{0, 1}, meta("second")))
	assert.Equal(t, 1, s.Len())

	matches, err := s.Query(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc.txt_0", matches[0].ID)
	assert.Equal(t, "second", matches[0].Metadata[types.MetaText])
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestMemoryStoreRanking(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "far", []float32{0, 1}, meta("far")))
	require.NoError(t, s.Upsert(ctx, "near", []float32{1, 0.1}, meta("near")))
	require.NoError(t, s.Upsert(ctx, "mid", []float32{1, 1}, meta("mid")))

	matches, err := s.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].ID)
	assert.Equal(t, "mid", matches[1].ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestMemoryStoreTiesOrderedByID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"b", "c", "a"} {
		require.NoError(t, s.Upsert(ctx, id, []float32{1, 0}, meta(id)))
	}

	matches, err := s.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	ids := []string{matches[0].ID, matches[1].ID, matches[2].ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestMemoryStoreCopiesMetadata(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	md := meta("original")
	require.NoError(t, s.Upsert(ctx, "x", []float32{1}, md))
	md[types.MetaText] = "changed"

	matches, err := s.Query(ctx, []float32{1}, 1)
	require.NoError(t, err)
	assert.Equal(t, "original", matches[0].Metadata[types.MetaText])
}

func TestMemoryStoreErrors(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	assert.True(t, errors.Is(s.Upsert(ctx, "", []float32{1}, nil), types.ErrStoreWrite))
	assert.True(t, errors.Is(s.Upsert(ctx, "x", nil, nil), types.ErrStoreWrite))

	_, err := s.Query(ctx, nil, 3)
	assert.True(t, errors.Is(err, types.ErrStoreQuery))

	require.NoError(t, s.Upsert(ctx, "x", []float32{1, 2, 3}, nil))
	_, err = s.Query(ctx, []float32{1, 2}, 3)
	assert.True(t, errors.Is(err, types.ErrStoreQuery))
}

func TestMemoryStoreConcurrentUpserts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Upsert(ctx, fmt.Sprintf("doc_%d", i%10), []float32{float32(i), 1}, meta("t"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, s.Len())
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "records", unquote(`"records"`))
	assert.Equal(t, "records", unquote("records"))
}
