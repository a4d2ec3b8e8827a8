package store

import (
	"context"
	"fmt"
	"maps"
	"math"
	"sort"
	"sync"

	"voicerag/types"
)

type memoryRecord struct {
	vector   []float32
	metadata map[string]any
}

// MemoryStore is an in-process VectorStorer ranking by cosine similarity.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

func (m *MemoryStore) Upsert(_ context.Context, id string, vector []float32, metadata map[string]any) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", types.ErrStoreWrite)
	}
	if len(vector) == 0 {
		return fmt.Errorf("%w: %s: empty vector", types.ErrStoreWrite, id)
	}

	vec := make([]float32, len(vector))
	copy(vec, vector)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = memoryRecord{vector: vec, metadata: maps.Clone(metadata)}
	return nil
}

func (m *MemoryStore) Query(_ context.Context, vector []float32, topK int) ([]types.RetrievalMatch, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", types.ErrStoreQuery)
	}
	if topK <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]types.RetrievalMatch, 0, len(m.records))
	for id, rec := range m.records {
		if len(rec.vector) != len(vector) {
			return nil, fmt.Errorf("%w: %s has %d dimensions, query has %d", types.ErrStoreQuery, id, len(rec.vector), len(vector))
		}
		matches = append(matches, types.RetrievalMatch{
			ID:       id,
			Score:    cosine(vector, rec.vector),
			Metadata: maps.Clone(rec.metadata),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len reports the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
