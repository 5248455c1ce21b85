package vector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kontext-dev/kontext/internal/domain"
)

// Entry pairs a unit id with its embedding.
type Entry struct {
	ID        string
	Embedding []float32
}

// Match is one search hit with its rescaled similarity score.
type Match struct {
	ID    string
	Score float64
}

// Stats describes the index for the health endpoint.
type Stats struct {
	Size       int   `json:"size"`
	Dimensions int   `json:"dimensions"`
	Bytes      int64 `json:"estimated_bytes"`
}

// Index is a flat in-memory similarity index. Search scans every entry;
// at the intended scale (thousands of units per project) a linear scan is
// faster than maintaining an ANN structure. Updates replace an existing
// entry in place so the index never holds two vectors for one id.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	entries    []Entry
	byID       map[string]int
}

// NewIndex creates an empty index for vectors of the given width.
func NewIndex(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		byID:       make(map[string]int),
	}
}

// Upsert adds an entry or replaces the vector stored for its id.
func (ix *Index) Upsert(id string, embedding []float32) error {
	if len(embedding) != ix.dimensions {
		return fmt.Errorf("%w: index holds %d, got %d", domain.ErrDimensionMismatch, ix.dimensions, len(embedding))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if pos, ok := ix.byID[id]; ok {
		ix.entries[pos].Embedding = embedding
		return nil
	}
	ix.byID[id] = len(ix.entries)
	ix.entries = append(ix.entries, Entry{ID: id, Embedding: embedding})
	return nil
}

// Rebuild atomically replaces the whole index content, e.g. after loading
// persisted embeddings at startup. Entries with a wrong width are rejected
// as a whole; the previous content stays in place.
func (ix *Index) Rebuild(entries []Entry) error {
	byID := make(map[string]int, len(entries))
	fresh := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if len(e.Embedding) != ix.dimensions {
			return fmt.Errorf("%w: index holds %d, entry %q has %d", domain.ErrDimensionMismatch, ix.dimensions, e.ID, len(e.Embedding))
		}
		if pos, ok := byID[e.ID]; ok {
			fresh[pos] = e
			continue
		}
		byID[e.ID] = len(fresh)
		fresh = append(fresh, e)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = fresh
	ix.byID = byID
	return nil
}

// Remove drops an entry; unknown ids are a no-op.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos, ok := ix.byID[id]
	if !ok {
		return
	}
	last := len(ix.entries) - 1
	if pos != last {
		ix.entries[pos] = ix.entries[last]
		ix.byID[ix.entries[pos].ID] = pos
	}
	ix.entries = ix.entries[:last]
	delete(ix.byID, id)
}

// Search returns up to k matches with score >= threshold, ordered by
// descending score. k < 0 is a caller bug; k == 0 returns no matches.
func (ix *Index) Search(query []float32, k int, threshold float64) ([]Match, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: k=%d", domain.ErrNegativeK, k)
	}
	if len(query) != ix.dimensions {
		return nil, fmt.Errorf("%w: index holds %d, query has %d", domain.ErrDimensionMismatch, ix.dimensions, len(query))
	}
	if k == 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	matches := make([]Match, 0, len(ix.entries))
	for _, e := range ix.entries {
		score, err := CosineSimilarity(query, e.Embedding)
		if err != nil {
			return nil, err
		}
		if score < threshold {
			continue
		}
		matches = append(matches, Match{ID: e.ID, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Stats returns size, dimensionality and a rough memory footprint for
// diagnostics.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Stats{
		Size:       len(ix.entries),
		Dimensions: ix.dimensions,
		Bytes:      int64(len(ix.entries)) * int64(ix.dimensions) * 4,
	}
}
