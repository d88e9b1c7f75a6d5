// Package memory provides the in-process implementation of the vector-store
// boundary (core.MemoryStore). Vector index internals belong to whatever
// backs the boundary; this implementation ranks by bag-of-words cosine
// similarity, which is deterministic and good enough for tests, demos and
// small local isos. Swap in a real vector database behind the same interface
// for semantic retrieval at scale.
package memory

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/hupe1980/isokit/core"
)

// chunk is the internal representation of one stored memory.
type chunk struct {
	id       string
	text     string
	terms    map[string]float64 // normalized term frequency vector
	metadata map[string]any
	seq      int // insertion order, used to break score ties deterministically
}

// InMemoryStore is a process-local MemoryStore.
//
// Concurrency: protected by RWMutex. Upsert is invoked by the owning loop
// and ingestion jobs; Query runs during the snapshot read before assembly.
type InMemoryStore struct {
	mu     sync.RWMutex
	chunks []chunk
	nextSeq int
}

// NewInMemoryStore creates an empty memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Upsert stores a text chunk with metadata and returns its generated id.
func (m *InMemoryStore) Upsert(text string, metadata map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}

	c := chunk{
		id:       core.NewID(),
		text:     text,
		terms:    termVector(text),
		metadata: md,
		seq:      m.nextSeq,
	}
	m.nextSeq++
	m.chunks = append(m.chunks, c)
	return c.id, nil
}

// Query returns up to k chunks ranked by cosine similarity against the query
// text. Chunks with zero similarity are excluded: an empty result means the
// Memory adapter is omitted from the prompt rather than contributing noise.
func (m *InMemoryStore) Query(text string, k int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if k <= 0 || len(m.chunks) == 0 {
		return []core.SearchResult{}, nil
	}

	qv := termVector(text)

	type scored struct {
		chunk chunk
		score float64
	}
	candidates := make([]scored, 0, len(m.chunks))
	for _, c := range m.chunks {
		s := cosine(qv, c.terms)
		if s <= 0 {
			continue
		}
		candidates = append(candidates, scored{chunk: c, score: s})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].chunk.seq < candidates[j].chunk.seq
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]core.SearchResult, 0, len(candidates))
	for _, cand := range candidates {
		md := make(map[string]any, len(cand.chunk.metadata))
		for key, v := range cand.chunk.metadata {
			md[key] = v
		}
		results = append(results, core.SearchResult{
			ID:       cand.chunk.id,
			Content:  cand.chunk.text,
			Score:    cand.score,
			Metadata: md,
		})
	}
	return results, nil
}

// Len returns the number of stored chunks.
func (m *InMemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// termVector tokenizes text into lowercase word counts normalized to unit
// length. Punctuation splits tokens; empty input yields an empty vector.
func termVector(text string) map[string]float64 {
	counts := map[string]float64{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		counts[tok]++
	}

	var norm float64
	for _, c := range counts {
		norm += c * c
	}
	if norm == 0 {
		return counts
	}
	norm = math.Sqrt(norm)
	for tok := range counts {
		counts[tok] /= norm
	}
	return counts
}

// cosine computes the dot product of two unit vectors.
func cosine(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for tok, av := range a {
		if bv, ok := b[tok]; ok {
			dot += av * bv
		}
	}
	return dot
}
