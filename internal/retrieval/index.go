package retrieval

import (
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/google/uuid"
)

const rrfK = 60 // reciprocal-rank-fusion constant

// SearchResult is a matching chunk with its similarity score and rank.
type SearchResult struct {
	Chunk Chunk
	Score float64
	Rank  int
}

type collection struct {
	dimension int
	chunks    []Chunk
	byID      map[string]int
	keyword   bleve.Index
}

// Index is an append-only in-memory retrieval index. Vector search runs
// brute-force cosine similarity; a mem-only bleve index over chunk text
// provides the keyword side for hybrid retrieval. All methods are safe for
// concurrent use; one write granule is one whole chunk insertion.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
	logger      *log.Logger
}

func NewIndex() *Index {
	return &Index{
		collections: make(map[string]*collection),
		logger:      log.New(log.Writer(), "[RAG] ", log.LstdFlags),
	}
}

// EnsureCollection creates the collection if it does not exist yet. Calling it
// again for an existing collection is a no-op.
func (ix *Index) EnsureCollection(name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension: %d", dimension)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if existing, ok := ix.collections[name]; ok {
		if existing.dimension != dimension {
			return fmt.Errorf("collection %s already exists with dimension %d", name, existing.dimension)
		}
		return nil
	}
	kw, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create keyword index: %w", err)
	}
	ix.collections[name] = &collection{
		dimension: dimension,
		byID:      make(map[string]int),
		keyword:   kw,
	}
	ix.logger.Printf("collection %s ready (dimension %d)", name, dimension)
	return nil
}

// Add stores a chunk under a fresh unique id and returns it. There is no
// deduplication and no update path.
func (ix *Index) Add(name string, chunk Chunk) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	col, ok := ix.collections[name]
	if !ok {
		return "", fmt.Errorf("unknown collection: %s", name)
	}
	if len(chunk.Vector) != col.dimension {
		return "", fmt.Errorf("vector dimension mismatch: got %d want %d", len(chunk.Vector), col.dimension)
	}
	chunk.ID = uuid.New().String()
	col.chunks = append(col.chunks, chunk)
	col.byID[chunk.ID] = len(col.chunks) - 1
	if err := col.keyword.Index(chunk.ID, map[string]string{"text": chunk.Text}); err != nil {
		ix.logger.Printf("keyword index write failed for chunk %s: %v", chunk.ID, err)
	}
	return chunk.ID, nil
}

// Len reports the number of chunks stored in the collection.
func (ix *Index) Len(name string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if col, ok := ix.collections[name]; ok {
		return len(col.chunks)
	}
	return 0
}

// Search returns up to limit chunks ordered by descending cosine similarity
// to the query vector. An empty collection yields an empty result.
func (ix *Index) Search(name string, vector []float32, limit int) ([]SearchResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	col, ok := ix.collections[name]
	if !ok {
		return nil, fmt.Errorf("unknown collection: %s", name)
	}
	if limit <= 0 {
		limit = 10
	}

	scored := make([]SearchResult, 0, len(col.chunks))
	for _, c := range col.chunks {
		scored = append(scored, SearchResult{Chunk: c, Score: cosine(vector, c.Vector)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit > len(scored) {
		limit = len(scored)
	}
	out := scored[:limit]
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// KeywordSearch returns up to limit chunks ranked by BM25 over chunk text.
func (ix *Index) KeywordSearch(name string, query string, limit int) ([]SearchResult, error) {
	ix.mu.RLock()
	col, ok := ix.collections[name]
	ix.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown collection: %s", name)
	}
	if limit <= 0 {
		limit = 10
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	res, err := col.keyword.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		idx, ok := col.byID[hit.ID]
		if !ok {
			continue
		}
		out = append(out, SearchResult{Chunk: col.chunks[idx], Score: hit.Score, Rank: len(out) + 1})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// HybridSearch fuses vector and keyword rankings with reciprocal-rank fusion.
func (ix *Index) HybridSearch(name string, vector []float32, query string, limit int) ([]SearchResult, error) {
	vec, err := ix.Search(name, vector, limit)
	if err != nil {
		return nil, err
	}
	kw, err := ix.KeywordSearch(name, query, limit)
	if err != nil {
		return nil, err
	}
	return fuseRRF(vec, kw, limit), nil
}

func fuseRRF(a, b []SearchResult, k int) []SearchResult {
	type agg struct {
		item  SearchResult
		score float64
	}
	m := map[string]*agg{}
	add := func(list []SearchResult) {
		for _, h := range list {
			x, ok := m[h.Chunk.ID]
			if !ok {
				x = &agg{item: h}
				m[h.Chunk.ID] = x
			}
			x.score += 1.0 / float64(rrfK+h.Rank)
		}
	}
	add(a)
	add(b)

	fused := make([]SearchResult, 0, len(m))
	for _, v := range m {
		v.item.Score = v.score
		fused = append(fused, v.item)
	}
	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	if k > len(fused) {
		k = len(fused)
	}
	fused = fused[:k]
	for i := range fused {
		fused[i].Rank = i + 1
	}
	return fused
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
