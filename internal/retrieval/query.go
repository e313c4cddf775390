package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"docint/internal/telemetry"
	"docint/provider"
)

// NoInformationAnswer is returned when retrieval finds nothing to ground an
// answer on.
const NoInformationAnswer = "I couldn't find any relevant information in the document."

const answerSystemPrompt = "You are a helpful assistant. Answer the user's question based ONLY on the provided context. Be concise and direct."

// Answer is the single result of one query.
type Answer struct {
	Text  string
	Score float64
}

// QueryService answers questions grounded in previously indexed chunks.
type QueryService struct {
	embedder   *Embedder
	index      *Index
	provider   provider.Provider
	collection string
	topK       int
	telemetry  *telemetry.Telemetry
	logger     *log.Logger
}

func NewQueryService(e *Embedder, ix *Index, p provider.Provider, collection string, topK int, tele *telemetry.Telemetry) *QueryService {
	if topK <= 0 {
		topK = 10
	}
	return &QueryService{
		embedder:   e,
		index:      ix,
		provider:   p,
		collection: collection,
		topK:       topK,
		telemetry:  tele,
		logger:     log.New(log.Writer(), "[QUERY] ", log.LstdFlags),
	}
}

// Answer embeds the query, retrieves the top-k chunks, and asks the model to
// answer from the retrieved context only. When the embedding degrades to the
// zero vector, retrieval falls back to keyword search so the request still
// gets grounded context. The returned score is the top retrieved similarity.
func (s *QueryService) Answer(ctx context.Context, query string) (Answer, error) {
	start := time.Now()

	vec := s.embedder.Embed(ctx, query)

	var (
		results []SearchResult
		err     error
	)
	if IsZeroVector(vec) {
		s.logger.Printf("query embedding degraded, falling back to keyword search")
		results, err = s.index.KeywordSearch(s.collection, query, s.topK)
	} else {
		results, err = s.index.Search(s.collection, vec, s.topK)
	}
	if err != nil {
		return Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}

	if len(results) == 0 {
		return Answer{Text: NoInformationAnswer, Score: 0.0}, nil
	}

	contexts := make([]string, 0, len(results))
	for _, r := range results {
		contexts = append(contexts, r.Chunk.Text)
	}
	user := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", strings.Join(contexts, "\n\n"), query)

	reply, err := s.provider.Complete(ctx, answerSystemPrompt, user)
	if err != nil {
		return Answer{}, fmt.Errorf("answer generation failed: %w", err)
	}

	if s.telemetry != nil {
		s.telemetry.RecordQuery(time.Since(start))
	}
	return Answer{Text: reply, Score: results[0].Score}, nil
}
