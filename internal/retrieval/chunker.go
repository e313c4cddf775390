// Package retrieval implements the chunking, embedding, indexing and
// retrieval-augmented query answering path.
package retrieval

// ChunkKind distinguishes what a stored chunk was cut from.
type ChunkKind string

const (
	KindSummary ChunkKind = "summary"
	KindRawText ChunkKind = "raw_text"
)

// Chunk is a bounded slice of text stored with its embedding. Immutable once
// added to the index.
type Chunk struct {
	ID       string    `json:"id"`
	SourceID string    `json:"source_id"`
	Kind     ChunkKind `json:"kind"`
	Offset   int       `json:"offset"`
	Text     string    `json:"text"`
	Vector   []float32 `json:"-"`
}

// Piece is a chunk of text before embedding, with its byte offset in the
// source document.
type Piece struct {
	Offset int
	Text   string
}

// FixedChunker splits text into fixed-size byte windows.
type FixedChunker struct {
	size int
}

func NewFixedChunker(size int) *FixedChunker {
	if size <= 0 {
		size = 4000
	}
	return &FixedChunker{size: size}
}

// Chunk splits the text; empty input yields no pieces.
func (c *FixedChunker) Chunk(text string) []Piece {
	if text == "" {
		return nil
	}
	pieces := make([]Piece, 0, len(text)/c.size+1)
	for off := 0; off < len(text); off += c.size {
		end := off + c.size
		if end > len(text) {
			end = len(text)
		}
		pieces = append(pieces, Piece{Offset: off, Text: text[off:end]})
	}
	return pieces
}
