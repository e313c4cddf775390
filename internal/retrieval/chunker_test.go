package retrieval

import (
	"strings"
	"testing"
)

func TestChunkEmptyText(t *testing.T) {
	if pieces := NewFixedChunker(10).Chunk(""); len(pieces) != 0 {
		t.Fatalf("empty text must yield no pieces, got %d", len(pieces))
	}
}

func TestChunkExactWindows(t *testing.T) {
	pieces := NewFixedChunker(4).Chunk("abcdefgh")
	if len(pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(pieces))
	}
	if pieces[0].Text != "abcd" || pieces[1].Text != "efgh" {
		t.Fatalf("unexpected pieces: %+v", pieces)
	}
	if pieces[0].Offset != 0 || pieces[1].Offset != 4 {
		t.Fatalf("unexpected offsets: %+v", pieces)
	}
}

func TestChunkShortTail(t *testing.T) {
	pieces := NewFixedChunker(4).Chunk("abcdefghij")
	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %d", len(pieces))
	}
	if pieces[2].Text != "ij" || pieces[2].Offset != 8 {
		t.Fatalf("unexpected tail piece: %+v", pieces[2])
	}
}

func TestChunkReassemblesLosslessly(t *testing.T) {
	text := strings.Repeat("document body ", 700)
	pieces := NewFixedChunker(0).Chunk(text) // zero falls back to the default size

	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteString(p.Text)
	}
	if sb.String() != text {
		t.Fatalf("concatenated pieces differ from input")
	}
	for _, p := range pieces {
		if len(p.Text) > 4000 {
			t.Fatalf("piece exceeds default window: %d bytes", len(p.Text))
		}
	}
}
