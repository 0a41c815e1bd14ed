package chunk

import (
	"strings"
	"testing"
)

func mustChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := New(size, overlap)
	if err != nil {
		t.Fatalf("New(%d, %d) returned error: %v", size, overlap, err)
	}
	return c
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// trimOverlap removes from cur the longest prefix that is a suffix of prev,
// undoing the carried overlap between consecutive chunks.
func trimOverlap(prev, cur string) string {
	max := len(cur)
	if len(prev) < max {
		max = len(prev)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(prev, cur[:n]) {
			return cur[n:]
		}
	}
	return cur
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 1000, 200, false},
		{"zero overlap", 100, 0, false},
		{"zero size", 0, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals size", 100, 100, true},
		{"overlap above size", 100, 150, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.size, tc.overlap)
			if tc.wantErr && err == nil {
				t.Errorf("New(%d, %d) expected error, got nil", tc.size, tc.overlap)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("New(%d, %d) unexpected error: %v", tc.size, tc.overlap, err)
			}
		})
	}
}

func TestChunkDocumentEmpty(t *testing.T) {
	c := NewDefault()

	for _, text := range []string{"", "   ", "\n\n\t\n"} {
		chunks := c.ChunkDocument(text, Metadata{SourcePath: "empty.txt"})
		if len(chunks) != 0 {
			t.Errorf("ChunkDocument(%q) returned %d chunks, want 0", text, len(chunks))
		}
	}
}

func TestChunkDocumentSingleChunk(t *testing.T) {
	c := NewDefault()
	base := Metadata{SourcePath: "/docs/rates.txt", FileName: "rates.txt"}

	chunks := c.ChunkDocument("Personal Loan APR: 8.5% - 12.5%", base)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	got := chunks[0]
	if got.Metadata.ContentType != ContentTypeText {
		t.Errorf("content_type = %q, want %q", got.Metadata.ContentType, ContentTypeText)
	}
	if got.Metadata.ChunkIndex != 0 {
		t.Errorf("chunk_index = %d, want 0", got.Metadata.ChunkIndex)
	}
	if got.Metadata.TotalChunks != 1 {
		t.Errorf("total_chunks = %d, want 1", got.Metadata.TotalChunks)
	}
	if got.Metadata.SourcePath != "/docs/rates.txt" {
		t.Errorf("source_path = %q, want /docs/rates.txt", got.Metadata.SourcePath)
	}
	if got.Metadata.UploadTimestamp == "" {
		t.Error("upload_timestamp not stamped")
	}
}

func TestChunkDocumentRespectsSizeAndOverlap(t *testing.T) {
	c := mustChunker(t, 120, 30)

	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString("token")
		sb.WriteString(strings.Repeat("x", i%7))
		sb.WriteString(" ")
	}
	text := sb.String()

	chunks := c.ChunkDocument(text, Metadata{SourcePath: "long.txt"})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, ch := range chunks {
		if len(ch.Content) > 120 {
			t.Errorf("chunk %d has %d characters, exceeds size 120", i, len(ch.Content))
		}
		if ch.Metadata.ChunkIndex != i {
			t.Errorf("chunk %d carries index %d", i, ch.Metadata.ChunkIndex)
		}
		if ch.Metadata.TotalChunks != len(chunks) {
			t.Errorf("chunk %d total_chunks = %d, want %d", i, ch.Metadata.TotalChunks, len(chunks))
		}
	}

	// Each chunk must open with context carried from its predecessor.
	for i := 1; i < len(chunks); i++ {
		trimmed := trimOverlap(chunks[i-1].Content, chunks[i].Content)
		if trimmed == chunks[i].Content {
			t.Errorf("chunk %d shares no overlap with chunk %d", i, i-1)
		}
	}
}

func TestChunkDocumentReconstruction(t *testing.T) {
	c := mustChunker(t, 80, 20)

	text := "The savings account offers tiered interest depending on balance. " +
		"Customers with balances above the threshold earn the preferred rate.\n\n" +
		"| Tier | Balance | Rate |\n| 1 | $0+ | 0.5% |\n| 2 | $10k+ | 1.2% |\n\n" +
		"Early withdrawal may forfeit accrued interest for the current period. " +
		"See the fee schedule for a complete list of service charges.\n\n" +
		"Table 3 Service Fees\nwire transfer 25\noverdraft 35\n\n" +
		"Contact a branch representative for details."

	chunks := c.ChunkDocument(text, Metadata{SourcePath: "acct.txt"})
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}

	var rebuilt strings.Builder
	for i, ch := range chunks {
		part := ch.Content
		if i > 0 {
			part = trimOverlap(chunks[i-1].Content, part)
		}
		rebuilt.WriteString(part)
		rebuilt.WriteString(" ")
	}

	if got, want := stripWhitespace(rebuilt.String()), stripWhitespace(text); got != want {
		t.Errorf("reconstructed content mismatch\ngot:  %s\nwant: %s", got, want)
	}
}

func TestChunkDocumentHardCutsLongRuns(t *testing.T) {
	c := mustChunker(t, 1000, 0)

	chunks := c.ChunkDocument(strings.Repeat("x", 2500), Metadata{SourcePath: "run.txt"})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []int{1000, 1000, 500} {
		if len(chunks[i].Content) != want {
			t.Errorf("chunk %d length = %d, want %d", i, len(chunks[i].Content), want)
		}
	}
}

func TestChunkDocumentPreservesTimestamp(t *testing.T) {
	c := NewDefault()
	base := Metadata{SourcePath: "a.txt", UploadTimestamp: "2026-01-15T09:30:00Z"}

	chunks := c.ChunkDocument("some text", base)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata.UploadTimestamp != "2026-01-15T09:30:00Z" {
		t.Errorf("upload_timestamp overwritten: %q", chunks[0].Metadata.UploadTimestamp)
	}
}

func TestSplitTextEmpty(t *testing.T) {
	c := NewDefault()
	if pieces := c.SplitText("  \n \t "); pieces != nil {
		t.Errorf("SplitText(whitespace) = %v, want nil", pieces)
	}
}
