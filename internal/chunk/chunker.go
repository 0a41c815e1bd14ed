package chunk

import (
	"fmt"
	"strings"
	"time"
)

// Default splitting parameters, tuned for retrieval-sized passages.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// defaultSeparators is the boundary preference order: paragraph breaks first,
// then line breaks, then word breaks, then arbitrary character positions.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunker splits document text into ordered chunks of at most Size characters,
// carrying Overlap characters of trailing context into each following chunk.
// Table-like regions are detected up front and emitted whole.
type Chunker struct {
	size       int
	overlap    int
	separators []string
	now        func() time.Time
}

// New creates a Chunker with the given size and overlap.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, size)", ErrInvalidConfig, overlap)
	}
	return &Chunker{
		size:       size,
		overlap:    overlap,
		separators: defaultSeparators,
		now:        time.Now,
	}, nil
}

// NewDefault creates a Chunker with DefaultSize and DefaultOverlap.
func NewDefault() *Chunker {
	c, _ := New(DefaultSize, DefaultOverlap)
	return c
}

// ChunkDocument splits text into chunks and stamps each with metadata derived
// from base. Table regions become single atomic chunks regardless of size; the
// spans between them are split recursively. Chunk indexes are assigned in
// emission order. An empty or whitespace-only document yields no chunks.
func (c *Chunker) ChunkDocument(text string, base Metadata) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	stamp := base.UploadTimestamp
	if stamp == "" {
		stamp = c.now().UTC().Format(time.RFC3339)
	}

	regions := detectTableRegions(text)
	if len(regions) == 0 {
		pieces := c.SplitText(text)
		chunks := make([]Chunk, 0, len(pieces))
		for _, piece := range pieces {
			chunks = append(chunks, c.textChunk(piece, base, len(chunks), stamp))
		}
		// Documents without tables record how many chunks they produced.
		for i := range chunks {
			chunks[i].Metadata.TotalChunks = len(chunks)
		}
		return chunks
	}

	var chunks []Chunk
	cursor := 0
	for _, region := range regions {
		if region.start > cursor {
			for _, piece := range c.SplitText(text[cursor:region.start]) {
				chunks = append(chunks, c.textChunk(piece, base, len(chunks), stamp))
			}
		}
		chunks = append(chunks, c.tableChunk(text[region.start:region.end], base, len(chunks), stamp))
		cursor = region.end
	}
	if cursor < len(text) {
		for _, piece := range c.SplitText(text[cursor:]) {
			chunks = append(chunks, c.textChunk(piece, base, len(chunks), stamp))
		}
	}
	return chunks
}

func (c *Chunker) textChunk(content string, base Metadata, index int, stamp string) Chunk {
	meta := base
	meta.ChunkIndex = index
	meta.ContentType = ContentTypeText
	meta.TableID = ""
	meta.UploadTimestamp = stamp
	return Chunk{Content: content, Metadata: meta}
}

func (c *Chunker) tableChunk(content string, base Metadata, index int, stamp string) Chunk {
	meta := base
	meta.ChunkIndex = index
	meta.ContentType = ContentTypeTable
	meta.TableID = fmt.Sprintf("table_%d", index)
	meta.UploadTimestamp = stamp
	return Chunk{Content: content, Metadata: meta}
}

// SplitText splits plain text into ordered pieces of at most the configured
// size, with the configured overlap repeated between consecutive pieces.
// Whitespace-only pieces are dropped.
func (c *Chunker) SplitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	fragments := c.fragment(text, 0)
	return c.merge(fragments)
}

// fragment recursively cuts text at the separator cascade until every
// fragment fits within the chunk size. Separators stay attached to the
// preceding fragment so that concatenating fragments reproduces the input.
func (c *Chunker) fragment(text string, sepIndex int) []string {
	if len(text) <= c.size {
		return []string{text}
	}
	if sepIndex >= len(c.separators) || c.separators[sepIndex] == "" {
		return cutRunes(text, c.size)
	}

	sep := c.separators[sepIndex]
	parts := strings.Split(text, sep)
	var out []string
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part == "" {
			continue
		}
		if len(part) > c.size {
			out = append(out, c.fragment(part, sepIndex+1)...)
		} else {
			out = append(out, part)
		}
	}
	return out
}

// merge greedily packs fragments into chunks of at most size characters,
// seeding each new chunk with the overlap tail of the previous one.
func (c *Chunker) merge(fragments []string) []string {
	var out []string
	var current strings.Builder
	for _, frag := range fragments {
		if current.Len() > 0 && current.Len()+len(frag) > c.size {
			emitted := current.String()
			if trimmed := strings.TrimSpace(emitted); trimmed != "" {
				out = append(out, trimmed)
			}
			carry := tailRunes(emitted, c.overlap)
			// Never let the carried context push a chunk past the limit.
			if len(carry)+len(frag) > c.size {
				carry = tailRunes(carry, c.size-len(frag))
			}
			current.Reset()
			current.WriteString(carry)
		}
		current.WriteString(frag)
	}
	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		out = append(out, trimmed)
	}
	return out
}

// cutRunes hard-splits text into pieces of at most max characters without
// breaking UTF-8 sequences.
func cutRunes(text string, max int) []string {
	if max <= 0 || len(text) <= max {
		return []string{text}
	}
	runes := []rune(text)
	out := make([]string, 0, (len(runes)+max-1)/max)
	for start := 0; start < len(runes); start += max {
		end := start + max
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// tailRunes returns the trailing portion of text holding at most max bytes,
// aligned to a rune boundary.
func tailRunes(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(text) <= max {
		return text
	}
	cut := len(text) - max
	for cut < len(text) && !isRuneStart(text[cut]) {
		cut++
	}
	return text[cut:]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
