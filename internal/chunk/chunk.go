// Package chunk splits raw document text into retrieval-sized segments,
// treating tabular regions as atomic units that are never broken apart.
package chunk

// Content type values carried in chunk metadata.
const (
	ContentTypeText  = "text"
	ContentTypeTable = "table"
)

// Metadata carries the provenance of a chunk back to its owning document.
type Metadata struct {
	SourcePath      string `json:"source_path"`
	FileName        string `json:"file_name"`
	ChunkIndex      int    `json:"chunk_index"`
	ContentType     string `json:"content_type"`
	TableID         string `json:"table_id,omitempty"`
	UploadTimestamp string `json:"upload_timestamp,omitempty"`
	TotalChunks     int    `json:"total_chunks,omitempty"`
	Page            int    `json:"page,omitempty"`
}

// SourceLabel returns the human-readable origin of the chunk: the file name
// when known, falling back to the source path.
func (m Metadata) SourceLabel() string {
	switch {
	case m.FileName != "":
		return m.FileName
	case m.SourcePath != "":
		return m.SourcePath
	default:
		return "Unknown source"
	}
}

// Chunk is one retrieval unit: a span of document text plus its metadata.
type Chunk struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// IsTable reports whether the chunk holds an atomic table region.
func (c Chunk) IsTable() bool {
	return c.Metadata.ContentType == ContentTypeTable
}
