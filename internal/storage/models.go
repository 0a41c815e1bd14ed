package storage

import "github.com/parker-estes/bankdocs/internal/chunk"

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "banking_documents"

// VectorDimension is the embedding size for text-embedding-3-small. Inserts
// and vector queries with any other dimension are rejected.
const VectorDimension = 1536

// ScoredChunk pairs a retrieved chunk with its similarity score. Scores are
// cosine similarity: higher means more similar, roughly within [0, 1] for
// the embedding models in use.
type ScoredChunk struct {
	Chunk chunk.Chunk `json:"chunk"`
	Score float64     `json:"score"`
}

// Stats describes the current state of an index.
type Stats struct {
	EntryCount      int    `json:"entry_count"`
	CollectionName  string `json:"collection_name"`
	StorageLocation string `json:"storage_location"`
}

// SourceInfo summarizes the chunks indexed for one source document.
type SourceInfo struct {
	SourcePath string `json:"source_path"`
	FileName   string `json:"file_name"`
	Chunks     int    `json:"chunks"`
}
