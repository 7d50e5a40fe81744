package domain

// ScoredChunk is one retrieval result from the vector store.
type ScoredChunk struct {
	Text  string  `json:"text"`
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Preview is a human-readable excerpt of the active upload's contents.
type Preview struct {
	Filename string   `json:"filename"`
	Kind     FileKind `json:"kind"`
	Content  string   `json:"content"`
}
