package ports

import (
	"context"
	"io"

	"github.com/mkarpov/docchat/internal/core/domain"
)

// TokenStream is a lazily consumed sequence of answer tokens. Recv returns
// io.EOF after the last token. Close releases the underlying transport and
// is safe to call at any point, including mid-stream.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Pipeline is the reusable processing object built for one uploaded file.
// Exactly one pipeline exists per cache key; it is never rebuilt while cached.
type Pipeline interface {
	Kind() domain.FileKind
	Preview() string
}

// DocumentPipeline answers questions about a PDF by retrieval-augmented
// generation and streams the answer token by token.
type DocumentPipeline interface {
	Pipeline
	Query(ctx context.Context, question string) (TokenStream, error)
}

// TablePipeline answers questions about tabular data with a single complete
// string.
type TablePipeline interface {
	Pipeline
	Query(ctx context.Context, question string) (string, error)
}

// DocumentPipelineBuilder constructs the retrieval pipeline for a PDF on
// disk. The cache key namespaces the indexed chunks.
type DocumentPipelineBuilder interface {
	Build(ctx context.Context, key domain.CacheKey, path string) (DocumentPipeline, error)
}

// TablePipelineBuilder constructs the tabular agent for a CSV on disk. The
// file is fully read during Build; the path may be reclaimed afterwards.
type TablePipelineBuilder interface {
	Build(ctx context.Context, path string) (TablePipeline, error)
}

// PipelineCache guarantees at most one pipeline build per key. A hit returns
// the stored pipeline without invoking build; a failed build leaves the key
// absent so a later call retries. Concurrent callers for one key are
// serialized and share the single result.
type PipelineCache interface {
	GetOrBuild(ctx context.Context, key domain.CacheKey, build func(context.Context) (Pipeline, error)) (Pipeline, error)
	Get(key domain.CacheKey) (Pipeline, bool)
}

// SessionStore holds per-session state for the process lifetime. Sessions
// are isolated from each other; Reset clears history only.
type SessionStore interface {
	Ensure(id string) (domain.Session, bool)
	Get(id string) (domain.Session, error)
	AppendMessage(id string, msg domain.Message) error
	SetActiveFile(id, filename string, kind domain.FileKind) error
	History(id string) ([]domain.Message, error)
	Reset(id string) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Chunker splits extracted text into overlapping retrieval chunks.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds normalized vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes chunk vectors and performs similarity search scoped to
// one cache key.
type VectorStore interface {
	IndexChunks(ctx context.Context, key domain.CacheKey, chunks []string, vectors [][]float32) error
	Search(ctx context.Context, key domain.CacheKey, queryVector []float32, limit int) ([]domain.ScoredChunk, error)
}

// AnswerGenerator creates the user-facing answer from the language model.
type AnswerGenerator interface {
	GenerateAnswerStream(ctx context.Context, question string, chunks []domain.ScoredChunk) (TokenStream, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}

// ScratchStorage writes upload bytes to a scoped temporary location. The
// returned cleanup reclaims the location and must run once the build that
// needed the file completes, success or failure.
type ScratchStorage interface {
	Write(ctx context.Context, scope, filename string, data io.Reader) (path string, cleanup func(), err error)
}

// UploadRepository persists the upload ledger.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) error
	GetByID(ctx context.Context, id string) (*domain.Upload, error)
	UpdateStatus(ctx context.Context, id string, status domain.UploadStatus, errMessage string) error
}

// EventPublisher emits upload lifecycle notifications for external
// consumers. Publishing is fire-and-forget from the caller's point of view.
type EventPublisher interface {
	PublishUploadAccepted(ctx context.Context, uploadID string) error
	PublishPipelineReady(ctx context.Context, uploadID string) error
	PublishPipelineFailed(ctx context.Context, uploadID string) error
}
