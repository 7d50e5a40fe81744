package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkarpov/docchat/internal/core/domain"
	"github.com/mkarpov/docchat/internal/core/ports"
)

const defaultPreviewRunes = 2000

// DocumentPipelineBuilder composes the retrieval pipeline for a PDF:
// extract text, chunk it, embed every chunk, index the vectors under the
// cache key. The returned pipeline answers questions by similarity search
// plus streamed generation. Building is the slow path (seconds); queries
// reuse the index.
type DocumentPipelineBuilder struct {
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	vectorDB   ports.VectorStore
	generator  ports.AnswerGenerator
	topK       int
	previewMax int
}

func NewDocumentPipelineBuilder(
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	generator ports.AnswerGenerator,
	topK int,
	previewMax int,
) *DocumentPipelineBuilder {
	if topK <= 0 {
		topK = 4
	}
	if previewMax <= 0 {
		previewMax = defaultPreviewRunes
	}
	return &DocumentPipelineBuilder{
		extractor:  extractor,
		chunker:    chunker,
		embedder:   embedder,
		vectorDB:   vectorDB,
		generator:  generator,
		topK:       topK,
		previewMax: previewMax,
	}
}

func (b *DocumentPipelineBuilder) Build(ctx context.Context, key domain.CacheKey, path string) (ports.DocumentPipeline, error) {
	text, err := b.extractText(ctx, path)
	if err != nil {
		return nil, err
	}

	chunks, err := b.chunk(text)
	if err != nil {
		return nil, err
	}

	vectors, err := b.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if err := b.vectorDB.IndexChunks(ctx, key, chunks, vectors); err != nil {
		return nil, fmt.Errorf("index chunks in vector db: %w", err)
	}

	return &documentPipeline{
		key:       key,
		embedder:  b.embedder,
		vectorDB:  b.vectorDB,
		generator: b.generator,
		topK:      b.topK,
		preview:   headRunes(text, b.previewMax),
	}, nil
}

func (b *DocumentPipelineBuilder) extractText(ctx context.Context, path string) (string, error) {
	text, err := b.extractor.Extract(ctx, path)
	if err != nil {
		if domain.IsKind(err, domain.ErrParse) {
			return "", err
		}
		return "", domain.WrapError(domain.ErrParse, "extract text", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrParse, "extract text", errors.New("document contains no text"))
	}
	return text, nil
}

func (b *DocumentPipelineBuilder) chunk(text string) ([]string, error) {
	chunks := b.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrParse, "chunk document", errors.New("chunking produced zero chunks"))
	}
	return chunks, nil
}

func (b *DocumentPipelineBuilder) embed(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors, err := b.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: vectors/chunks mismatch: %d/%d", len(vectors), len(chunks))
	}
	return vectors, nil
}

type documentPipeline struct {
	key       domain.CacheKey
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	generator ports.AnswerGenerator
	topK      int
	preview   string
}

func (p *documentPipeline) Kind() domain.FileKind { return domain.FileKindPDF }

func (p *documentPipeline) Preview() string { return p.preview }

func (p *documentPipeline) Query(ctx context.Context, question string) (ports.TokenStream, error) {
	queryVector, err := p.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := p.vectorDB.Search(ctx, p.key, queryVector, p.topK)
	if err != nil {
		return nil, fmt.Errorf("search vector db: %w", err)
	}

	stream, err := p.generator.GenerateAnswerStream(ctx, question, chunks)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return stream, nil
}

func headRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
