package tabular

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkarpov/docchat/internal/core/domain"
	"github.com/mkarpov/docchat/internal/core/ports"
)

type fakeGenerator struct {
	answer     string
	err        error
	lastPrompt string
}

func (g *fakeGenerator) GenerateAnswerStream(context.Context, string, []domain.ScoredChunk) (ports.TokenStream, error) {
	return nil, errors.New("not used by tabular agent")
}

func (g *fakeGenerator) GenerateFromPrompt(_ context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestBuildAndQuery(t *testing.T) {
	gen := &fakeGenerator{answer: "Bob is the oldest."}
	builder := NewAgentBuilder(gen, 50)

	path := writeCSV(t, "name,age\nAlice,30\nBob,45\n")
	pipeline, err := builder.Build(context.Background(), path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pipeline.Kind() != domain.FileKindCSV {
		t.Fatalf("kind = %q", pipeline.Kind())
	}

	answer, err := pipeline.Query(context.Background(), "who is the oldest?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer != "Bob is the oldest." {
		t.Fatalf("answer = %q", answer)
	}

	if !strings.Contains(gen.lastPrompt, "who is the oldest?") {
		t.Fatalf("prompt is missing the question: %q", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "name | age") {
		t.Fatalf("prompt is missing the header row: %q", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "Bob | 45") {
		t.Fatalf("prompt is missing a data row: %q", gen.lastPrompt)
	}
}

func TestPreviewShowsFrame(t *testing.T) {
	builder := NewAgentBuilder(&fakeGenerator{}, 50)
	path := writeCSV(t, "city,pop\nBerlin,3700000\n")

	pipeline, err := builder.Build(context.Background(), path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	preview := pipeline.Preview()
	if !strings.Contains(preview, "city | pop") || !strings.Contains(preview, "Berlin | 3700000") {
		t.Fatalf("preview = %q", preview)
	}
}

func TestBuildTruncatesLargeTables(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("n\n")
	for i := 0; i < 100; i++ {
		sb.WriteString("row\n")
	}
	builder := NewAgentBuilder(&fakeGenerator{}, 10)

	pipeline, err := builder.Build(context.Background(), writeCSV(t, sb.String()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	preview := pipeline.Preview()
	if !strings.Contains(preview, "90 more rows") {
		t.Fatalf("preview does not note truncation: %q", preview)
	}
}

func TestBuildRejectsMalformedCSV(t *testing.T) {
	builder := NewAgentBuilder(&fakeGenerator{}, 50)
	path := writeCSV(t, "a,\"unterminated\n")

	_, err := builder.Build(context.Background(), path)
	if !domain.IsKind(err, domain.ErrParse) {
		t.Fatalf("err = %v, want parse failure", err)
	}
}

func TestBuildRejectsEmptyFile(t *testing.T) {
	builder := NewAgentBuilder(&fakeGenerator{}, 50)
	_, err := builder.Build(context.Background(), writeCSV(t, ""))
	if !domain.IsKind(err, domain.ErrParse) {
		t.Fatalf("err = %v, want parse failure", err)
	}
}

func TestBuildMissingFile(t *testing.T) {
	builder := NewAgentBuilder(&fakeGenerator{}, 50)
	_, err := builder.Build(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	if !domain.IsKind(err, domain.ErrUploadRead) {
		t.Fatalf("err = %v, want upload-read failure", err)
	}
}

func TestQueryPropagatesGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("llm down")}
	builder := NewAgentBuilder(gen, 50)

	pipeline, err := builder.Build(context.Background(), writeCSV(t, "a\n1\n"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := pipeline.Query(context.Background(), "q"); err == nil {
		t.Fatalf("expected error from generator")
	}
}
