package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mkarpov/docchat/internal/core/domain"
	"github.com/mkarpov/docchat/internal/core/ports"
)

// AgentBuilder wraps a tabular reasoning agent: the CSV is read fully at
// build time and rendered into a compact frame, and every question is
// answered by the language model conditioned on that frame. Because the
// frame lives in memory, the staged upload file can be reclaimed as soon as
// Build returns.
type AgentBuilder struct {
	generator ports.AnswerGenerator
	maxRows   int
}

func NewAgentBuilder(generator ports.AnswerGenerator, maxRows int) *AgentBuilder {
	if maxRows <= 0 {
		maxRows = 50
	}
	return &AgentBuilder{
		generator: generator,
		maxRows:   maxRows,
	}
}

func (b *AgentBuilder) Build(_ context.Context, path string) (ports.TablePipeline, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUploadRead, "open csv", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, domain.WrapError(domain.ErrParse, "parse csv", err)
	}
	if len(records) == 0 {
		return nil, domain.WrapError(domain.ErrParse, "parse csv", errors.New("empty table"))
	}

	header := records[0]
	rows := records[1:]
	return &agent{
		generator: b.generator,
		frame:     renderFrame(header, rows, b.maxRows),
		header:    header,
		rowCount:  len(rows),
	}, nil
}

type agent struct {
	generator ports.AnswerGenerator
	frame     string
	header    []string
	rowCount  int
}

func (a *agent) Kind() domain.FileKind { return domain.FileKindCSV }

func (a *agent) Preview() string { return a.frame }

func (a *agent) Query(ctx context.Context, question string) (string, error) {
	answer, err := a.generator.GenerateFromPrompt(ctx, buildTablePrompt(a.frame, a.rowCount, question))
	if err != nil {
		return "", fmt.Errorf("tabular agent: %w", err)
	}
	return answer, nil
}

func buildTablePrompt(frame string, rowCount int, question string) string {
	return fmt.Sprintf(`You are a precise data analyst. Answer the user's question using only the table below.
Quote exact values from the table; if the table cannot answer the question, say so directly.

Table (%d data rows):
%s

Question: %s

Answer:`, rowCount, frame, question)
}

// renderFrame formats the table as pipe-separated rows, truncated to
// maxRows so huge files do not blow up the prompt.
func renderFrame(header []string, rows [][]string, maxRows int) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(header, " | "))
	sb.WriteString("\n")

	shown := rows
	truncated := false
	if len(shown) > maxRows {
		shown = shown[:maxRows]
		truncated = true
	}
	for _, row := range shown {
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteString("\n")
	}
	if truncated {
		fmt.Fprintf(&sb, "... (%d more rows)\n", len(rows)-maxRows)
	}
	return strings.TrimRight(sb.String(), "\n")
}
