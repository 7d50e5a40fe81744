package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mkarpov/docchat/internal/core/ports"
)

var _ ports.TokenStream = (*tokenStream)(nil)

const maxStreamLineBytes = 1 << 20

// generateStream starts a streamed completion. Each NDJSON line carries one
// token fragment; the line with done=true ends the stream.
func (c *Client) generateStream(ctx context.Context, prompt string) (ports.TokenStream, error) {
	reqBody := map[string]any{
		"model":   c.genModel,
		"prompt":  prompt,
		"stream":  true,
		"options": map[string]any{"temperature": 0},
	}

	body, err := c.postStream(ctx, "/api/generate", reqBody, "generate-stream")
	if err != nil {
		return nil, wrapTemporaryIfNeeded("generate-stream", err)
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLineBytes)
	return &tokenStream{body: body, scanner: scanner}, nil
}

type tokenStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func (s *tokenStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var part struct {
			Response string `json:"response"`
			Done     bool   `json:"done"`
		}
		if err := json.Unmarshal(line, &part); err != nil {
			return "", fmt.Errorf("decode stream line: %w", err)
		}
		if part.Done {
			s.done = true
			if part.Response != "" {
				return part.Response, nil
			}
			return "", io.EOF
		}
		return part.Response, nil
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("read answer stream: %w", err)
	}
	s.done = true
	return "", io.EOF
}

func (s *tokenStream) Close() error {
	return s.body.Close()
}
