package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mkarpov/docchat/internal/core/domain"
	"github.com/mkarpov/docchat/internal/core/ports"
)

// ChatUseCase routes each user message to the session's active pipeline and
// appends both sides of the exchange to the transcript.
type ChatUseCase struct {
	sessions     ports.SessionStore
	cache        ports.PipelineCache
	queryTimeout time.Duration
}

func NewChatUseCase(sessions ports.SessionStore, cache ports.PipelineCache, queryTimeout time.Duration) *ChatUseCase {
	if queryTimeout <= 0 {
		queryTimeout = 2 * time.Minute
	}
	return &ChatUseCase{
		sessions:     sessions,
		cache:        cache,
		queryTimeout: queryTimeout,
	}
}

// Ask answers one user prompt. For document pipelines the token stream is
// consumed to completion and concatenated; onDelta, when non-nil, observes
// each token as it arrives (table answers arrive as a single delta). The
// returned message is the assistant entry appended to the transcript.
func (uc *ChatUseCase) Ask(
	ctx context.Context,
	sessionID, prompt string,
	onDelta func(token string) error,
) (domain.Message, error) {
	if strings.TrimSpace(prompt) == "" {
		return domain.Message{}, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("empty prompt"))
	}

	sess, err := uc.sessions.Get(sessionID)
	if err != nil {
		return domain.Message{}, domain.WrapError(domain.ErrNoActiveDocument, "ask", err)
	}

	if err := uc.sessions.AppendMessage(sessionID, domain.Message{Role: domain.RoleUser, Content: prompt}); err != nil {
		return domain.Message{}, fmt.Errorf("append user message: %w", err)
	}

	if !sess.HasActiveDocument() {
		return domain.Message{}, domain.WrapError(
			domain.ErrNoActiveDocument,
			"ask",
			errors.New("upload a .pdf or .csv file before asking questions"),
		)
	}

	key := domain.CacheKey{SessionID: sessionID, Filename: sess.ActiveFile}
	pipeline, ok := uc.cache.Get(key)
	if !ok {
		return domain.Message{}, domain.WrapError(
			domain.ErrNoActiveDocument,
			"ask",
			fmt.Errorf("no pipeline for %s", sess.ActiveFile),
		)
	}

	queryCtx, cancel := context.WithTimeout(ctx, uc.queryTimeout)
	defer cancel()

	fullResponse, err := uc.dispatch(queryCtx, pipeline, prompt, onDelta)
	if err != nil {
		if domain.IsKind(err, domain.ErrQuery) || domain.IsKind(err, domain.ErrTemporary) {
			return domain.Message{}, err
		}
		return domain.Message{}, domain.WrapError(domain.ErrQuery, "ask", err)
	}

	answer := domain.Message{Role: domain.RoleAssistant, Content: fullResponse}
	if err := uc.sessions.AppendMessage(sessionID, answer); err != nil {
		return domain.Message{}, fmt.Errorf("append assistant message: %w", err)
	}
	return answer, nil
}

func (uc *ChatUseCase) dispatch(
	ctx context.Context,
	pipeline ports.Pipeline,
	prompt string,
	onDelta func(string) error,
) (string, error) {
	switch p := pipeline.(type) {
	case ports.DocumentPipeline:
		return consumeStream(ctx, p, prompt, onDelta)
	case ports.TablePipeline:
		text, err := p.Query(ctx, prompt)
		if err != nil {
			return "", err
		}
		if onDelta != nil {
			if err := onDelta(text); err != nil {
				return "", fmt.Errorf("deliver answer: %w", err)
			}
		}
		return text, nil
	default:
		return "", fmt.Errorf("unknown pipeline type %T", pipeline)
	}
}

func consumeStream(
	ctx context.Context,
	pipeline ports.DocumentPipeline,
	prompt string,
	onDelta func(string) error,
) (string, error) {
	stream, err := pipeline.Query(ctx, prompt)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var full strings.Builder
	for {
		token, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("consume answer stream: %w", err)
		}
		full.WriteString(token)
		if onDelta != nil && token != "" {
			if err := onDelta(token); err != nil {
				return "", fmt.Errorf("deliver token: %w", err)
			}
		}
	}
	return full.String(), nil
}
