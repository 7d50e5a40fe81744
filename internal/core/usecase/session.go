package usecase

import (
	"fmt"

	"github.com/mkarpov/docchat/internal/core/domain"
	"github.com/mkarpov/docchat/internal/core/ports"
)

// SessionUseCase owns the session lifecycle: lazy creation on first
// interaction, history reads, preview of the active upload, and the reset
// control. Reset clears the transcript only; cached pipelines survive so
// re-asking after a reset never rebuilds them.
type SessionUseCase struct {
	sessions ports.SessionStore
	cache    ports.PipelineCache
}

func NewSessionUseCase(sessions ports.SessionStore, cache ports.PipelineCache) *SessionUseCase {
	return &SessionUseCase{
		sessions: sessions,
		cache:    cache,
	}
}

// Ensure returns the session for id, creating a fresh one (empty history,
// empty cache namespace) when id is blank or unknown.
func (uc *SessionUseCase) Ensure(id string) domain.Session {
	sess, _ := uc.sessions.Ensure(id)
	return sess
}

func (uc *SessionUseCase) History(id string) ([]domain.Message, error) {
	return uc.sessions.History(id)
}

func (uc *SessionUseCase) Reset(id string) error {
	return uc.sessions.Reset(id)
}

// Preview returns an excerpt of the active upload's contents, served from
// the cached pipeline so the reclaimed temp file is never needed.
func (uc *SessionUseCase) Preview(id string) (*domain.Preview, error) {
	sess, err := uc.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if !sess.HasActiveDocument() {
		return nil, domain.WrapError(
			domain.ErrNoActiveDocument,
			"preview",
			fmt.Errorf("session %s has no accepted upload", id),
		)
	}

	key := domain.CacheKey{SessionID: sess.ID, Filename: sess.ActiveFile}
	pipeline, ok := uc.cache.Get(key)
	if !ok {
		return nil, domain.WrapError(
			domain.ErrNoActiveDocument,
			"preview",
			fmt.Errorf("no pipeline for %s", sess.ActiveFile),
		)
	}

	return &domain.Preview{
		Filename: sess.ActiveFile,
		Kind:     pipeline.Kind(),
		Content:  pipeline.Preview(),
	}, nil
}
