package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkarpov/docchat/internal/core/domain"
	"github.com/mkarpov/docchat/internal/core/ports"
)

// UploadUseCase accepts one file, classifies it, and builds (or reuses) the
// processing pipeline for it. The build runs inline: when Upload returns
// successfully the session's active document is ready to chat with.
type UploadUseCase struct {
	sessions     ports.SessionStore
	cache        ports.PipelineCache
	docBuilder   ports.DocumentPipelineBuilder
	tableBuilder ports.TablePipelineBuilder
	scratch      ports.ScratchStorage
	repo         ports.UploadRepository
	events       ports.EventPublisher
	buildTimeout time.Duration
}

func NewUploadUseCase(
	sessions ports.SessionStore,
	cache ports.PipelineCache,
	docBuilder ports.DocumentPipelineBuilder,
	tableBuilder ports.TablePipelineBuilder,
	scratch ports.ScratchStorage,
	repo ports.UploadRepository,
	events ports.EventPublisher,
	buildTimeout time.Duration,
) *UploadUseCase {
	if buildTimeout <= 0 {
		buildTimeout = 5 * time.Minute
	}
	return &UploadUseCase{
		sessions:     sessions,
		cache:        cache,
		docBuilder:   docBuilder,
		tableBuilder: tableBuilder,
		scratch:      scratch,
		repo:         repo,
		events:       events,
		buildTimeout: buildTimeout,
	}
}

func (uc *UploadUseCase) Upload(
	ctx context.Context,
	sessionID, filename string,
	body io.Reader,
) (*domain.Upload, error) {
	kind := domain.ClassifyFilename(filename)
	if kind == domain.FileKindUnsupported {
		return nil, domain.WrapError(
			domain.ErrUnsupportedFormat,
			"classify upload",
			fmt.Errorf("filename %q: only .pdf and .csv are accepted", filename),
		)
	}

	now := time.Now().UTC()
	upload := &domain.Upload{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Filename:  filename,
		Kind:      kind,
		Status:    domain.StatusReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, upload); err != nil {
		return nil, fmt.Errorf("record upload: %w", err)
	}
	// Event publishing is fire-and-forget: a dead sink must never block
	// the upload itself.
	if err := uc.events.PublishUploadAccepted(ctx, upload.ID); err != nil {
		slog.Warn("publish upload accepted event", "upload_id", upload.ID, "error", err)
	}

	path, cleanup, err := uc.scratch.Write(ctx, upload.ID, filename, body)
	if err != nil {
		err = domain.WrapError(domain.ErrUploadRead, "stage upload", err)
		uc.markFailed(ctx, upload, err)
		return nil, err
	}
	defer cleanup()

	if err := uc.repo.UpdateStatus(ctx, upload.ID, domain.StatusBuilding, ""); err != nil {
		return nil, fmt.Errorf("set status=building: %w", err)
	}

	buildCtx, cancel := context.WithTimeout(ctx, uc.buildTimeout)
	defer cancel()

	key := domain.CacheKey{SessionID: sessionID, Filename: filename}
	_, err = uc.cache.GetOrBuild(buildCtx, key, func(ctx context.Context) (ports.Pipeline, error) {
		switch kind {
		case domain.FileKindPDF:
			return uc.docBuilder.Build(ctx, key, path)
		default:
			return uc.tableBuilder.Build(ctx, path)
		}
	})
	if err != nil {
		err = classifyBuildError(err)
		uc.markFailed(ctx, upload, err)
		return nil, err
	}

	if err := uc.sessions.SetActiveFile(sessionID, filename, kind); err != nil {
		return nil, fmt.Errorf("activate upload: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, upload.ID, domain.StatusReady, ""); err != nil {
		return nil, fmt.Errorf("set status=ready: %w", err)
	}
	if err := uc.events.PublishPipelineReady(ctx, upload.ID); err != nil {
		slog.Warn("publish pipeline ready event", "upload_id", upload.ID, "error", err)
	}

	upload.Status = domain.StatusReady
	upload.UpdatedAt = time.Now().UTC()
	return upload, nil
}

// classifyBuildError keeps already-typed failures (parse errors stay parse
// errors) and folds everything else into the build failure class.
func classifyBuildError(err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrParse),
		domain.IsKind(err, domain.ErrPipelineBuild),
		domain.IsKind(err, domain.ErrTemporary):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return domain.WrapError(domain.ErrPipelineBuild, "build pipeline", fmt.Errorf("deadline exceeded: %w", err))
	default:
		return domain.WrapError(domain.ErrPipelineBuild, "build pipeline", err)
	}
}

func (uc *UploadUseCase) markFailed(ctx context.Context, upload *domain.Upload, cause error) {
	if err := uc.repo.UpdateStatus(ctx, upload.ID, domain.StatusFailed, cause.Error()); err != nil {
		slog.Error("mark upload failed", "upload_id", upload.ID, "error", err)
	}
	if err := uc.events.PublishPipelineFailed(ctx, upload.ID); err != nil {
		slog.Warn("publish pipeline failed event", "upload_id", upload.ID, "error", err)
	}
	upload.Status = domain.StatusFailed
	upload.Error = cause.Error()
}
