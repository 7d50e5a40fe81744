package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	httpadapter "github.com/mkarpov/docchat/internal/adapters/http"
	"github.com/mkarpov/docchat/internal/config"
	"github.com/mkarpov/docchat/internal/core/usecase"
	"github.com/mkarpov/docchat/internal/infrastructure/cache"
	"github.com/mkarpov/docchat/internal/infrastructure/chunking"
	natsevents "github.com/mkarpov/docchat/internal/infrastructure/events/nats"
	"github.com/mkarpov/docchat/internal/infrastructure/extractor/pdfdoc"
	"github.com/mkarpov/docchat/internal/infrastructure/llm/ollama"
	"github.com/mkarpov/docchat/internal/infrastructure/repository/postgres"
	"github.com/mkarpov/docchat/internal/infrastructure/resilience"
	"github.com/mkarpov/docchat/internal/infrastructure/session/memory"
	"github.com/mkarpov/docchat/internal/infrastructure/storage/scratch"
	"github.com/mkarpov/docchat/internal/infrastructure/tabular"
	"github.com/mkarpov/docchat/internal/infrastructure/vector/qdrant"
	"github.com/mkarpov/docchat/internal/observability/metrics"
)

// App wires every adapter behind the use cases and exposes the two HTTP
// surfaces: the API router and the metrics endpoint.
type App struct {
	Router         http.Handler
	MetricsHandler http.Handler

	db     *sql.DB
	events *natsevents.Publisher
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("bootstrap postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	uploadRepo := postgres.NewUploadRepository(db)

	events, err := natsevents.NewWithOptions(cfg.NATSURL, cfg.NATSSubjectPrefix, natsevents.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap nats: %w", err)
	}

	storage, err := scratch.New(cfg.ScratchDir)
	if err != nil {
		events.Close()
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap scratch storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTP(registry)
	pipelineMetrics := metrics.NewPipeline(registry)

	llm := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).
		WithExecutor(resilience.NewExecutor(resilience.DefaultConfig()))
	embedder := ollama.NewEmbedder(llm)
	generator := ollama.NewGenerator(llm)

	docBuilder := metrics.InstrumentDocumentBuilder(
		usecase.NewDocumentPipelineBuilder(
			pdfdoc.NewExtractor(),
			chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
			embedder,
			qdrant.New(cfg.QdrantURL, cfg.QdrantCollection),
			generator,
			cfg.RAGTopK,
			cfg.PDFPreviewMaxRunes,
		),
		pipelineMetrics,
	)
	tableBuilder := metrics.InstrumentTableBuilder(
		tabular.NewAgentBuilder(generator, cfg.TableMaxRows),
		pipelineMetrics,
	)

	pipelines := cache.New(pipelineMetrics)
	sessions := memory.NewStore()

	uploadUC := usecase.NewUploadUseCase(
		sessions,
		pipelines,
		docBuilder,
		tableBuilder,
		storage,
		uploadRepo,
		events,
		time.Duration(cfg.BuildTimeoutSeconds)*time.Second,
	)
	chatUC := usecase.NewChatUseCase(sessions, pipelines, time.Duration(cfg.QueryTimeoutSeconds)*time.Second)
	sessionUC := usecase.NewSessionUseCase(sessions, pipelines)

	router := httpadapter.NewRouter(
		httpadapter.RouterConfig{
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxInFlight:    cfg.APIMaxInFlight,
			MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		},
		httpadapter.Dependencies{
			Uploads:    uploadUC,
			Chat:       chatUC,
			Sessions:   sessionUC,
			Ledger:     uploadRepo,
			Instrument: httpMetrics.Instrument,
		},
	)

	return &App{
		Router:         router,
		MetricsHandler: httpMetrics.Handler(),
		db:             db,
		events:         events,
	}, nil
}

func (a *App) Close() error {
	a.events.Close()
	return a.db.Close()
}
