package http

import (
	"context"
	"io"
	"net/http"

	"github.com/mkarpov/docchat/internal/core/domain"
)

type uploadService interface {
	Upload(ctx context.Context, sessionID, filename string, body io.Reader) (*domain.Upload, error)
}

type chatService interface {
	Ask(ctx context.Context, sessionID, prompt string, onDelta func(token string) error) (domain.Message, error)
}

type sessionService interface {
	Ensure(id string) domain.Session
	History(id string) ([]domain.Message, error)
	Reset(id string) error
	Preview(id string) (*domain.Preview, error)
}

type uploadReader interface {
	GetByID(ctx context.Context, id string) (*domain.Upload, error)
}

type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	MaxUploadBytes int64
}

type Dependencies struct {
	Uploads  uploadService
	Chat     chatService
	Sessions sessionService
	Ledger   uploadReader

	// Instrument, when set, wraps the whole API surface (request counters,
	// latency histograms).
	Instrument func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig, deps Dependencies) http.Handler {
	h := &handler{
		uploads:        deps.Uploads,
		chat:           deps.Chat,
		sessions:       deps.Sessions,
		ledger:         deps.Ledger,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = 64 << 20
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("POST /v1/uploads", h.upload)
	mux.HandleFunc("GET /v1/uploads/{id}", h.uploadByID)
	mux.HandleFunc("POST /v1/chat", h.chatHandler)
	mux.HandleFunc("POST /v1/session/reset", h.resetSession)
	mux.HandleFunc("GET /v1/session/history", h.history)
	mux.HandleFunc("GET /v1/session/preview", h.preview)

	var root http.Handler = mux
	if deps.Instrument != nil {
		root = deps.Instrument(root)
	}
	root = backpressureMiddleware(root, cfg.MaxInFlight)
	root = rateLimitMiddleware(root, cfg.RateLimitRPS, cfg.RateLimitBurst)
	root = accessLogMiddleware(root)
	root = requestIDMiddleware(root)
	return root
}
