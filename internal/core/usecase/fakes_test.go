package usecase

import (
	"context"
	"io"
	"sync"

	"github.com/mkarpov/docchat/internal/core/domain"
	"github.com/mkarpov/docchat/internal/core/ports"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*domain.Session{}}
}

func (f *fakeSessions) add(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = &domain.Session{ID: id, History: []domain.Message{}}
}

func (f *fakeSessions) Ensure(id string) (domain.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != "" {
		if s, ok := f.sessions[id]; ok {
			return *s, false
		}
	}
	if id == "" {
		id = "generated"
	}
	f.sessions[id] = &domain.Session{ID: id, History: []domain.Message{}}
	return *f.sessions[id], true
}

func (f *fakeSessions) Get(id string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *s, nil
}

func (f *fakeSessions) AppendMessage(id string, msg domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.History = append(s.History, msg)
	return nil
}

func (f *fakeSessions) SetActiveFile(id, filename string, kind domain.FileKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.ActiveFile = filename
	s.ActiveKind = kind
	return nil
}

func (f *fakeSessions) History(id string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]domain.Message, len(s.History))
	copy(out, s.History)
	return out, nil
}

func (f *fakeSessions) Reset(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.History = []domain.Message{}
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]ports.Pipeline
	builds  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]ports.Pipeline{}}
}

func (f *fakeCache) GetOrBuild(
	ctx context.Context,
	key domain.CacheKey,
	build func(context.Context) (ports.Pipeline, error),
) (ports.Pipeline, error) {
	f.mu.Lock()
	if p, ok := f.entries[key.String()]; ok {
		f.mu.Unlock()
		return p, nil
	}
	f.builds++
	f.mu.Unlock()

	p, err := build(ctx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.entries[key.String()] = p
	f.mu.Unlock()
	return p, nil
}

func (f *fakeCache) Get(key domain.CacheKey) (ports.Pipeline, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.entries[key.String()]
	return p, ok
}

func (f *fakeCache) put(key domain.CacheKey, p ports.Pipeline) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key.String()] = p
}

type fakeTokenStream struct {
	tokens []string
	pos    int
	closed bool
}

func (s *fakeTokenStream) Recv() (string, error) {
	if s.pos >= len(s.tokens) {
		return "", io.EOF
	}
	token := s.tokens[s.pos]
	s.pos++
	return token, nil
}

func (s *fakeTokenStream) Close() error {
	s.closed = true
	return nil
}

type fakeDocPipeline struct {
	tokens     []string
	queryErr   error
	lastStream *fakeTokenStream
	preview    string
}

func (p *fakeDocPipeline) Kind() domain.FileKind { return domain.FileKindPDF }
func (p *fakeDocPipeline) Preview() string       { return p.preview }

func (p *fakeDocPipeline) Query(context.Context, string) (ports.TokenStream, error) {
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	p.lastStream = &fakeTokenStream{tokens: p.tokens}
	return p.lastStream, nil
}

type fakeTablePipeline struct {
	answer   string
	queryErr error
	queries  int
	preview  string
}

func (p *fakeTablePipeline) Kind() domain.FileKind { return domain.FileKindCSV }
func (p *fakeTablePipeline) Preview() string       { return p.preview }

func (p *fakeTablePipeline) Query(context.Context, string) (string, error) {
	p.queries++
	if p.queryErr != nil {
		return "", p.queryErr
	}
	return p.answer, nil
}

type fakeDocBuilder struct {
	pipeline ports.DocumentPipeline
	err      error
	calls    int
}

func (b *fakeDocBuilder) Build(context.Context, domain.CacheKey, string) (ports.DocumentPipeline, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.pipeline, nil
}

type fakeTableBuilder struct {
	pipeline ports.TablePipeline
	err      error
	calls    int
}

func (b *fakeTableBuilder) Build(context.Context, string) (ports.TablePipeline, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.pipeline, nil
}

type fakeScratch struct {
	err      error
	cleanups int
}

func (f *fakeScratch) Write(_ context.Context, scope, filename string, data io.Reader) (string, func(), error) {
	if f.err != nil {
		return "", nil, f.err
	}
	_, _ = io.Copy(io.Discard, data)
	return "/scratch/" + scope + "/" + filename, func() { f.cleanups++ }, nil
}

type fakeUploadRepo struct {
	mu       sync.Mutex
	records  map[string]*domain.Upload
	statuses []domain.UploadStatus
}

func newFakeUploadRepo() *fakeUploadRepo {
	return &fakeUploadRepo{records: map[string]*domain.Upload{}}
}

func (r *fakeUploadRepo) Create(_ context.Context, upload *domain.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *upload
	r.records[upload.ID] = &stored
	r.statuses = append(r.statuses, upload.Status)
	return nil
}

func (r *fakeUploadRepo) GetByID(_ context.Context, id string) (*domain.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.records[id]
	if !ok {
		return nil, domain.ErrUploadNotFound
	}
	out := *u
	return &out, nil
}

func (r *fakeUploadRepo) UpdateStatus(_ context.Context, id string, status domain.UploadStatus, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.records[id]
	if !ok {
		return domain.ErrUploadNotFound
	}
	u.Status = status
	u.Error = errMessage
	r.statuses = append(r.statuses, status)
	return nil
}

type fakeEvents struct {
	accepted, ready, failed int
	acceptErr               error
}

func (e *fakeEvents) PublishUploadAccepted(context.Context, string) error {
	e.accepted++
	return e.acceptErr
}

func (e *fakeEvents) PublishPipelineReady(context.Context, string) error {
	e.ready++
	return nil
}

func (e *fakeEvents) PublishPipelineFailed(context.Context, string) error {
	e.failed++
	return nil
}
