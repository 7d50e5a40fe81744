package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkarpov/docchat/internal/core/domain"
)

const sessionHeader = "X-Session-Id"

type handler struct {
	uploads        uploadService
	chat           chatService
	sessions       sessionService
	ledger         uploadReader
	maxUploadBytes int64
}

// resolveSession maps the caller's session header to a live session,
// creating one when the header is blank or stale, and echoes the canonical
// id back so the client can persist it.
func (h *handler) resolveSession(w http.ResponseWriter, r *http.Request) domain.Session {
	sess := h.sessions.Ensure(r.Header.Get(sessionHeader))
	w.Header().Set(sessionHeader, sess.ID)
	return sess
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "read multipart", err))
		return
	}
	defer file.Close()

	upload, err := h.uploads.Upload(r.Context(), sess.ID, header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, upload)
}

func (h *handler) uploadByID(w http.ResponseWriter, r *http.Request) {
	upload, err := h.ledger.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upload)
}

type chatRequest struct {
	Message string `json:"message"`
	Stream  bool   `json:"stream"`
}

type chatResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *handler) chatHandler(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "decode chat request", err))
		return
	}

	if req.Stream {
		h.chatStream(w, r, sess.ID, req.Message)
		return
	}

	answer, err := h.chat.Ask(r.Context(), sess.ID, req.Message, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Role: string(answer.Role), Content: answer.Content})
}

func (h *handler) resetSession(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if err := h.sessions.Reset(sess.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "session_id": sess.ID})
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	messages, err := h.sessions.History(sess.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"messages":   messages,
	})
}

func (h *handler) preview(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	preview, err := h.sessions.Preview(sess.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("upload too large", err))
		return
	}
	status, code := statusForError(err)
	writeJSON(w, status, errorBody(code, err))
	if status >= 500 {
		logServerError(r, status, err)
	}
}

func errorBody(code string, err error) map[string]string {
	return map[string]string{
		"error": code,
		"cause": err.Error(),
	}
}
