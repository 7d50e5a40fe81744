package http

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const sseDone = "[DONE]"

type sseTokenFrame struct {
	Token string `json:"token"`
}

type sseErrorFrame struct {
	Error string `json:"error"`
	Cause string `json:"cause"`
}

// chatStream answers over server-sent events: one data frame per token,
// then a terminal [DONE] frame. Errors raised before the first token map to
// regular HTTP statuses; once tokens have gone out, the error travels as a
// final frame because the status line is already committed.
func (h *handler) chatStream(w http.ResponseWriter, r *http.Request, sessionID, message string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", fmt.Errorf("streaming unsupported")))
		return
	}

	started := false
	start := func() {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	_, err := h.chat.Ask(r.Context(), sessionID, message, func(token string) error {
		if !started {
			start()
		}
		return writeSSEFrame(w, flusher, sseTokenFrame{Token: token})
	})
	if err != nil {
		if !started {
			writeError(w, r, err)
			return
		}
		status, code := statusForError(err)
		if status >= 500 {
			logServerError(r, status, err)
		}
		_ = writeSSEFrame(w, flusher, sseErrorFrame{Error: code, Cause: err.Error()})
		return
	}

	// An empty but successful answer still produces a well-formed stream.
	if !started {
		start()
	}
	fmt.Fprintf(w, "data: %s\n\n", sseDone)
	flusher.Flush()
}

func writeSSEFrame(w http.ResponseWriter, flusher http.Flusher, frame any) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal sse frame: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write sse frame: %w", err)
	}
	flusher.Flush()
	return nil
}
