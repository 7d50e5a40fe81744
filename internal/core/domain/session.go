package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Immutable once appended; slice order is
// display order.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is the in-memory state of one interactive client: its transcript
// plus the identity of the most recently accepted upload, which drives chat
// routing until the next upload. Sessions never survive a process restart.
type Session struct {
	ID         string    `json:"id"`
	ActiveFile string    `json:"active_file,omitempty"`
	ActiveKind FileKind  `json:"active_kind,omitempty"`
	History    []Message `json:"history"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasActiveDocument reports whether chat routing is defined for the session.
func (s *Session) HasActiveDocument() bool {
	return s.ActiveFile != "" && (s.ActiveKind == FileKindPDF || s.ActiveKind == FileKindCSV)
}

// CacheKey identifies one uploaded file within one session. Re-uploading the
// same filename in the same session yields the same key, so the cached
// pipeline is reused instead of rebuilt.
type CacheKey struct {
	SessionID string
	Filename  string
}

func (k CacheKey) String() string {
	return k.SessionID + "/" + k.Filename
}
