package domain

import "time"

type UploadStatus string

const (
	StatusReceived UploadStatus = "received"
	StatusBuilding UploadStatus = "building"
	StatusReady    UploadStatus = "ready"
	StatusFailed   UploadStatus = "failed"
)

// Upload is the ledger record of one upload attempt. The record outlives the
// session only as an audit trail; pipelines and history stay in memory.
type Upload struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id"`
	Filename  string       `json:"filename"`
	Kind      FileKind     `json:"kind"`
	Status    UploadStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
