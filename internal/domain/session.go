package domain

import "github.com/google/uuid"

type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

type SessionKind string

const (
	KindRecording SessionKind = "recording"
	KindSpectate  SessionKind = "spectate"
)

// SessionState follows Starting → Bound → Streaming → Finalizing → Closed.
// Spectate sessions skip Finalizing.
type SessionState int32

const (
	SessionStarting SessionState = iota
	SessionBound
	SessionStreaming
	SessionFinalizing
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionStarting:
		return "starting"
	case SessionBound:
		return "bound"
	case SessionStreaming:
		return "streaming"
	case SessionFinalizing:
		return "finalizing"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AccessGrant is a signed URL for exactly one WebSocket connection attempt.
type AccessGrant struct {
	URL       string
	SessionID SessionID
}
