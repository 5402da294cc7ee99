package core

import (
	"context"

	"github.com/dkeye/replayrelay/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

// Chunk is one read from the inbound game socket, shared read-only by every
// consumer of the stream.
type Chunk []byte

// AccessProvider hands out a signed WebSocket URL. Grants are fetched per
// connection attempt and never reused.
type AccessProvider interface {
	Fetch(ctx context.Context, sid domain.SessionID) (domain.AccessGrant, error)
}

// GameSource is the read-only view of the games currently tracked.
type GameSource interface {
	Game(id domain.GameID) (domain.GameInfo, bool)
}

// PlayerDirectory resolves players that are currently online.
type PlayerDirectory interface {
	OnlinePlayer(id domain.PlayerID) (domain.PlayerInfo, bool)
}

// Identity is the logged in user doing the recording.
type Identity interface {
	Username() string
}

// ReplayPersister writes a finished replay and returns where it went.
type ReplayPersister interface {
	Persist(data []byte, meta *domain.ReplayMetadata) (string, error)
}

// StaticIdentity is an Identity with a fixed name.
type StaticIdentity string

func (s StaticIdentity) Username() string { return string(s) }
