package gamestate

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/replayrelay/internal/domain"
)

// Tracker holds the games and online players the lobby currently knows
// about. Reads hand out copies.
type Tracker struct {
	mu      sync.RWMutex
	games   map[domain.GameID]domain.GameInfo
	players map[domain.PlayerID]domain.PlayerInfo
}

func NewTracker() *Tracker {
	return &Tracker{
		games:   make(map[domain.GameID]domain.GameInfo),
		players: make(map[domain.PlayerID]domain.PlayerInfo),
	}
}

func (t *Tracker) PutGame(g domain.GameInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.games[g.ID] = g.Clone()
	log.Debug().Str("module", "gamestate").Int("game_id", int(g.ID)).Msg("game updated")
}

func (t *Tracker) RemoveGame(id domain.GameID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.games[id]; !ok {
		return false
	}
	delete(t.games, id)
	log.Debug().Str("module", "gamestate").Int("game_id", int(id)).Msg("game removed")
	return true
}

func (t *Tracker) Game(id domain.GameID) (domain.GameInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g, ok := t.games[id]
	if !ok {
		return domain.GameInfo{}, false
	}
	return g.Clone(), true
}

func (t *Tracker) PlayerOnline(p domain.PlayerInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.players[p.ID] = p
	log.Debug().Str("module", "gamestate").Int("player_id", int(p.ID)).Str("username", p.Username).Msg("player online")
}

func (t *Tracker) PlayerOffline(id domain.PlayerID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.players[id]; !ok {
		return false
	}
	delete(t.players, id)
	log.Debug().Str("module", "gamestate").Int("player_id", int(id)).Msg("player offline")
	return true
}

func (t *Tracker) OnlinePlayer(id domain.PlayerID) (domain.PlayerInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.players[id]
	return p, ok
}
