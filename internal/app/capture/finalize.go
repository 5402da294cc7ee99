package capture

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkeye/replayrelay/internal/core"
	"github.com/dkeye/replayrelay/internal/domain"
)

var ErrGameNotTracked = errors.New("game is no longer tracked")

// finalize stamps phase two of meta from the live game and persists data.
// It must only run once the local stream has fully drained.
func (s *Server) finalize(meta *domain.ReplayMetadata, data []byte, logger *zerolog.Logger) error {
	game, ok := s.opts.Games.Game(s.gameID)
	if !ok {
		return fmt.Errorf("finish replay %d: %w", s.gameID, ErrGameNotTracked)
	}

	teams := resolveTeams(game.Teams, s.opts.Players)
	meta.Finish(game, teams, s.opts.Identity.Username(), s.now())

	path, err := s.opts.Persister.Persist(data, meta)
	if err != nil {
		return fmt.Errorf("write replay %d: %w", s.gameID, err)
	}
	logger.Info().Str("path", path).Int("bytes", len(data)).Msg("replay saved")
	return nil
}

// resolveTeams maps each team to the usernames of its players that are
// online right now, keeping team order. Offline players are left out.
func resolveTeams(teams map[string][]domain.PlayerID, players core.PlayerDirectory) map[string][]string {
	out := make(map[string][]string, len(teams))
	for team, ids := range teams {
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			if p, ok := players.OnlinePlayer(id); ok {
				names = append(names, p.Username)
			}
		}
		out[team] = names
	}
	return out
}
