// Package domain contains entity without logic, just meta-data
package domain

import (
	"maps"
	"slices"
	"strconv"
	"time"
)

type GameID int

type PlayerID int

// StateClosed is the terminal status written into a finished replay header.
const StateClosed = "closed"

// ReplayMetadata is the replay header. Phase one is filled by
// NewReplayMetadata when a recording starts, phase two by Finish once the
// stream has ended. It is not safe for concurrent mutation.
type ReplayMetadata struct {
	UID                 GameID              `json:"uid"`
	LaunchedAt          float64             `json:"launched_at"`
	VersionInfo         map[string]string   `json:"version_info"`
	Host                string              `json:"host"`
	Title               string              `json:"title"`
	MapName             string              `json:"mapname"`
	VictoryCondition    string              `json:"victory_condition"`
	FeaturedMod         string              `json:"featured_mod"`
	MaxPlayers          int                 `json:"max_players"`
	NumPlayers          int                 `json:"num_players"`
	SimMods             map[string]string   `json:"sim_mods"`
	Teams               map[string][]string `json:"teams"`
	FeaturedModVersions map[string]int      `json:"featured_mod_versions"`
	GameEnd             float64             `json:"game_end"`
	Recorder            string              `json:"recorder"`
	State               string              `json:"state"`
	Complete            bool                `json:"complete"`
}

// PythonTime returns t as fractional seconds since the epoch with
// millisecond precision, the format replay headers have always used.
func PythonTime(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

func NewReplayMetadata(id GameID, lobbyVersion string, launchedAt time.Time) *ReplayMetadata {
	return &ReplayMetadata{
		UID:        id,
		LaunchedAt: PythonTime(launchedAt),
		VersionInfo: map[string]string{
			"lobby": "dfaf-" + lobbyVersion,
		},
	}
}

// Finish stamps the phase-two fields from the live game. teams must already
// be resolved to usernames.
func (m *ReplayMetadata) Finish(game GameInfo, teams map[string][]string, recorder string, endedAt time.Time) {
	m.Host = game.Host
	m.UID = game.ID
	m.Title = game.Title
	m.MapName = game.MapFolderName
	m.VictoryCondition = game.VictoryCondition
	m.FeaturedMod = game.FeaturedMod
	m.MaxPlayers = game.MaxPlayers
	m.NumPlayers = game.NumActivePlayers
	m.SimMods = maps.Clone(game.SimMods)
	if m.SimMods == nil {
		m.SimMods = map[string]string{}
	}
	m.Teams = teams
	if m.Teams == nil {
		m.Teams = map[string][]string{}
	}
	m.FeaturedModVersions = map[string]int{}
	m.GameEnd = PythonTime(endedAt)
	m.Recorder = recorder
	m.State = StateClosed
	m.Complete = true
}

func (m *ReplayMetadata) Clone() *ReplayMetadata {
	c := *m
	c.VersionInfo = maps.Clone(m.VersionInfo)
	c.SimMods = maps.Clone(m.SimMods)
	c.FeaturedModVersions = maps.Clone(m.FeaturedModVersions)
	if m.Teams != nil {
		c.Teams = make(map[string][]string, len(m.Teams))
		for k, v := range m.Teams {
			c.Teams[k] = slices.Clone(v)
		}
	}
	return &c
}

// GameInfo is the live view of a tracked game.
type GameInfo struct {
	ID               GameID                `json:"id"`
	Host             string                `json:"host"`
	Title            string                `json:"title"`
	MapFolderName    string                `json:"map_folder_name"`
	VictoryCondition string                `json:"victory_condition"`
	FeaturedMod      string                `json:"featured_mod"`
	MaxPlayers       int                   `json:"max_players"`
	NumActivePlayers int                   `json:"num_active_players"`
	SimMods          map[string]string     `json:"sim_mods"`
	Teams            map[string][]PlayerID `json:"teams"`
}

func (g GameInfo) Clone() GameInfo {
	c := g
	c.SimMods = maps.Clone(g.SimMods)
	if g.Teams != nil {
		c.Teams = make(map[string][]PlayerID, len(g.Teams))
		for k, v := range g.Teams {
			c.Teams[k] = slices.Clone(v)
		}
	}
	return c
}

type PlayerInfo struct {
	ID       PlayerID `json:"id"`
	Username string   `json:"username"`
}

func (id GameID) String() string { return strconv.Itoa(int(id)) }
