package domain

import (
	"testing"
	"time"
)

func TestPythonTime_KeepsMilliseconds(t *testing.T) {
	ts := time.UnixMilli(1_700_000_000_123)
	if got := PythonTime(ts); got != 1_700_000_000.123 {
		t.Fatalf("PythonTime = %v, want 1700000000.123", got)
	}
}

func TestNewReplayMetadata_PhaseOne(t *testing.T) {
	m := NewReplayMetadata(42, "2024.1.0", time.UnixMilli(1500))

	if m.UID != 42 {
		t.Errorf("UID = %d, want 42", m.UID)
	}
	if m.LaunchedAt != 1.5 {
		t.Errorf("LaunchedAt = %v, want 1.5", m.LaunchedAt)
	}
	if len(m.VersionInfo) != 1 || m.VersionInfo["lobby"] != "dfaf-2024.1.0" {
		t.Errorf("VersionInfo = %v", m.VersionInfo)
	}
	if m.Complete || m.State != "" || m.Teams != nil || m.GameEnd != 0 {
		t.Errorf("phase-two fields set before Finish: %+v", m)
	}
}

func TestFinish_PhaseTwo(t *testing.T) {
	m := NewReplayMetadata(7, "1", time.UnixMilli(1000))
	game := GameInfo{
		ID:               7,
		Host:             "host",
		Title:            "title",
		MapFolderName:    "scmp_009",
		VictoryCondition: "demoralization",
		FeaturedMod:      "faf",
		MaxPlayers:       8,
		NumActivePlayers: 2,
		SimMods:          map[string]string{"uid-1": "Mod"},
	}
	teams := map[string][]string{"1": {"a"}, "2": {"b"}}

	m.Finish(game, teams, "me", time.UnixMilli(2250))

	if m.Host != "host" || m.Title != "title" || m.MapName != "scmp_009" {
		t.Errorf("game fields not copied: %+v", m)
	}
	if m.GameEnd != 2.25 {
		t.Errorf("GameEnd = %v, want 2.25", m.GameEnd)
	}
	if m.State != StateClosed || !m.Complete || m.Recorder != "me" {
		t.Errorf("terminal fields wrong: state=%q complete=%v recorder=%q", m.State, m.Complete, m.Recorder)
	}
	if m.FeaturedModVersions == nil || len(m.FeaturedModVersions) != 0 {
		t.Errorf("FeaturedModVersions = %v, want empty map", m.FeaturedModVersions)
	}
	game.SimMods["uid-2"] = "Other"
	if len(m.SimMods) != 1 {
		t.Errorf("SimMods aliases the game map")
	}
}

func TestClone_IsDeep(t *testing.T) {
	m := NewReplayMetadata(1, "1", time.Now())
	m.Teams = map[string][]string{"1": {"a"}}

	c := m.Clone()
	c.VersionInfo["lobby"] = "changed"
	c.Teams["1"][0] = "changed"

	if m.VersionInfo["lobby"] == "changed" || m.Teams["1"][0] == "changed" {
		t.Fatal("Clone shares state with the original")
	}
}

func TestSessionState_String(t *testing.T) {
	cases := map[SessionState]string{
		SessionStarting:   "starting",
		SessionBound:      "bound",
		SessionStreaming:  "streaming",
		SessionFinalizing: "finalizing",
		SessionClosed:     "closed",
		SessionState(99):  "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
