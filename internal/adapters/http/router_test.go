package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/replayrelay/internal/adapters/gamestate"
	"github.com/dkeye/replayrelay/internal/adapters/replayfile"
	"github.com/dkeye/replayrelay/internal/adapters/ws"
	"github.com/dkeye/replayrelay/internal/app"
	"github.com/dkeye/replayrelay/internal/app/orch"
	"github.com/dkeye/replayrelay/internal/config"
	"github.com/dkeye/replayrelay/internal/core"
	"github.com/dkeye/replayrelay/internal/core/mocks"
	"github.com/dkeye/replayrelay/internal/domain"
)

func newTestRouter(t *testing.T) (http.Handler, *orch.Orchestrator, *gamestate.Tracker) {
	t.Helper()
	ctrl := gomock.NewController(t)
	access := mocks.NewMockAccessProvider(ctrl)
	access.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		Return(domain.AccessGrant{}, errors.New("unavailable")).AnyTimes()

	tracker := gamestate.NewTracker()
	o := &orch.Orchestrator{
		Registry:  app.NewRegistry(),
		Access:    access,
		Games:     tracker,
		Players:   tracker,
		Identity:  core.StaticIdentity("tester"),
		Persister: replayfile.NewWriter(t.TempDir()),
		Dialer:    ws.Dialer{HandshakeTimeout: time.Second},
		BindHost:  "127.0.0.1",
	}
	t.Cleanup(o.StopAll)
	return SetupRouter(&config.Config{Mode: "release"}, o, tracker), o, tracker
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStartRecording_ReturnsPort(t *testing.T) {
	h, o, _ := newTestRouter(t)

	rec := do(h, http.MethodPost, "/api/replays", `{"game_id": 12}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var started orch.Started
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if started.Port == 0 || started.SessionID == "" {
		t.Fatalf("started = %+v", started)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}

	if rec := do(h, http.MethodPost, "/api/replays", `{"game_id": 12}`); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rec.Code)
	}

	rec = do(h, http.MethodGet, "/api/sessions", "")
	var list struct {
		Sessions []app.SessionInfo `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(list.Sessions) != 1 || list.Sessions[0].GameID != 12 || list.Sessions[0].Kind != domain.KindRecording {
		t.Fatalf("sessions = %+v", list.Sessions)
	}

	if rec := do(h, http.MethodDelete, "/api/sessions/"+string(started.SessionID), ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	deadline := time.Now().Add(5 * time.Second)
	for o.Registry.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not unbound after stop")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartRecording_BadRequest(t *testing.T) {
	h, _, _ := newTestRouter(t)
	for _, body := range []string{``, `{}`, `{"game_id": "x"}`} {
		if rec := do(h, http.MethodPost, "/api/replays", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d", body, rec.Code)
		}
	}
}

func TestStartSpectate(t *testing.T) {
	h, _, _ := newTestRouter(t)
	rec := do(h, http.MethodPost, "/api/spectate", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStopSession_NotFound(t *testing.T) {
	h, _, _ := newTestRouter(t)
	if rec := do(h, http.MethodDelete, "/api/sessions/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGamesAndPlayers(t *testing.T) {
	h, _, tracker := newTestRouter(t)

	rec := do(h, http.MethodPut, "/api/games/9", `{"title":"t","host":"h","teams":{"1":[3]}}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("put game status = %d, body %s", rec.Code, rec.Body)
	}
	g, ok := tracker.Game(9)
	if !ok || g.ID != 9 || g.Title != "t" || g.Teams["1"][0] != 3 {
		t.Fatalf("tracked game = %+v, %v", g, ok)
	}

	if rec := do(h, http.MethodPut, "/api/players/3", `{"username":"three"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("put player status = %d", rec.Code)
	}
	if p, ok := tracker.OnlinePlayer(3); !ok || p.Username != "three" {
		t.Fatalf("player = %+v, %v", p, ok)
	}
	if rec := do(h, http.MethodPut, "/api/players/4", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("player without username status = %d", rec.Code)
	}

	if rec := do(h, http.MethodDelete, "/api/players/3", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete player status = %d", rec.Code)
	}
	if rec := do(h, http.MethodDelete, "/api/games/9", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete game status = %d", rec.Code)
	}
	if rec := do(h, http.MethodDelete, "/api/games/9", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
	if rec := do(h, http.MethodPut, "/api/games/abc", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}
}
