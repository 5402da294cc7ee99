package replayfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/replayrelay/internal/domain"
)

func finishedMeta() *domain.ReplayMetadata {
	m := domain.NewReplayMetadata(1234, "1.0", time.UnixMilli(1000))
	m.Finish(domain.GameInfo{ID: 1234, Host: "host", Title: "t"}, map[string][]string{"1": {"a"}}, "rec", time.UnixMilli(5000))
	return m
}

func TestPersist_WritesReadableFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	w := NewWriter(dir)
	data := bytes.Repeat([]byte("replay-bytes\x00"), 100)

	path, err := w.Persist(data, finishedMeta())
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if want := filepath.Join(dir, "1234-rec.fafreplay"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}

	meta, got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("body mismatch: got %d bytes, want %d", len(got), len(data))
	}
	if !meta.Complete || meta.State != domain.StateClosed || meta.Teams["1"][0] != "a" {
		t.Fatalf("header not preserved: %+v", meta)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the replay in %s, found %d entries", dir, len(entries))
	}
}

func TestEncode_HeaderIsFirstLine(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil, finishedMeta()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	header, _, ok := strings.Cut(buf.String(), "\n")
	if !ok {
		t.Fatal("no newline after header")
	}
	if !strings.Contains(header, `"uid":1234`) || !strings.Contains(header, `"complete":true`) {
		t.Fatalf("unexpected header %s", header)
	}
}

func TestEncode_FinishedHeaderKeepsEmptyFields(t *testing.T) {
	m := domain.NewReplayMetadata(7, "1", time.UnixMilli(1000))
	m.Finish(domain.GameInfo{ID: 7}, nil, "me", time.UnixMilli(2000))

	var buf bytes.Buffer
	if err := Encode(&buf, []byte("x"), m); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	header, _, _ := strings.Cut(buf.String(), "\n")
	for _, field := range []string{
		`"featured_mod_versions":{}`,
		`"teams":{}`,
		`"sim_mods":{}`,
		`"num_players":0`,
		`"max_players":0`,
		`"host":""`,
	} {
		if !strings.Contains(header, field) {
			t.Errorf("header lacks %s: %s", field, header)
		}
	}

	got, _, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.FeaturedModVersions == nil || got.Teams == nil || got.SimMods == nil {
		t.Fatalf("empty maps lost in round trip: %+v", got)
	}
}

func TestPersist_DoesNotOverwriteEarlierReplay(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	var paths []string
	for _, body := range []string{"first", "second", "third"} {
		path, err := w.Persist([]byte(body), finishedMeta())
		if err != nil {
			t.Fatalf("Persist %s: %v", body, err)
		}
		paths = append(paths, path)
	}

	want := []string{"1234-rec.fafreplay", "1234-rec-2.fafreplay", "1234-rec-3.fafreplay"}
	for i, body := range []string{"first", "second", "third"} {
		if filepath.Base(paths[i]) != want[i] {
			t.Errorf("path[%d] = %s, want %s", i, paths[i], want[i])
		}
		_, data, err := ReadFile(paths[i])
		if err != nil {
			t.Fatalf("ReadFile %s: %v", paths[i], err)
		}
		if string(data) != body {
			t.Errorf("%s holds %q, want %q", paths[i], data, body)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("found %d entries, want 3 replays and no temp files", len(entries))
	}
}

func TestDecode_EmptyBody(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []byte{}, finishedMeta()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, data, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("data = %v, want empty", data)
	}
}

func TestDecode_Corrupt(t *testing.T) {
	_, _, err := Decode(strings.NewReader("{\"uid\":1}\nAAA="))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}

func TestFileName(t *testing.T) {
	cases := []struct {
		recorder string
		want     string
	}{
		{"", "7.fafreplay"},
		{"alice", "7-alice.fafreplay"},
		{"a/b", "7-a_b.fafreplay"},
	}
	for _, tc := range cases {
		m := &domain.ReplayMetadata{UID: 7, Recorder: tc.recorder}
		if got := FileName(m); got != tc.want {
			t.Errorf("FileName(%q) = %q, want %q", tc.recorder, got, tc.want)
		}
	}
}
