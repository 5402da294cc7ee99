// Package replayfile reads and writes .fafreplay files: one line of JSON
// header, then base64 of a 4-byte big-endian length followed by the
// zlib-compressed replay stream.
package replayfile

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/replayrelay/internal/domain"
)

const Extension = ".fafreplay"

var ErrCorrupt = errors.New("replayfile: corrupt replay body")

// Writer persists finished replays under Dir.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Persist writes the replay atomically and returns the final path.
func (w *Writer) Persist(data []byte, meta *domain.ReplayMetadata) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create replay dir: %w", err)
	}
	tmp, err := os.CreateTemp(w.Dir, ".replay-*")
	if err != nil {
		return "", fmt.Errorf("create temp replay: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, data, meta); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp replay: %w", err)
	}
	path, err := claimName(tmp.Name(), w.Dir, FileName(meta))
	if err != nil {
		return "", err
	}

	log.Info().
		Str("module", "replayfile").
		Str("path", path).
		Int("bytes", len(data)).
		Msg("replay written")
	return path, nil
}

// maxNameAttempts bounds the "-2", "-3", ... suffixes tried for one replay.
const maxNameAttempts = 1000

// claimName links tmp into dir under name, or under name with a numeric
// suffix when that file already exists. Existing replays are never replaced.
func claimName(tmp, dir, name string) (string, error) {
	base := strings.TrimSuffix(name, Extension)
	for i := 1; i <= maxNameAttempts; i++ {
		candidate := name
		if i > 1 {
			candidate = base + "-" + strconv.Itoa(i) + Extension
		}
		path := filepath.Join(dir, candidate)
		err := os.Link(tmp, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("link replay: %w", err)
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

// FileName is "<uid>-<recorder>.fafreplay" with path separators removed
// from the recorder.
func FileName(meta *domain.ReplayMetadata) string {
	recorder := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, meta.Recorder)
	if recorder == "" {
		return meta.UID.String() + Extension
	}
	return meta.UID.String() + "-" + recorder + Extension
}

func Encode(out io.Writer, data []byte, meta *domain.ReplayMetadata) error {
	header, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal replay header: %w", err)
	}

	var body bytes.Buffer
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(data)))
	body.Write(size[:])
	zw := zlib.NewWriter(&body)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("compress replay: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress replay: %w", err)
	}

	bw := bufio.NewWriter(out)
	bw.Write(header)
	bw.WriteByte('\n')
	enc := base64.NewEncoder(base64.StdEncoding, bw)
	if _, err := enc.Write(body.Bytes()); err != nil {
		return fmt.Errorf("encode replay body: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode replay body: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write replay: %w", err)
	}
	return nil
}

func Decode(in io.Reader) (*domain.ReplayMetadata, []byte, error) {
	br := bufio.NewReader(in)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("read replay header: %w", err)
	}
	var meta domain.ReplayMetadata
	if err := json.Unmarshal(line, &meta); err != nil {
		return nil, nil, fmt.Errorf("parse replay header: %w", err)
	}

	raw, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, br))
	if err != nil {
		return nil, nil, fmt.Errorf("decode replay body: %w", err)
	}
	if len(raw) < 4 {
		return nil, nil, ErrCorrupt
	}
	size := binary.BigEndian.Uint32(raw[:4])
	zr, err := zlib.NewReader(bytes.NewReader(raw[4:]))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if uint32(len(data)) != size {
		return nil, nil, fmt.Errorf("%w: length %d, header says %d", ErrCorrupt, len(data), size)
	}
	return &meta, data, nil
}

func ReadFile(path string) (*domain.ReplayMetadata, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Decode(f)
}
