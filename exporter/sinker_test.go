package exporter_test

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvspd/gvspd/exporter"
	"github.com/gvspd/gvspd/internal/json"
	"github.com/gvspd/gvspd/pixel"
	"github.com/gvspd/gvspd/session"
)

func TestNewRecordCopiesStats(t *testing.T) {
	m := pixel.Matrix{Rows: 2, Cols: 2, BitDepth: 8, U8: []uint8{1, 2, 3, 4}}
	stats := session.Stats{Checksum: 0xdeadbeef, Decode: 5 * time.Millisecond}

	r := exporter.NewRecord(m, stats)

	assert.Equal(t, uint64(0xdeadbeef), r.Checksum)
	assert.Equal(t, (5 * time.Millisecond).Nanoseconds(), r.DecodeNanos)
	assert.Equal(t, 2, r.Rows)
	assert.Equal(t, 2, r.Cols)
	assert.Equal(t, 8, r.BitDepth)
}

func TestSinkerConsoleWritesNDJSON(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()

	s := exporter.New(&exporter.Config{Console: true})
	m := pixel.Matrix{Rows: 1, Cols: 1, BitDepth: 8, U8: []uint8{42}}
	require.NoError(t, s.Sink(exporter.NewRecord(m, session.Stats{})))
	require.NoError(t, s.Close())
	w.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)

	scanner := bufio.NewScanner(&buf)
	require.True(t, scanner.Scan())

	var decoded exporter.Record
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.Rows)
	assert.Equal(t, 1, decoded.Cols)
}

func TestSinkerFileRotationConfigured(t *testing.T) {
	dir := t.TempDir()
	cfg := &exporter.Config{Filename: filepath.Join(dir, "frames.log")}
	s := exporter.New(cfg)

	m := pixel.Matrix{Rows: 4, Cols: 4, BitDepth: 12, U16: make([]uint16, 16)}
	require.NoError(t, s.Sink(exporter.NewRecord(m, session.Stats{})))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(cfg.Filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rows":4`)
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &exporter.Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, "frames.log", cfg.Filename)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 7, cfg.MaxAge)
	assert.Equal(t, 10, cfg.MaxBackups)
}
