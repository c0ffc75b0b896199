// Package exporter turns completed frames into newline-delimited JSON
// records on stdout or a rotated log file, for integration testing and
// offline debugging without wiring a custom frame callback.
package exporter

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gvspd/gvspd/internal/fasttime"
	"github.com/gvspd/gvspd/internal/json"
	"github.com/gvspd/gvspd/pixel"
	"github.com/gvspd/gvspd/session"
)

// Record is one completed-frame observation.
type Record struct {
	Timestamp   int64  `json:"timestamp"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	BitDepth    int    `json:"bitDepth"`
	Checksum    uint64 `json:"checksum"`
	DecodeNanos int64  `json:"decodeNanos"`
}

// NewRecord builds a Record from a decoded matrix and the Stats its
// session reported alongside it.
func NewRecord(m pixel.Matrix, stats session.Stats) Record {
	return Record{
		Timestamp:   fasttime.UnixTimestamp(),
		Rows:        m.Rows,
		Cols:        m.Cols,
		BitDepth:    int(m.BitDepth),
		Checksum:    stats.Checksum,
		DecodeNanos: stats.Decode.Nanoseconds(),
	}
}

// Sinker writes frame records to their configured destination.
type Sinker struct {
	wr      io.WriteCloser
	encoder json.Encoder
}

// New builds a Sinker from cfg. cfg is mutated in place by
// ApplyDefaults if the caller has not already called it.
func New(cfg *Config) *Sinker {
	cfg.ApplyDefaults()

	var wr io.WriteCloser
	if cfg.Console {
		wr = os.Stdout
	} else {
		wr = &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			LocalTime:  true,
		}
	}

	return &Sinker{wr: wr, encoder: json.NewEncoder(wr)}
}

// Sink writes one record. Safe to call from the frame callback's
// goroutine; callers that need to avoid blocking the receive loop on
// slow file I/O should instead subscribe to a pubsub.Queue fed from the
// callback and call Sink from that consumer goroutine.
func (s *Sinker) Sink(r Record) error {
	return s.encoder.Encode(r)
}

// Close releases the underlying writer. A no-op for stdout.
func (s *Sinker) Close() error {
	if s.wr == os.Stdout {
		return nil
	}
	return s.wr.Close()
}
