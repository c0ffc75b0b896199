// Package daemon wires a Session to its exporter, pubsub fan-out, and
// HTTP server into one process-facing unit, and applies YAML config
// reloads to the pieces that can safely change underneath a running
// receive (spec.md's lifecycle invariants leave the socket/buffer/
// receive-thread state untouched across reload).
//
// Grounded on controller.Controller's role as the single process-level
// owner of a sniffer+pipeline+exporter+server quartet; renamed to avoid
// confusion with spec.md's own "Session Controller" concept.
package daemon

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/gvspd/gvspd/confengine"
	"github.com/gvspd/gvspd/exporter"
	"github.com/gvspd/gvspd/internal/pubsub"
	"github.com/gvspd/gvspd/logger"
	"github.com/gvspd/gvspd/pixel"
	"github.com/gvspd/gvspd/server"
	"github.com/gvspd/gvspd/session"
)

// FrameEnvelope is what gets published to subscribers: a decoded
// matrix paired with the stats its session reported alongside it.
type FrameEnvelope struct {
	Matrix pixel.Matrix
	Depth  pixel.BitDepth
	Stats  session.Stats
}

// Daemon owns one Session and fans its completed frames out to an
// optional file/console sinker and to any pubsub subscriber, while
// serving /metrics, /status, and optional pprof over HTTP.
type Daemon struct {
	sess *session.Session
	exp  *exporter.Sinker
	svr  *server.Server
	bus  *pubsub.PubSub

	sessCfg session.Config
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if err := conf.UnpackChild("logger", &opts); err != nil {
		return err
	}
	logger.SetOptions(opts)
	return nil
}

// New builds a Daemon from conf's "session", "exporter", "server", and
// "logger" sections. It does not yet open a socket or start receiving;
// call Start for that.
func New(conf *confengine.Config) (*Daemon, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	var sessCfg session.Config
	if err := conf.UnpackChild("session", &sessCfg); err != nil {
		return nil, err
	}
	sessCfg.ApplyDefaults()

	var expCfg exporter.Config
	if err := conf.UnpackChild("exporter", &expCfg); err != nil {
		return nil, err
	}

	var exp *exporter.Sinker
	if expCfg.Enabled {
		exp = exporter.New(&expCfg)
	}

	svr, err := server.New(conf)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		sess:    session.New(),
		exp:     exp,
		svr:     svr,
		bus:     pubsub.New(),
		sessCfg: sessCfg,
	}
	d.sess.SetVerbose(sessCfg.Verbose)
	d.sess.SetWarnings(sessCfg.Warnings)
	d.sess.SetFrameCallback(d.onFrame)

	if d.svr != nil {
		d.svr.RegisterStatusRoute(d.sess)
	}
	return d, nil
}

// Subscribe registers a new subscriber to completed frames, delivered
// as FrameEnvelope values. Publish is called from onFrame after frameMu
// has already been released by Session.Dispatch and never blocks: a full
// queue drops the frame. The sinker, by contrast, is written to
// synchronously from onFrame on the receive thread.
func (d *Daemon) Subscribe(queueSize int) pubsub.Queue {
	return d.bus.Subscribe(queueSize)
}

func (d *Daemon) onFrame(m pixel.Matrix, depth pixel.BitDepth, stats session.Stats) {
	if d.exp != nil {
		if err := d.exp.Sink(exporter.NewRecord(m, stats)); err != nil {
			logger.Errorf("failed to sink frame record: %v", err)
		}
	}
	d.bus.Publish(FrameEnvelope{Matrix: m, Depth: depth, Stats: stats})
}

// Start opens the session's socket, allocates its reassembly buffer,
// begins receiving, and brings up the HTTP server.
func (d *Daemon) Start() error {
	if _, err := d.sess.CreateSocket(d.sessCfg.HostIP); err != nil {
		return err
	}
	if err := d.sess.CreateBuffer(d.sessCfg.PayloadSize, d.sessCfg.PacketSize); err != nil {
		return err
	}
	if err := d.sess.StartReceive(d.sessCfg.CameraIP); err != nil {
		return err
	}

	if d.svr != nil {
		go func() {
			err := d.svr.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, io.EOF) {
				logger.Errorf("server exited: %v", err)
			}
		}()
	}
	return nil
}

// Reload applies the session section's verbose/warnings changes from
// conf without touching the socket, buffer, or receive-thread state of
// an in-progress receive. The exporter, server, and logger sections are
// not re-read.
func (d *Daemon) Reload(conf *confengine.Config) error {
	var sessCfg session.Config
	if err := conf.UnpackChild("session", &sessCfg); err != nil {
		return err
	}
	d.sess.SetVerbose(sessCfg.Verbose)
	d.sess.SetWarnings(sessCfg.Warnings)
	return nil
}

// Stop stops receiving, releases the session's resources, closes the
// sinker, and shuts down the HTTP server.
func (d *Daemon) Stop() {
	_ = d.sess.StopReceive()
	_ = d.sess.FreeBuffer()
	_ = d.sess.CloseSocket()

	if d.exp != nil {
		_ = d.exp.Close()
	}

	if d.svr != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.svr.Shutdown(ctx)
	}
}

// Session returns the underlying Session, for callers (cmd, tests)
// that need the full lifecycle surface directly.
func (d *Daemon) Session() *session.Session {
	return d.sess
}
