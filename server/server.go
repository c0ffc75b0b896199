// Package server runs the process's HTTP surface: Prometheus metrics,
// optional pprof, and a status endpoint reflecting the active session's
// lifecycle state.
package server

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gvspd/gvspd/confengine"
	"github.com/gvspd/gvspd/internal/json"
	"github.com/gvspd/gvspd/logger"
	"github.com/gvspd/gvspd/session"
)

// Config configures the HTTP server.
type Config struct {
	Enabled bool          `config:"enabled"`
	Address string        `config:"address"`
	Pprof   bool          `config:"pprof"`
	Timeout time.Duration `config:"timeout"`
}

// ApplyDefaults fills in zero-valued fields with the server's defaults.
func (c *Config) ApplyDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}

// StatusSource is queried by the /status endpoint. *session.Session
// satisfies it.
type StatusSource interface {
	Status() session.Status
}

type Server struct {
	config Config
	router *mux.Router
	server *http.Server
}

// New builds a Server. When conf's "server" section is absent or
// Enabled is false, New returns (nil, nil): callers must check for a
// nil Server before calling ListenAndServe.
func New(conf *confengine.Config) (*Server, error) {
	var config Config
	if err := conf.UnpackChild("server", &config); err != nil {
		return nil, err
	}
	if !config.Enabled {
		return nil, nil
	}
	config.ApplyDefaults()

	router := mux.NewRouter()
	s := &Server{
		config: config,
		router: router,
		server: &http.Server{
			Handler:      router,
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
		},
	}
	s.RegisterGetRoute("/metrics", promhttp.Handler().ServeHTTP)
	if config.Pprof {
		s.registerPprofRoutes()
	}
	return s, nil
}

// RegisterStatusRoute wires GET /status to report src's lifecycle state
// as JSON. Separate from New so the daemon can hand the server a
// concrete session after both are constructed.
func (s *Server) RegisterStatusRoute(src StatusSource) {
	s.RegisterGetRoute("/status", func(w http.ResponseWriter, r *http.Request) {
		st := src.Status()
		w.Header().Set("Content-Type", "application/json")
		body := map[string]any{
			"hasSocket": st.HasSocket,
			"hasBuffer": st.HasBuffer,
			"receiving": st.Receiving,
			"port":      st.Port,
		}
		if st.LastFatal != nil {
			body["lastFatal"] = st.LastFatal.Error()
		}
		_ = json.NewEncoder(w).Encode(body)
	})
}

func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	logger.Infof("server listening on %s", s.config.Address)
	return s.server.Serve(l)
}

// Shutdown gracefully stops the server, waiting up to the given
// context's deadline for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) RegisterGetRoute(path string, f http.HandlerFunc) {
	s.router.Methods(http.MethodGet).Path(path).HandlerFunc(f)
}

func (s *Server) RegisterPostRoute(path string, f http.HandlerFunc) {
	s.router.Methods(http.MethodPost).Path(path).HandlerFunc(f)
}

func (s *Server) registerPprofRoutes() {
	s.RegisterGetRoute("/debug/pprof/cmdline", pprof.Cmdline)
	s.RegisterGetRoute("/debug/pprof/profile", pprof.Profile)
	s.RegisterGetRoute("/debug/pprof/symbol", pprof.Symbol)
	s.RegisterGetRoute("/debug/pprof/trace", pprof.Trace)
	s.RegisterGetRoute("/debug/pprof/{other}", pprof.Index)
}
