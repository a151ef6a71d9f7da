// Package server exposes a stage over HTTP: a JSON control API under /api,
// a websocket stream of virtual output frames, and a health check.
//
// Errors are returned as
//
//	{"error": {"code": "NOT_FOUND", "message": "cue 3f1c... not found"}}
//
// with the HTTP status derived from the error code.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/lightdesk/pkg/buildinfo"
	"github.com/matzehuels/lightdesk/pkg/stage"
)

// DefaultAddr is the listen address used when Options.Addr is empty.
const DefaultAddr = "127.0.0.1:8420"

// Options configures a Server.
type Options struct {
	Addr   string
	Logger *log.Logger
	// AllowedOrigins enables CORS and cross-origin websocket connections
	// for the listed origins. "*" allows any origin.
	AllowedOrigins []string
	// PingInterval keeps frame streams alive. Zero means 30 seconds.
	PingInterval time.Duration
	// MaxBodyBytes bounds request bodies. Zero means 4 MiB.
	MaxBodyBytes int64
}

// Server serves the control API for one stage.
type Server struct {
	stage    *stage.Stage
	opts     Options
	logger   *log.Logger
	upgrader websocket.Upgrader
	handler  http.Handler
}

// New returns a server for st.
func New(st *stage.Stage, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 4 << 20
	}
	s := &Server{stage: st, opts: opts, logger: opts.Logger}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Server", buildinfo.UserAgent()))
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)
		r.Get("/kinds", s.handleKinds)
		r.Get("/desk", s.handleDesk)

		r.Post("/cues", s.handleAddCue)
		r.Route("/cues/{id}", func(r chi.Router) {
			r.Use(validID)
			r.Delete("/", s.handleDeleteCue)
			r.Put("/name", s.handleRenameCue)
			r.Put("/module", s.handleSetCueModule)
		})
		r.Put("/current", s.handleSetCurrent)
		r.Put("/dimmer", s.handleSetDimmer)

		r.Post("/outputs", s.handleAddOutput)
		r.Route("/outputs/{id}", func(r chi.Router) {
			r.Use(validID)
			r.Delete("/", s.handleDeleteOutput)
			r.Put("/name", s.handleRenameOutput)
			r.Put("/config", s.handleSetOutputConfig)
			r.Get("/frames", s.handleFrames)
		})

		r.Get("/playback", s.handleGetPlayback)
		r.Put("/playback", s.handlePutPlayback)
		r.With(validID).Put("/files/{id}", s.handlePutFile)

		r.Get("/beat", s.handleGetBeat)
		r.Post("/beat", s.handleTapBeat)
		r.Delete("/beat", s.handleStopBeat)
	})

	var h http.Handler = r
	if len(s.opts.AllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.opts.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(h)
	}
	return h
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
