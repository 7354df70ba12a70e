// Package simserver exposes simulation sessions over HTTP and websockets.
package simserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bcdxn/f1sim/internal/domain"
	"github.com/bcdxn/f1sim/internal/metrics"
	"github.com/bcdxn/f1sim/internal/session"
	"github.com/coder/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Advancer is the part of the session store used by the server.
type Advancer interface {
	Advance(ctx context.Context, key string, req session.Request) (domain.Snapshot, error)
}

// New returns a new simulation Server.
func New(store Advancer, opts ...ServerOption) *Server {
	s := &Server{
		store:          store,
		logger:         slog.Default(),
		streamInterval: 2 * time.Second,
		minInterval:    100 * time.Millisecond,
	}
	// apply given options
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Server struct {
	store          Advancer
	metrics        *metrics.Metrics
	logger         *slog.Logger
	streamInterval time.Duration
	minInterval    time.Duration
}

/* Server Optional Functional Parameters
------------------------------------------------------------------------------------------------- */

type ServerOption = func(s *Server)

// WithLogger configures the logger to use within the server.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithMetrics configures request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithStreamInterval configures the default and minimum lap interval of the stream endpoint.
func WithStreamInterval(def, min time.Duration) ServerOption {
	return func(s *Server) {
		s.streamInterval = def
		s.minInterval = min
	}
}

/* Server API
------------------------------------------------------------------------------------------------- */

// Handler returns the HTTP handler serving every route of the simulator.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/simulation", s.instrument("simulation", http.HandlerFunc(s.handleSimulation)))
	mux.Handle("GET /api/simulation/stream", http.HandlerFunc(s.handleStream))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

// handleSimulation resets and/or advances a session and responds with its snapshot.
//
//	GET /api/simulation?session=<key>&reset=true&laps=<n>
func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	snap, err := s.store.Advance(r.Context(), sessionKey(r), req)
	if err != nil {
		s.logger.Error("error advancing simulation", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "simulation failed"})
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// handleStream upgrades to a websocket and pushes a snapshot every interval, advancing one lap
// each time, until the race is finished or the client goes away.
//
//	GET /api/simulation/stream?session=<key>&interval=<duration>&reset=true
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	interval, err := s.parseInterval(r.URL.Query().Get("interval"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	reset, err := parseReset(r.URL.Query())
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	key := sessionKey(r)

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Error("error accepting websocket", "err", err)
		return
	}
	defer conn.CloseNow()
	// the client never sends data; CloseRead cancels ctx once it disconnects
	ctx := conn.CloseRead(r.Context())

	s.logger.Debug("stream opened", "session", key, "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	req := session.Request{Reset: reset}
	for {
		snap, err := s.store.Advance(ctx, key, req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("error advancing streamed simulation", "session", key, "err", err)
			conn.Close(websocket.StatusInternalError, "simulation failed")
			return
		}
		if err := s.writeMessage(ctx, conn, snap); err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) == -1 {
				s.logger.Warn("error writing snapshot", "session", key, "err", err)
			}
			return
		}
		if snap.Finished {
			conn.Close(websocket.StatusNormalClosure, "race finished")
			s.logger.Debug("stream closed, race finished", "session", key)
			return
		}

		req = session.Request{Laps: 1}
		select {
		case <-ctx.Done():
			s.logger.Debug("stream closed by client", "session", key)
			return
		case <-ticker.C:
		}
	}
}

/* Private Helper Functions
------------------------------------------------------------------------------------------------- */

type errorResponse struct {
	Error string `json:"error"`
}

func sessionKey(r *http.Request) string {
	if key := r.URL.Query().Get("session"); key != "" {
		return key
	}
	return session.DefaultKey
}

// parseRequest reads the reset and laps query parameters. An omitted laps advances nothing.
func parseRequest(r *http.Request) (session.Request, error) {
	q := r.URL.Query()
	req := session.Request{}
	reset, err := parseReset(q)
	if err != nil {
		return req, err
	}
	req.Reset = reset
	if v := q.Get("laps"); v != "" {
		laps, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("laps must be an integer")
		}
		req.Laps = laps
	}
	return req, nil
}

// parseReset reads the reset query parameter shared by the polling and streaming routes.
func parseReset(q url.Values) (bool, error) {
	v := q.Get("reset")
	if v == "" {
		return false, nil
	}
	reset, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New("reset must be a boolean")
	}
	return reset, nil
}

func (s *Server) parseInterval(v string) (time.Duration, error) {
	if v == "" {
		return s.streamInterval, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.New("interval must be a duration, e.g. 2s")
	}
	return max(d, s.minInterval), nil
}

func (s *Server) writeMessage(ctx context.Context, conn *websocket.Conn, snap domain.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, b)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("error writing response", "err", err)
	}
}
