// Package api serves a read-only HTTP view of a running synchronizer.
package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/slok/go-http-metrics/middleware/std"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-janus/log"
	"github.com/spacemeshos/go-janus/message"
	"github.com/spacemeshos/go-janus/metrics"
	"github.com/spacemeshos/go-janus/synchronizer"
)

type Config struct {
	Listen string `mapstructure:"listen"`
	// CorsAllowedOrigins enables CORS for the listed origins.
	CorsAllowedOrigins []string `mapstructure:"cors-allowed-origins"`
	// Metrics also serves /metrics on the API listener.
	Metrics bool `mapstructure:"metrics"`
}

func DefaultConfig() Config {
	return Config{
		Listen:  "127.0.0.1:14280",
		Metrics: true,
	}
}

func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("listen", c.Listen)
	enc.AddBool("metrics", c.Metrics)
	return enc.AddArray("cors allowed origins", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for _, origin := range c.CorsAllowedOrigins {
			ae.AppendString(origin)
		}
		return nil
	}))
}

// Opt modifies Server behavior.
type Opt func(*Server)

func WithLogger(logger *zap.Logger) Opt {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithConfig(cfg Config) Opt {
	return func(s *Server) {
		s.cfg = cfg
	}
}

// WithConnections adds transport details to the peer listing.
func WithConnections(conns connState) Opt {
	return func(s *Server) {
		s.conns = conns
	}
}

type Server struct {
	logger *zap.Logger
	cfg    Config
	sync   syncState
	conns  connState
}

func New(sync syncState, opts ...Opt) *Server {
	s := &Server{
		logger: zap.NewNop(),
		cfg:    DefaultConfig(),
		sync:   sync,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with every endpoint mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	if len(s.cfg.CorsAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.cfg.CorsAllowedOrigins,
			AllowedMethods: []string{http.MethodGet},
		}).Handler)
	}

	r.With(std.HandlerProvider("/healthz", measured)).Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "now": s.sync.Now()})
	})
	r.Route("/v1", func(r chi.Router) {
		r.With(std.HandlerProvider("/v1/peers", measured)).Get("/peers", s.peers)
		r.With(std.HandlerProvider("/v1/timelines", measured)).Get("/timelines", s.timelines)
		r.With(std.HandlerProvider("/v1/timelines/{id}", measured)).Get("/timelines/{id}", s.timeline)
	})
	if s.cfg.Metrics {
		r.Handle("/metrics", metrics.Handler())
	}
	return r
}

// Run serves the API on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.serve(ctx, lis)
}

func (s *Server) serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	defer stop()
	s.logger.Info("api server started", zap.Stringer("address", lis.Addr()), zap.Inline(&s.cfg))
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := strconv.Itoa(ww.Status())
		requests.WithLabelValues(route, status).Inc()
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", ww.Status()),
			zap.String("request id", middleware.GetReqID(r.Context())),
		)
	})
}

type peerResponse struct {
	Index        uint16  `json:"index"`
	ConnectionID string  `json:"connection_id,omitempty"`
	RemoteAddr   string  `json:"remote_addr,omitempty"`
	Timelines    int     `json:"timelines"`
	RTT          float32 `json:"rtt"`
	Correction   float32 `json:"correction"`
	Samples      int     `json:"samples"`
	Queued       int     `json:"queued"`
	Pinging      bool    `json:"pinging"`
}

func (s *Server) peers(w http.ResponseWriter, _ *http.Request) {
	type addr struct{ id, remote string }
	addrs := map[uint16]addr{}
	if s.conns != nil {
		for _, c := range s.conns.Connections() {
			addrs[c.Index] = addr{id: c.ID.String(), remote: c.RemoteAddr}
		}
	}
	stats := s.sync.Peers()
	resp := make([]peerResponse, 0, len(stats))
	for _, p := range stats {
		resp = append(resp, peerResponse{
			Index:        p.Index,
			ConnectionID: addrs[p.Index].id,
			RemoteAddr:   addrs[p.Index].remote,
			Timelines:    p.Timelines,
			RTT:          p.RTT,
			Correction:   p.Correction,
			Samples:      p.Samples,
			Queued:       p.Queued,
			Pinging:      p.Pinging,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"peers": resp})
}

type timelineResponse struct {
	ID          string        `json:"id"`
	IDHex       string        `json:"id_hex"`
	Subscribers int           `json:"subscribers"`
	Cached      int           `json:"cached"`
	CacheSize   uint16        `json:"cache_size"`
	Entries     []cachedRelay `json:"entries,omitempty"`
}

type cachedRelay struct {
	Type     string  `json:"type"`
	Delivery string  `json:"delivery"`
	Time     float64 `json:"time"`
	Value    string  `json:"value"`
}

func newTimelineResponse(tl synchronizer.TimelineStats) timelineResponse {
	return timelineResponse{
		ID:          log.FormatID(tl.ID),
		IDHex:       hex.EncodeToString(tl.ID),
		Subscribers: tl.Subscribers,
		Cached:      tl.Cached,
		CacheSize:   tl.CacheSize,
	}
}

func (s *Server) timelines(w http.ResponseWriter, _ *http.Request) {
	stats := s.sync.Timelines()
	resp := make([]timelineResponse, 0, len(stats))
	for _, tl := range stats {
		resp = append(resp, newTimelineResponse(tl))
	}
	writeJSON(w, http.StatusOK, map[string]any{"timelines": resp})
}

// timeline looks up a timeline by hex-encoded id and lists its cached relays.
func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	id, err := hex.DecodeString(chi.URLParam(r, "id"))
	if err != nil || len(id) == 0 {
		writeError(w, http.StatusBadRequest, "id must be non-empty hex")
		return
	}
	var found *timelineResponse
	for _, tl := range s.sync.Timelines() {
		if string(tl.ID) == string(id) {
			resp := newTimelineResponse(tl)
			found = &resp
			break
		}
	}
	cached, ok := s.sync.CachedEntries(id)
	if found == nil || !ok {
		writeError(w, http.StatusNotFound, "timeline not found")
		return
	}
	found.Entries = make([]cachedRelay, 0, len(cached))
	for _, msg := range cached {
		set, err := message.DecodeSet(msg.Payload)
		if err != nil {
			continue
		}
		found.Entries = append(found.Entries, cachedRelay{
			Type:     msg.Type.String(),
			Delivery: msg.Delivery.String(),
			Time:     set.Time,
			Value:    hex.EncodeToString(set.Value),
		})
	}
	writeJSON(w, http.StatusOK, found)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
