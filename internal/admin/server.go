// Package admin serves relay health and room listings over fasthttp.
package admin

import (
	"encoding/json"
	"net"
	"time"

	"github.com/park285/cheese-chess/internal/relay"
	"github.com/park285/cheese-chess/pkg/chessdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Source is what the admin endpoints report on.
type Source interface {
	Stats() relay.Stats
	Rooms() []relay.RoomInfo
}

// PeerCounter is implemented by the websocket hub.
type PeerCounter interface {
	Stats() relay.HubStats
}

type Server struct {
	src     Source
	peers   PeerCounter
	logger  *zap.Logger
	started time.Time
	srv     *fasthttp.Server
}

func NewServer(src Source, peers PeerCounter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{src: src, peers: peers, logger: logger, started: time.Now()}
	s.srv = &fasthttp.Server{
		Handler:      s.handle,
		Name:         "chess-relay-admin",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error { return s.srv.ListenAndServe(addr) }

func (s *Server) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

func (s *Server) Shutdown() error { return s.srv.Shutdown() }

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	switch string(ctx.Path()) {
	case "/healthz":
		s.writeJSON(ctx, s.health())
	case "/rooms":
		rooms := s.src.Rooms()
		out := make([]chessdto.RoomSummary, 0, len(rooms))
		for _, r := range rooms {
			out = append(out, chessdto.RoomSummary{
				Code:      r.Code,
				State:     string(r.State),
				Members:   r.Members,
				Moves:     r.Moves,
				Turn:      r.Turn,
				Status:    r.Status,
				CreatedAt: r.CreatedAt,
			})
		}
		s.writeJSON(ctx, out)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) health() chessdto.HealthReport {
	st := s.src.Stats()
	h := chessdto.HealthReport{
		Status:      "ok",
		UptimeSec:   int64(time.Since(s.started).Seconds()),
		Rooms:       st.Rooms,
		Awaiting:    st.Awaiting,
		Active:      st.Active,
		Connections: st.Connections,
	}
	if s.peers != nil {
		ps := s.peers.Stats()
		h.Peers, h.Accepted, h.Dropped = ps.Peers, ps.Accepted, ps.Dropped
	}
	return h
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("admin_encode_failed", zap.Error(err))
		ctx.Error("encode failed", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}
