package admin

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/park285/cheese-chess/internal/relay"
	"github.com/park285/cheese-chess/internal/relayclient"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type fakePeers struct{}

func (fakePeers) Stats() relay.HubStats { return relay.HubStats{Peers: 3, Accepted: 5, Dropped: 1} }

func startAdmin(t *testing.T, reg *relay.Registry) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	s := NewServer(reg, fakePeers{}, nil)
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(func() { _ = s.Shutdown() })
	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

func TestHealthAndRooms(t *testing.T) {
	ctx := context.Background()
	reg := relay.NewRegistry(relay.Options{})
	code, err := reg.CreateRoom(ctx, "a")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	hc := startAdmin(t, reg)
	c := relayclient.NewAdminClient("http://admin", relayclient.WithTimeout(2*time.Second), relayclient.WithHTTPClient(hc))

	h, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "ok" || h.Rooms != 1 || h.Awaiting != 1 || h.Peers != 3 || h.Dropped != 1 {
		t.Fatalf("unexpected health: %+v", h)
	}

	rooms, err := c.Rooms(ctx)
	if err != nil {
		t.Fatalf("Rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Code != code || rooms[0].State != string(relay.StateAwaitingOpponent) {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
}

func TestUnknownPathAndMethod(t *testing.T) {
	hc := startAdmin(t, relay.NewRegistry(relay.Options{}))
	c := relayclient.NewAdminClient("http://admin", relayclient.WithHTTPClient(hc), relayclient.WithRetry(1))
	if _, err := c.Rooms(context.Background()); err != nil {
		t.Fatalf("Rooms: %v", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI("http://admin/nope")
	if err := hc.Do(req, resp); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI("http://admin/healthz")
	if err := hc.Do(req, resp); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode())
	}
}
