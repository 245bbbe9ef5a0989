package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/cheese-chess/internal/msgcat"
	"github.com/park285/cheese-chess/internal/relayclient"
	"github.com/park285/cheese-chess/pkg/chessdto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *Registry, string) {
	t.Helper()
	return startHubWith(t, HubOptions{SendBuffer: 16, PingInterval: time.Minute}, nil)
}

// startHubWith serves the hub behind wrap when it is non-nil.
func startHubWith(t *testing.T, opts HubOptions, wrap func(http.Handler) http.Handler) (*Hub, *Registry, string) {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	hub := NewHub(opts)
	reg := NewRegistry(Options{Codes: NewMemoryAllocator(nil), Notifier: hub, Messages: cat})
	hub.Attach(reg)
	var handler http.Handler = hub.Handler()
	if wrap != nil {
		handler = wrap(handler)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return hub, reg, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, ctx context.Context, url string) *relayclient.Socket {
	t.Helper()
	s := relayclient.NewSocket(url)
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() {
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Close(cctx)
	})
	return s
}

func TestHubRelaysAGame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, reg, url := startHub(t)

	a := dial(t, ctx, url)
	b := dial(t, ctx, url)

	code, err := a.CreateRoom(ctx)
	require.NoError(t, err)

	joined, err := b.JoinRoom(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "black", joined.PlayerColor)
	assert.Equal(t, code, joined.RoomCode)

	_, err = a.Expect(ctx, chessdto.EventPlayerJoined)
	require.NoError(t, err)
	for _, s := range []*relayclient.Socket{a, b} {
		env, err := s.Expect(ctx, chessdto.EventGameStart)
		require.NoError(t, err)
		var gs chessdto.GameStart
		require.NoError(t, env.Decode(&gs))
		assert.Equal(t, "white", gs.CurrentPlayer)
	}

	// B out of turn first; then A's real move. B must only ever see A's move.
	require.NoError(t, b.MakeMove(ctx, code, "white", chessdto.Square{Row: 6, Col: 3}, chessdto.Square{Row: 4, Col: 3}))
	require.NoError(t, a.MakeMove(ctx, code, "white", chessdto.Square{Row: 6, Col: 4}, chessdto.Square{Row: 4, Col: 4}))
	for _, s := range []*relayclient.Socket{a, b} {
		env, err := s.Expect(ctx, chessdto.EventMoveMade)
		require.NoError(t, err)
		var mm chessdto.MoveMade
		require.NoError(t, env.Decode(&mm))
		assert.Equal(t, "black", mm.CurrentPlayer)
		assert.Equal(t, chessdto.Square{Row: 6, Col: 4}, mm.From)
		require.Len(t, mm.GameState.MoveHistory, 1)
	}

	c := dial(t, ctx, url)
	_, err = c.JoinRoom(ctx, code)
	var re *relayclient.RoomError
	require.True(t, errors.As(err, &re), "got %v", err)
	assert.Equal(t, "Room is full", re.Message)

	_, err = c.JoinRoom(ctx, "NOPE00")
	require.True(t, errors.As(err, &re), "got %v", err)
	assert.Equal(t, "Room not found", re.Message)

	cctx, ccancel := context.WithTimeout(ctx, 2*time.Second)
	require.NoError(t, a.Close(cctx))
	ccancel()
	_, err = b.Expect(ctx, chessdto.EventPlayerLeft)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return reg.Stats().Connections == 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestHubShutdownClosesPeers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub, reg, url := startHub(t)

	a := dial(t, ctx, url)
	_, err := a.CreateRoom(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, hub.Stats().Peers)

	require.NoError(t, hub.Shutdown(ctx))
	assert.Equal(t, 0, hub.Stats().Peers)
	assert.Empty(t, reg.Rooms())
	assert.Equal(t, int64(1), hub.Stats().Accepted)
}

func TestSocketHeadersCallbacksAndPing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mu sync.Mutex
	var clients []string
	_, _, url := startHubWith(t, HubOptions{SendBuffer: 16, PingInterval: time.Minute}, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			clients = append(clients, r.Header.Get(ClientHeader))
			mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})

	s := relayclient.NewSocket(url)
	s.SetHeaderProvider(func() map[string]string {
		return map[string]string{ClientHeader: "hub-test", " ": "ignored"}
	})
	s.SetPingInterval(20 * time.Millisecond)

	var seen []string
	id := s.OnMessage(func(env chessdto.Envelope) {
		mu.Lock()
		seen = append(seen, env.Event)
		mu.Unlock()
	})
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer ccancel()
		_ = s.Close(cctx)
	})

	_, err := s.CreateRoom(ctx)
	require.NoError(t, err)

	// several client pings go by without the connection dropping
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, relayclient.StateConnected, s.State())

	s.RemoveMessageCallback(id)
	_, err = s.JoinRoom(ctx, "NOPE00")
	var re *relayclient.RoomError
	require.True(t, errors.As(err, &re), "got %v", err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hub-test"}, clients)
	assert.Equal(t, []string{chessdto.EventRoomCreated}, seen)
}

func TestSocketKeepsEveryEventForSlowReaders(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _, url := startHubWith(t, HubOptions{SendBuffer: 512, PingInterval: time.Minute}, nil)
	s := dial(t, ctx, url)

	// more replies than the client inbox holds, all queued before anyone reads
	const n = 200
	for i := 0; i < n; i++ {
		require.NoError(t, s.Send(ctx, chessdto.EventJoinRoom, "NOPE00"))
	}
	for i := 0; i < n; i++ {
		env, err := s.Next(ctx)
		require.NoError(t, err, "event %d", i)
		assert.Equal(t, chessdto.EventRoomError, env.Event)
	}
}

func TestHubShutdownRacesNewPeers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub, _, url := startHub(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := relayclient.NewSocket(url)
			if err := s.Connect(ctx); err != nil {
				return
			}
			cctx, ccancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer ccancel()
			_ = s.Close(cctx)
		}()
	}
	require.NoError(t, hub.Shutdown(ctx))
	assert.Equal(t, 0, hub.Stats().Peers)
	wg.Wait()
	assert.Equal(t, 0, hub.Stats().Peers)
}
