package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-chess/internal/relay"
	"github.com/park285/cheese-chess/internal/relayclient"
	"github.com/park285/cheese-chess/internal/textview"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

// relaycheck probes a running relay: admin health, then a two-socket
// create/join/move round trip.
func main() {
	adminURL := os.Getenv("RELAY_ADMIN_URL")
	wsURL := os.Getenv("RELAY_WS_URL")

	if adminURL != "" {
		client := relayclient.NewAdminClient(adminURL, relayclient.WithTimeout(5*time.Second))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		h, err := client.Health(ctx)
		cancel()
		if err != nil {
			log.Printf("/healthz error: %v", err)
		} else {
			log.Printf("/healthz ok: rooms=%d active=%d peers=%d uptime=%ds", h.Rooms, h.Active, h.Peers, h.UptimeSec)
		}
	} else {
		log.Println("RELAY_ADMIN_URL not set; skipping admin check")
	}

	if wsURL == "" {
		log.Println("RELAY_WS_URL not set; skipping WS check")
		return
	}
	if err := roundTrip(wsURL); err != nil {
		log.Fatalf("WS round trip failed: %v", err)
	}
	log.Println("WS round trip ok")
}

func roundTrip(wsURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ping := 10 * time.Second
	if v := strings.TrimSpace(os.Getenv("RELAY_PING_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ping = time.Duration(n) * time.Second
		}
	}

	white := relayclient.NewSocket(wsURL)
	black := relayclient.NewSocket(wsURL)
	for name, s := range map[string]*relayclient.Socket{"white": white, "black": black} {
		name := name
		s.SetHeaderProvider(func() map[string]string {
			return map[string]string{relay.ClientHeader: "relaycheck/" + name}
		})
		s.SetPingInterval(ping)
		s.OnStateChange(func(state relayclient.State) { log.Printf("WS %s state: %s", name, state) })
		s.OnMessage(func(env chessdto.Envelope) { log.Printf("WS %s <- %s", name, env.Event) })
		if err := s.Connect(ctx); err != nil {
			return err
		}
		defer s.Close(context.Background())
	}

	code, err := white.CreateRoom(ctx)
	if err != nil {
		return fmt.Errorf("createRoom: %w", err)
	}
	log.Printf("room %s created", code)
	if _, err := black.JoinRoom(ctx, code); err != nil {
		return fmt.Errorf("joinRoom: %w", err)
	}
	if _, err := white.Expect(ctx, chessdto.EventGameStart); err != nil {
		return fmt.Errorf("gameStart: %w", err)
	}
	if err := white.MakeMove(ctx, code, chessdto.ColorWhite, chessdto.Square{Row: 6, Col: 4}, chessdto.Square{Row: 4, Col: 4}); err != nil {
		return err
	}
	env, err := black.Expect(ctx, chessdto.EventMoveMade)
	if err != nil {
		return fmt.Errorf("moveMade: %w", err)
	}
	var mm chessdto.MoveMade
	if err := env.Decode(&mm); err != nil {
		return err
	}
	log.Printf("moveMade: next=%s fen=%s", mm.CurrentPlayer, mm.GameState.FEN)
	fmt.Print(textview.Board(mm.GameState, textview.View{Coordinates: true}))
	return nil
}
