// Package chessdto holds the JSON wire types exchanged between the relay
// server and its peers.
package chessdto

import (
	"encoding/json"
	"fmt"
)

// Event names, client→server and server→client.
const (
	EventCreateRoom   = "createRoom"
	EventRoomCreated  = "roomCreated"
	EventJoinRoom     = "joinRoom"
	EventRoomJoined   = "roomJoined"
	EventRoomError    = "roomError"
	EventPlayerJoined = "playerJoined"
	EventGameStart    = "gameStart"
	EventMakeMove     = "makeMove"
	EventMoveMade     = "moveMade"
	EventGameOver     = "gameOver"
	EventPlayerLeft   = "playerLeft"
)

const (
	ColorWhite = "white"
	ColorBlack = "black"
)

// Envelope frames every message on the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope. A nil payload leaves Data empty.
func NewEnvelope(event string, payload any) (Envelope, error) {
	env := Envelope{Event: event}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", event, err)
	}
	env.Data = raw
	return env, nil
}

// Decode unmarshals Data into out.
func (e Envelope) Decode(out any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Event)
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("%s: %w", e.Event, err)
	}
	return nil
}

type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type RoomCreated struct {
	RoomCode string `json:"roomCode"`
}

// JoinRoom accepts either a bare JSON string or {"roomCode": "..."}.
type JoinRoom struct {
	RoomCode string `json:"roomCode"`
}

func (j *JoinRoom) UnmarshalJSON(b []byte) error {
	var code string
	if err := json.Unmarshal(b, &code); err == nil {
		j.RoomCode = code
		return nil
	}
	type plain JoinRoom
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*j = JoinRoom(p)
	return nil
}

type RoomJoined struct {
	RoomCode    string `json:"roomCode"`
	PlayerColor string `json:"playerColor"`
}

type RoomError struct {
	Message string `json:"message"`
}

type PlayerJoined struct {
	PlayerColor string `json:"playerColor"`
}

type GameStart struct {
	CurrentPlayer string    `json:"currentPlayer"`
	GameState     GameState `json:"gameState"`
}

type MakeMove struct {
	RoomCode    string `json:"roomCode"`
	From        Square `json:"from"`
	To          Square `json:"to"`
	PlayerColor string `json:"playerColor"`
}

type MoveMade struct {
	From          Square    `json:"from"`
	To            Square    `json:"to"`
	GameState     GameState `json:"gameState"`
	CurrentPlayer string    `json:"currentPlayer"`
}

// GameOver carries a nil Winner for stalemate.
type GameOver struct {
	Winner  *string `json:"winner"`
	Reason  string  `json:"reason"`
	Message string  `json:"message,omitempty"`
}
