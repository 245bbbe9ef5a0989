package relay

import (
    "time"

    "github.com/park285/cheese-chess/pkg/chessdto"
)

// RoomState is the lifecycle of a relay room.
type RoomState string

const (
    StateAwaitingOpponent RoomState = "AWAITING_OPPONENT"
    StateActive           RoomState = "ACTIVE"
    StateClosed           RoomState = "CLOSED"
)

// Errors
var (
    ErrRoomNotFound  = errf("room not found")
    ErrRoomFull      = errf("room already has two members")
    ErrAlreadyInRoom = errf("connection already belongs to a room")
    ErrNotMember     = errf("connection is not a member of the room")
    ErrNotActive     = errf("room has no game in progress")
    // move from the side that is not to move; dropped without a broadcast
    ErrTurnViolation = errf("move submitted out of turn")
    ErrCodeExhausted = errf("could not allocate a unique room code")
    ErrBadRequest    = errf("malformed request payload")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error        { return staticErr(s) }

// Notifier delivers one event to one connection. The registry calls it while
// holding the room lock, so implementations must not block or call back in.
type Notifier interface {
    Notify(connID string, env chessdto.Envelope)
}

type NotifierFunc func(connID string, env chessdto.Envelope)

func (f NotifierFunc) Notify(connID string, env chessdto.Envelope) { f(connID, env) }

// RoomInfo is a point-in-time view of one room for the admin endpoint.
type RoomInfo struct {
    Code      string    `json:"code"`
    State     RoomState `json:"state"`
    Members   int       `json:"members"`
    Moves     int       `json:"moves"`
    Turn      string    `json:"turn"`
    Status    string    `json:"status"`
    CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates registry counters.
type Stats struct {
    Rooms       int `json:"rooms"`
    Awaiting    int `json:"awaiting"`
    Active      int `json:"active"`
    Connections int `json:"connections"`
}
