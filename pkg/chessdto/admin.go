package chessdto

import "time"

// HealthReport is served by the admin /healthz endpoint.
type HealthReport struct {
	Status      string `json:"status"`
	UptimeSec   int64  `json:"uptime_sec"`
	Rooms       int    `json:"rooms"`
	Awaiting    int    `json:"awaiting"`
	Active      int    `json:"active"`
	Connections int    `json:"connections"`
	Peers       int    `json:"peers"`
	Accepted    int64  `json:"accepted"`
	Dropped     int64  `json:"dropped"`
}

// RoomSummary is one entry of the admin /rooms listing.
type RoomSummary struct {
	Code      string    `json:"code"`
	State     string    `json:"state"`
	Members   int       `json:"members"`
	Moves     int       `json:"moves"`
	Turn      string    `json:"turn"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
