package chessdto

// Cell is an occupied square; empty squares encode as null.
type Cell struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

type HistoryEntry struct {
	From     Square `json:"from"`
	To       Square `json:"to"`
	Piece    string `json:"piece"`
	Captured string `json:"captured,omitempty"`
	Player   string `json:"player"`
	Promoted bool   `json:"promoted,omitempty"`
	Notation string `json:"notation"`
}

// GameState is the full snapshot broadcast with gameStart and moveMade.
type GameState struct {
	Board         [8][8]*Cell    `json:"board"`
	MoveHistory   []HistoryEntry `json:"moveHistory"`
	CurrentPlayer string         `json:"currentPlayer"`
	Status        string         `json:"status"`
	IsGameOver    bool           `json:"isGameOver"`
	FEN           string         `json:"fen"`
}
