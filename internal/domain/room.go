package domain

type (
	RoomID    string
	MessageID string
)

// State is the lifecycle stage of a room's game.
type State string

const (
	StateNotStarted State = "not_started"
	StateStarted    State = "started"
	StateEnded      State = "ended"
)
