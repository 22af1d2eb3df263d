package ws

import "github.com/dkeye/guessthesong/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, user domain.UserID) BackpressureAction
}

// SimplePolicy kicks slow members. They reconnect and get the current
// status document on join.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, domain.UserID) BackpressureAction {
	return KickMember
}

// DropPolicy keeps slow members and drops the frame.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomID, domain.UserID) BackpressureAction {
	return DropFrame
}
