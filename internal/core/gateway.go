package core

import (
	"context"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/render"
)

// Message is a chat message delivered by the room gateway.
type Message struct {
	ID      domain.MessageID
	Author  domain.UserID
	Content string
}

// RoomGateway is the chat platform as seen by a game. The adapter owns
// every transport resource.
type RoomGateway interface {
	ConnectVoice(ctx context.Context, room domain.RoomID, user domain.UserID) error
	DisconnectVoice(ctx context.Context, room domain.RoomID) error
	// InVoice reports whether user is present in the room's voice channel.
	InVoice(room domain.RoomID, user domain.UserID) bool

	SendStatus(ctx context.Context, room domain.RoomID, doc render.Document) (domain.MessageID, error)
	EditStatus(ctx context.Context, room domain.RoomID, id domain.MessageID, doc render.Document) error
	DeleteMessage(ctx context.Context, room domain.RoomID, id domain.MessageID) error
	// Reply sends a short text visible to user only.
	Reply(ctx context.Context, room domain.RoomID, user domain.UserID, text string) error
}
