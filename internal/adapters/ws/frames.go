package ws

import (
	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/render"
)

type chatFrame struct {
	Type   string           `json:"type"`
	ID     domain.MessageID `json:"id"`
	Author domain.User      `json:"author"`
	Text   string           `json:"text"`
}

type voiceFrame struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

type statusFrame struct {
	Type     string           `json:"type"`
	ID       domain.MessageID `json:"id"`
	Document render.Document  `json:"document"`
}

type deletedFrame struct {
	Type string           `json:"type"`
	ID   domain.MessageID `json:"id"`
}

type replyFrame struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
	Text string        `json:"text"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type memberFrame struct {
	Type string      `json:"type"`
	User domain.User `json:"user"`
}

type roomStateFrame struct {
	Type    string        `json:"type"`
	Room    domain.RoomID `json:"room"`
	Members []domain.User `json:"members"`
	Count   int           `json:"count"`
	Status  *statusFrame  `json:"status,omitempty"`
}

func errFrame(msg string) errorFrame { return errorFrame{Type: "error", Error: msg} }
