package comm

import (
	"encoding/json"
	"time"
)

// CardEventsTopic is the NATS subject card changes are published on.
const CardEventsTopic = "card.events"

const (
	EventCardCreated = "card-created"
	EventCardDeleted = "card-deleted"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "card-created", "card-deleted"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
}

// CardEvent describes a card that was created or deleted. The image is left
// out, clients fetch it with the card list.
type CardEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Type      string    `json:"type,omitempty"`
	Rarity    string    `json:"rarity,omitempty"`
	DateAdded string    `json:"dateAdded,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
