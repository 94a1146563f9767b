package broker

import (
	"encoding/json"
	"time"

	"github.com/avvvet/card-catalog/internal/cardsvc/models"
	"github.com/avvvet/card-catalog/internal/comm"
	log "github.com/sirupsen/logrus"
)

// Publisher is the part of *nats.Conn the broker needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Broker announces card changes to other services.
type Broker struct {
	Conn  Publisher
	Topic string
	// OnPublish, when set, is called with the type of every published event.
	OnPublish func(eventType string)
	now       func() time.Time
}

func NewBroker(conn Publisher) *Broker {
	return &Broker{Conn: conn, Topic: comm.CardEventsTopic, now: time.Now}
}

func (b *Broker) CardCreated(card models.Card) {
	b.publish(comm.EventCardCreated, comm.CardEvent{
		ID:        card.ID,
		Name:      card.Name,
		Type:      card.Type,
		Rarity:    card.Rarity,
		DateAdded: card.DateAdded.String(),
		Timestamp: b.now().UTC(),
	})
}

func (b *Broker) CardDeleted(id string) {
	b.publish(comm.EventCardDeleted, comm.CardEvent{ID: id, Timestamp: b.now().UTC()})
}

// publish is fire and forget, a lost event never fails the request.
func (b *Broker) publish(eventType string, event comm.CardEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("error [broker.publish] marshaling %s event: %v", eventType, err)
		return
	}

	payload, err := json.Marshal(&comm.WSMessage{Type: eventType, Data: data})
	if err != nil {
		log.Errorf("error [broker.publish] marshaling WSMessage: %v", err)
		return
	}

	if err := b.Conn.Publish(b.Topic, payload); err != nil {
		log.Errorf("error publishing %s for card %s: %v", eventType, event.ID, err)
		return
	}
	if b.OnPublish != nil {
		b.OnPublish(eventType)
	}
}
