package broker

import (
	"encoding/json"

	"github.com/avvvet/card-catalog/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn      *nats.Conn
	Broadcast func(interface{}) int
	OnRelay   func(eventType string)
}

func NewBroker(conn *nats.Conn, fncBroadcast func(interface{}) int) *Broker {
	return &Broker{
		Conn:      conn,
		Broadcast: fncBroadcast,
	}
}

// consume card events from the catalog service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	b.HandleMessage(msgNats.Data)
}

// HandleMessage relays one card event to every web client.
func (b *Broker) HandleMessage(data []byte) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(data, message); err != nil {
		log.Errorf("Error decoding card event: %s", err)
		return
	}

	switch message.Type {
	case comm.EventCardCreated, comm.EventCardDeleted:
		n := b.Broadcast(message)
		log.Debugf("%s relayed to %d sockets", message.Type, n)
		if b.OnRelay != nil {
			b.OnRelay(message.Type)
		}
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}
