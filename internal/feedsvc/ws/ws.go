package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// client serializes writes, a gorilla connection allows one writer at a time.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

type Ws struct {
	connMap sync.Map // to keep track of socket connection with socketId
}

func NewWs() *Ws {
	return &Ws{}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, &client{conn: conn})
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return c.(*client).conn, true
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	log.Infof("socket %s removed from feed", socketId)
}

func (s *Ws) Count() int {
	count := 0
	s.connMap.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

// Send writes v to a single socket.
func (s *Ws) Send(socketId string, v interface{}) error {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return nil
	}
	return c.(*client).writeJSON(v)
}

// Broadcast writes v to every connected socket and returns how many
// received it. A socket that fails the write is dropped.
func (s *Ws) Broadcast(v interface{}) int {
	sent := 0
	s.connMap.Range(func(key, value any) bool {
		c := value.(*client)
		if err := c.writeJSON(v); err != nil {
			log.Warnf("dropping socket %s: %v", key, err)
			c.conn.Close()
			s.connMap.Delete(key)
			return true
		}
		sent++
		return true
	})
	return sent
}
