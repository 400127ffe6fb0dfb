package broker

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/devcollab/collab-services/internal/comm"
)

// Broker consumes board-service broadcasts from NATS and delivers them to
// web clients. Room fan-out and sender exclusion happen here, at the edge
// that owns the socket connections.
type Broker struct {
	Conn           *nats.Conn
	GetConnection  func(string) (*websocket.Conn, bool)
	GetRoomSockets func(string) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*websocket.Conn, bool), fncGetRoomSockets func(string) ([]string, bool)) *Broker {
	return &Broker{
		Conn:           conn,
		GetConnection:  fncGetConnection,
		GetRoomSockets: fncGetRoomSockets,
	}
}

// Subscribe consumes broadcasts from the board service.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// Publish forwards a client event to the board service.
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

// handleMessages receives a broadcast from the board service.
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	err := json.Unmarshal(msgNats.Data, &message)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	switch message.Type {
	case "task update", "move column update", "move task update",
		"move task another column update", "receive activity message":
		b.Deliver(message)
	default:
		log.Error("Unknown message")
		return
	}
}

// Deliver routes one broadcast: room fan-out when a room is set (skipping
// the sender when excluded), otherwise a direct write to one socket.
func (b *Broker) Deliver(m *comm.WSMessage) {
	for _, socketId := range b.Recipients(m) {
		b.sendMessage(socketId, m)
	}
}

// Recipients resolves the socket ids a broadcast goes to.
func (b *Broker) Recipients(m *comm.WSMessage) []string {
	if m.RoomId == "" {
		return []string{m.SocketId}
	}

	sockets, ok := b.GetRoomSockets(m.RoomId)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(sockets))
	for _, socketId := range sockets {
		if m.Exclude && socketId == m.SocketId {
			continue
		}
		out = append(out, socketId)
	}
	return out
}

// send socket message to the web client
func (b *Broker) sendMessage(socketId string, m *comm.WSMessage) {
	if conn, ok := b.GetConnection(socketId); ok {
		if err := conn.WriteJSON(m); err != nil {
			log.Println(err)
		}
	}
}
