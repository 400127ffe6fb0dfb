package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/devcollab/collab-services/internal/comm"
	"github.com/devcollab/collab-services/internal/socketsvc/broker"
)

// Ws tracks live socket connections and which project room each socket is
// currently viewing. Rooms scope every board broadcast.
type Ws struct {
	connMap sync.Map // socketId -> *websocket.Conn
	roomMap sync.Map // socketId -> projectId
	Broker  *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// board events forwarded verbatim to the board service
var boardEvents = map[string]bool{
	"create list":              true,
	"update list":              true,
	"delete list":              true,
	"create task":              true,
	"update task":              true,
	"delete task":              true,
	"move column":              true,
	"move task same column":    true,
	"move task another column": true,
}

// SocketMessage handles one message from a web client.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch {
	case message.Type == "join project":
		s.handleJoinProject(socketId, message)
	case message.Type == "leave project":
		s.handleLeaveProject(socketId, message)
	case boardEvents[message.Type]:
		s.forwardBoardEvent(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) handleJoinProject(socketId string, msg *comm.WSMessage) {
	var payload comm.JoinProject
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: invalid join payload %s", err)
		return
	}

	if payload.ProjectId == "" || payload.UserId == 0 {
		log.Error("Invalid join payload: missing project or user")
		return
	}

	s.JoinRoom(socketId, payload.ProjectId)

	// forward so the board service can answer with a board snapshot
	s.forwardBoardEvent(socketId, msg)
}

func (s *Ws) handleLeaveProject(socketId string, msg *comm.WSMessage) {
	var payload comm.LeaveProject
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: invalid leave payload %s", err)
		return
	}

	s.LeaveRoom(socketId)
}

// forwardBoardEvent stamps the sender's socket id and publishes the event
// for the board service to apply.
func (s *Ws) forwardBoardEvent(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	topic := "board.service"
	if err := s.Broker.Publish(topic, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", topic, err)
		return
	}

	log.Debugf("Forwarded %s event from socket %s to topic %s", msg.Type, socketId, topic)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// JoinRoom moves the socket into the project's room. A socket views one
// board at a time, so joining replaces any previous room.
func (s *Ws) JoinRoom(socketId string, roomId string) {
	s.roomMap.Store(socketId, roomId)
}

// LeaveRoom is idempotent; leaving twice or without joining is a no-op.
func (s *Ws) LeaveRoom(socketId string) {
	s.roomMap.Delete(socketId)
}

func (s *Ws) GetRoom(socketId string) (string, bool) {
	room, ok := s.roomMap.Load(socketId)
	if !ok {
		return "", false
	}
	return room.(string), true
}

func (s *Ws) GetRoomSockets(roomId string) ([]string, bool) {
	var sockets []string
	found := false

	s.roomMap.Range(func(key, value interface{}) bool {
		if value.(string) == roomId {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}

// HandleDisconnect drops the connection and its room membership.
func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.LeaveRoom(socketId)
}
