package broker

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
	"github.com/devcollab/collab-services/internal/comm"
)

// PublishBoardToRoom announces the full board to every socket in the
// project room, the sender included.
func (b *Broker) PublishBoardToRoom(board *models.Board, roomId string) {
	data, err := json.Marshal(board)
	if err != nil {
		log.Errorf("unable to marshal board for project %s: %s", roomId, err)
		return
	}

	msg := &comm.WSMessage{
		Type:   "task update",
		Data:   data,
		RoomId: roomId,
	}

	b.publish(msg)
}

// PublishBoardToSocket answers one socket directly, used on room join.
func (b *Broker) PublishBoardToSocket(board *models.Board, socketId string) {
	data, err := json.Marshal(board)
	if err != nil {
		log.Errorf("unable to marshal board for socket %s: %s", socketId, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     "task update",
		Data:     data,
		SocketId: socketId,
	}

	b.publish(msg)
}

// PublishColumnOrderUpdate announces a column reorder to the room,
// excluding the sender whose optimistic state already reflects it.
func (b *Broker) PublishColumnOrderUpdate(columnOrder []string, roomId, socketId string) {
	data, err := json.Marshal(comm.ColumnOrderUpdate{ColumnOrder: columnOrder})
	if err != nil {
		log.Errorf("unable to marshal column order for project %s: %s", roomId, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     "move column update",
		Data:     data,
		SocketId: socketId,
		RoomId:   roomId,
		Exclude:  true,
	}

	b.publish(msg)
}

// PublishColumnUpdate announces a same-column card move, excluding the sender.
func (b *Broker) PublishColumnUpdate(column models.Column, roomId, socketId string) {
	data, err := json.Marshal(comm.ColumnUpdate{Column: column})
	if err != nil {
		log.Errorf("unable to marshal column for project %s: %s", roomId, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     "move task update",
		Data:     data,
		SocketId: socketId,
		RoomId:   roomId,
		Exclude:  true,
	}

	b.publish(msg)
}

// PublishColumnPairUpdate announces a cross-column card move, excluding the
// sender.
func (b *Broker) PublishColumnPairUpdate(start, finish models.Column, roomId, socketId string) {
	data, err := json.Marshal(comm.ColumnPairUpdate{ColumnStart: start, ColumnFinish: finish})
	if err != nil {
		log.Errorf("unable to marshal column pair for project %s: %s", roomId, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     "move task another column update",
		Data:     data,
		SocketId: socketId,
		RoomId:   roomId,
		Exclude:  true,
	}

	b.publish(msg)
}

// PublishActivity announces a new feed message to the whole room.
func (b *Broker) PublishActivity(activity *models.Activity, roomId string) {
	data, err := json.Marshal(activity)
	if err != nil {
		log.Errorf("unable to marshal activity for project %s: %s", roomId, err)
		return
	}

	msg := &comm.WSMessage{
		Type:   "receive activity message",
		Data:   data,
		RoomId: roomId,
	}

	b.publish(msg)
}

func (b *Broker) publish(msg *comm.WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if err := b.pub.Publish(outboundTopic, payload); err != nil {
		log.Errorf("Error publishing to topic %s: %s", outboundTopic, err)
	}
}
