package boardclient

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/devcollab/collab-services/internal/comm"
)

// Client connects to the socket gateway, joins a project room, and keeps a
// reconciled board mirror. One client views one board at a time.
type Client struct {
	conn       *websocket.Conn
	writeMu    sync.Mutex
	Reconciler *Reconciler

	userId   int64
	userName string

	mu        sync.Mutex
	projectId string // empty when not joined

	done chan struct{}
}

// Dial connects to the gateway's websocket endpoint and starts the
// broadcast listener.
func Dial(url string, userId int64, userName string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:       conn,
		Reconciler: NewReconciler(),
		userId:     userId,
		userName:   userName,
		done:       make(chan struct{}),
	}
	go c.listen()
	return c, nil
}

func (c *Client) listen() {
	defer close(c.done)
	for {
		msg := &comm.WSMessage{}
		if err := c.conn.ReadJSON(msg); err != nil {
			log.Infof("board client connection closed: %v", err)
			return
		}

		switch msg.Type {
		case "receive activity message", "error":
			// not board state; nothing to reconcile
		default:
			if err := c.Reconciler.ApplyBroadcast(msg); err != nil {
				log.Warnf("ignoring broadcast %s: %v", msg.Type, err)
			}
		}
	}
}

// Join enters a project room; the server answers with a board snapshot.
func (c *Client) Join(projectId string) error {
	c.mu.Lock()
	c.projectId = projectId
	c.mu.Unlock()

	return c.send("join project", comm.JoinProject{
		ProjectId: projectId,
		UserId:    c.userId,
		UserName:  c.userName,
	})
}

// Leave exits the current room. Leaving while not joined is a no-op.
func (c *Client) Leave() error {
	c.mu.Lock()
	projectId := c.projectId
	c.projectId = ""
	c.mu.Unlock()

	if projectId == "" {
		return nil
	}
	return c.send("leave project", comm.LeaveProject{ProjectId: projectId})
}

func (c *Client) currentProject() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectId
}

// MoveColumn applies the drag optimistically and sends the move event.
func (c *Client) MoveColumn(sourceIndex, destIndex int) error {
	event, err := c.Reconciler.OptimisticMoveColumn(c.currentProject(), c.userId, sourceIndex, destIndex)
	if err != nil {
		return err
	}
	return c.send("move column", event)
}

// MoveTaskSameColumn applies the drag optimistically and sends the event.
func (c *Client) MoveTaskSameColumn(columnId string, sourceIndex, destIndex int) error {
	event, err := c.Reconciler.OptimisticMoveTaskSameColumn(c.currentProject(), c.userId, columnId, sourceIndex, destIndex)
	if err != nil {
		return err
	}
	return c.send("move task same column", event)
}

// MoveTaskAnotherColumn applies the drag optimistically and sends the event.
func (c *Client) MoveTaskAnotherColumn(sourceColumnId string, sourceIndex int, destColumnId string, destIndex int) error {
	event, err := c.Reconciler.OptimisticMoveTaskAnotherColumn(c.currentProject(), c.userId,
		sourceColumnId, sourceIndex, destColumnId, destIndex)
	if err != nil {
		return err
	}
	return c.send("move task another column", event)
}

// CreateList asks the server for a new column; the confirming "task update"
// broadcast carries the assigned id.
func (c *Client) CreateList(title string) error {
	return c.send("create list", comm.CreateList{
		ProjectId: c.currentProject(),
		UserId:    c.userId,
		UserName:  c.userName,
		Title:     title,
	})
}

func (c *Client) UpdateList(listId, title string) error {
	return c.send("update list", comm.UpdateList{
		ProjectId: c.currentProject(),
		UserId:    c.userId,
		UserName:  c.userName,
		ListId:    listId,
		Title:     title,
	})
}

func (c *Client) DeleteList(listId string) error {
	return c.send("delete list", comm.DeleteList{
		ProjectId: c.currentProject(),
		UserId:    c.userId,
		UserName:  c.userName,
		ListId:    listId,
	})
}

func (c *Client) CreateTask(columnId string, task comm.TaskData) error {
	return c.send("create task", comm.CreateTask{
		ProjectId: c.currentProject(),
		UserId:    c.userId,
		UserName:  c.userName,
		ColumnId:  columnId,
		Task:      task,
	})
}

func (c *Client) UpdateTask(taskId string, task comm.TaskData) error {
	return c.send("update task", comm.UpdateTask{
		ProjectId: c.currentProject(),
		UserId:    c.userId,
		UserName:  c.userName,
		TaskId:    taskId,
		Task:      task,
	})
}

func (c *Client) DeleteTask(columnId, taskId string) error {
	return c.send("delete task", comm.DeleteTask{
		ProjectId: c.currentProject(),
		UserId:    c.userId,
		UserName:  c.userName,
		ColumnId:  columnId,
		TaskId:    taskId,
	})
}

func (c *Client) send(msgType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(&comm.WSMessage{Type: msgType, Data: data})
}

// Close tears down the connection; the listener exits on read error.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}
