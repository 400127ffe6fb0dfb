package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
	"github.com/devcollab/collab-services/internal/boardsvc/service"
	"github.com/devcollab/collab-services/internal/comm"
)

const (
	inboundTopic  = "board.service"  // socket gateway -> board service
	outboundTopic = "socket.service" // board service -> socket gateway
)

type boardOps interface {
	GetOrCreateBoard(ctx context.Context, projectId string) (*models.Board, error)
	CreateList(ctx context.Context, projectId, title string) (*models.Board, error)
	UpdateListTitle(ctx context.Context, projectId, listId, title string) (*models.Board, error)
	DeleteList(ctx context.Context, projectId, listId string) (*models.Board, error)
	CreateTask(ctx context.Context, projectId, columnId string, fields service.CardFields) (*models.Board, error)
	UpdateTask(ctx context.Context, projectId, taskId string, fields service.CardFields) (*models.Board, error)
	DeleteTask(ctx context.Context, projectId, columnId, taskId string) (*models.Board, error)
	MoveColumn(ctx context.Context, projectId string, sourceIndex, destIndex int, movedId string) ([]string, error)
	MoveTaskSameColumn(ctx context.Context, projectId, columnId string, sourceIndex, destIndex int, movedId string) (*models.Column, error)
	MoveTaskAnotherColumn(ctx context.Context, projectId, sourceColumnId string, sourceIndex int, destColumnId string, destIndex int, movedId string) (*models.Column, *models.Column, error)
}

type accessOps interface {
	HasAccess(ctx context.Context, projectId string, userId int64) (bool, error)
	HasWriteAccess(ctx context.Context, projectId string, userId int64) (bool, error)
	ActorName(ctx context.Context, userId int64, claimed string) string
}

type activityOps interface {
	Append(ctx context.Context, projectId, actorName, verb, targetName string) (*models.Activity, error)
}

type publisher interface {
	Publish(topic string, payload []byte) error
}

// Broker is the authoritative mediator: it consumes board events from the
// socket gateway, applies them through the board service, and publishes the
// resulting room-scoped broadcasts. Every failure is handled here as a
// logged no-op; clients never receive structured errors.
type Broker struct {
	Conn            *nats.Conn
	pub             publisher
	BoardService    boardOps
	AccessService   accessOps
	ActivityService activityOps
}

func NewBroker(nc *nats.Conn, boardService *service.BoardService,
	accessService *service.AccessService, activityService *service.ActivityService) *Broker {
	return &Broker{
		Conn:            nc,
		pub:             nc,
		BoardService:    boardService,
		AccessService:   accessService,
		ActivityService: activityService,
	}
}

// SubscribeSocketService consumes board events forwarded by the gateway.
func (b *Broker) SubscribeSocketService() (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(inboundTopic, b.handleMessage)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// handleMessage applies one inbound event end to end: permission check,
// read-modify-persist, then at most one broadcast.
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "join project":
		b.handleJoinProject(msg)
	case "create list":
		b.handleCreateList(msg)
	case "update list":
		b.handleUpdateList(msg)
	case "delete list":
		b.handleDeleteList(msg)
	case "create task":
		b.handleCreateTask(msg)
	case "update task":
		b.handleUpdateTask(msg)
	case "delete task":
		b.handleDeleteTask(msg)
	case "move column":
		b.handleMoveColumn(msg)
	case "move task same column":
		b.handleMoveTaskSameColumn(msg)
	case "move task another column":
		b.handleMoveTaskAnotherColumn(msg)
	default:
		log.Errorf("Unknown message type: %s", msg.Type)
	}
}

// canWrite gates every mutating event at the transport boundary, before any
// board logic runs.
func (b *Broker) canWrite(ctx context.Context, projectId string, userId int64) bool {
	ok, err := b.AccessService.HasWriteAccess(ctx, projectId, userId)
	if err != nil {
		log.Errorf("Error checking write access for user %d on project %s: %s", userId, projectId, err)
		return false
	}
	if !ok {
		log.Warnf("user %d has no write access to project %s", userId, projectId)
	}
	return ok
}

func (b *Broker) handleJoinProject(msg *comm.WSMessage) {
	var request comm.JoinProject
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling join project: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ok, err := b.AccessService.HasAccess(ctx, request.ProjectId, request.UserId)
	if err != nil || !ok {
		log.Warnf("user %d denied access to project %s", request.UserId, request.ProjectId)
		return
	}

	// the board is created lazily the first time a project's task feature
	// is touched
	board, err := b.BoardService.GetOrCreateBoard(ctx, request.ProjectId)
	if err != nil {
		log.Errorf("Error [BoardService.GetOrCreateBoard] %s", err)
		return
	}

	b.PublishBoardToSocket(board, msg.SocketId)
}

func (b *Broker) handleCreateList(msg *comm.WSMessage) {
	var request comm.CreateList
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling create list: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !b.canWrite(ctx, request.ProjectId, request.UserId) {
		return
	}

	board, err := b.BoardService.CreateList(ctx, request.ProjectId, request.Title)
	if err != nil {
		log.Errorf("Error [BoardService.CreateList] %s", err)
		return
	}

	b.PublishBoardToRoom(board, request.ProjectId)
	b.appendActivity(ctx, request.ProjectId, request.UserId, request.UserName, "created", request.Title+" list")
}

func (b *Broker) handleUpdateList(msg *comm.WSMessage) {
	var request comm.UpdateList
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling update list: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !b.canWrite(ctx, request.ProjectId, request.UserId) {
		return
	}

	board, err := b.BoardService.UpdateListTitle(ctx, request.ProjectId, request.ListId, request.Title)
	if err != nil {
		log.Errorf("Error [BoardService.UpdateListTitle] %s", err)
		return
	}

	b.PublishBoardToRoom(board, request.ProjectId)
	b.appendActivity(ctx, request.ProjectId, request.UserId, request.UserName, "renamed", request.Title+" list")
}

func (b *Broker) handleDeleteList(msg *comm.WSMessage) {
	var request comm.DeleteList
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling delete list: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !b.canWrite(ctx, request.ProjectId, request.UserId) {
		return
	}

	board, err := b.BoardService.DeleteList(ctx, request.ProjectId, request.ListId)
	if err != nil {
		log.Errorf("Error [BoardService.DeleteList] %s", err)
		return
	}

	b.PublishBoardToRoom(board, request.ProjectId)
	b.appendActivity(ctx, request.ProjectId, request.UserId, request.UserName, "deleted", "a list")
}

func (b *Broker) handleCreateTask(msg *comm.WSMessage) {
	var request comm.CreateTask
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling create task: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !b.canWrite(ctx, request.ProjectId, request.UserId) {
		return
	}

	board, err := b.BoardService.CreateTask(ctx, request.ProjectId, request.ColumnId, cardFields(request.Task))
	if err != nil {
		log.Errorf("Error [BoardService.CreateTask] %s", err)
		return
	}

	b.PublishBoardToRoom(board, request.ProjectId)

	title := ""
	if request.Task.Title != nil {
		title = *request.Task.Title
	}
	b.appendActivity(ctx, request.ProjectId, request.UserId, request.UserName, "created", title+" task")
}

func (b *Broker) handleUpdateTask(msg *comm.WSMessage) {
	var request comm.UpdateTask
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling update task: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !b.canWrite(ctx, request.ProjectId, request.UserId) {
		return
	}

	board, err := b.BoardService.UpdateTask(ctx, request.ProjectId, request.TaskId, cardFields(request.Task))
	if err != nil {
		log.Errorf("Error [BoardService.UpdateTask] %s", err)
		return
	}

	b.PublishBoardToRoom(board, request.ProjectId)
}

func (b *Broker) handleDeleteTask(msg *comm.WSMessage) {
	var request comm.DeleteTask
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling delete task: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !b.canWrite(ctx, request.ProjectId, request.UserId) {
		return
	}

	board, err := b.BoardService.DeleteTask(ctx, request.ProjectId, request.ColumnId, request.TaskId)
	if err != nil {
		log.Errorf("Error [BoardService.DeleteTask] %s", err)
		return
	}

	b.PublishBoardToRoom(board, request.ProjectId)
	b.appendActivity(ctx, request.ProjectId, request.UserId, request.UserName, "deleted", "a task")
}

func (b *Broker) handleMoveColumn(msg *comm.WSMessage) {
	var request comm.MoveColumn
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling move column: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !b.canWrite(ctx, request.ProjectId, request.UserId) {
		return
	}

	order, err := b.BoardService.MoveColumn(ctx, request.ProjectId, request.SourceIndex, request.DestIndex, request.MovedId)
	if err != nil {
		log.Errorf("Error [BoardService.MoveColumn] %s", err)
		return
	}

	b.PublishColumnOrderUpdate(order, request.ProjectId, msg.SocketId)
	b.appendActivity(ctx, request.ProjectId, request.UserId, request.UserName, "reordered", "the board lists")
}

func (b *Broker) handleMoveTaskSameColumn(msg *comm.WSMessage) {
	var request comm.MoveTaskSameColumn
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling move task same column: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !b.canWrite(ctx, request.ProjectId, request.UserId) {
		return
	}

	column, err := b.BoardService.MoveTaskSameColumn(ctx, request.ProjectId, request.ColumnId,
		request.SourceIndex, request.DestIndex, request.MovedId)
	if err != nil {
		log.Errorf("Error [BoardService.MoveTaskSameColumn] %s", err)
		return
	}

	b.PublishColumnUpdate(*column, request.ProjectId, msg.SocketId)
}

func (b *Broker) handleMoveTaskAnotherColumn(msg *comm.WSMessage) {
	var request comm.MoveTaskAnotherColumn
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling move task another column: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !b.canWrite(ctx, request.ProjectId, request.UserId) {
		return
	}

	start, finish, err := b.BoardService.MoveTaskAnotherColumn(ctx, request.ProjectId,
		request.SourceColumnId, request.SourceIndex, request.DestColumnId, request.DestIndex, request.MovedId)
	if err != nil {
		log.Errorf("Error [BoardService.MoveTaskAnotherColumn] %s", err)
		return
	}

	b.PublishColumnPairUpdate(*start, *finish, request.ProjectId, msg.SocketId)
	b.appendActivity(ctx, request.ProjectId, request.UserId, request.UserName, "moved", "a task")
}

// appendActivity is fire-and-forget: the board mutation already committed,
// a feed failure only loses the message.
func (b *Broker) appendActivity(ctx context.Context, projectId string, userId int64, claimedName, verb, target string) {
	actor := b.AccessService.ActorName(ctx, userId, claimedName)
	activity, err := b.ActivityService.Append(ctx, projectId, actor, verb, target)
	if err != nil {
		log.Errorf("Error [ActivityService.Append] %s", err)
		return
	}
	b.PublishActivity(activity, projectId)
}

func cardFields(t comm.TaskData) service.CardFields {
	return service.CardFields{
		Title:       t.Title,
		Description: t.Description,
		Members:     t.Members,
		DueDate:     t.DueDate,
	}
}
