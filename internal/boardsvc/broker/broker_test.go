package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
	"github.com/devcollab/collab-services/internal/boardsvc/ordering"
	"github.com/devcollab/collab-services/internal/boardsvc/service"
	"github.com/devcollab/collab-services/internal/comm"
)

type fakePublisher struct {
	messages []comm.WSMessage
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	msg := comm.WSMessage{}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	f.messages = append(f.messages, msg)
	return nil
}

type fakeBoards struct {
	board  *models.Board
	column *models.Column
	pair   [2]*models.Column
	order  []string
	err    error
	calls  []string
}

func (f *fakeBoards) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeBoards) GetOrCreateBoard(context.Context, string) (*models.Board, error) {
	f.record("GetOrCreateBoard")
	return f.board, f.err
}
func (f *fakeBoards) CreateList(context.Context, string, string) (*models.Board, error) {
	f.record("CreateList")
	return f.board, f.err
}
func (f *fakeBoards) UpdateListTitle(context.Context, string, string, string) (*models.Board, error) {
	f.record("UpdateListTitle")
	return f.board, f.err
}
func (f *fakeBoards) DeleteList(context.Context, string, string) (*models.Board, error) {
	f.record("DeleteList")
	return f.board, f.err
}
func (f *fakeBoards) CreateTask(context.Context, string, string, service.CardFields) (*models.Board, error) {
	f.record("CreateTask")
	return f.board, f.err
}
func (f *fakeBoards) UpdateTask(context.Context, string, string, service.CardFields) (*models.Board, error) {
	f.record("UpdateTask")
	return f.board, f.err
}
func (f *fakeBoards) DeleteTask(context.Context, string, string, string) (*models.Board, error) {
	f.record("DeleteTask")
	return f.board, f.err
}
func (f *fakeBoards) MoveColumn(context.Context, string, int, int, string) ([]string, error) {
	f.record("MoveColumn")
	return f.order, f.err
}
func (f *fakeBoards) MoveTaskSameColumn(context.Context, string, string, int, int, string) (*models.Column, error) {
	f.record("MoveTaskSameColumn")
	return f.column, f.err
}
func (f *fakeBoards) MoveTaskAnotherColumn(context.Context, string, string, int, string, int, string) (*models.Column, *models.Column, error) {
	f.record("MoveTaskAnotherColumn")
	return f.pair[0], f.pair[1], f.err
}

type fakeAccess struct {
	read  bool
	write bool
}

func (f *fakeAccess) HasAccess(context.Context, string, int64) (bool, error)      { return f.read, nil }
func (f *fakeAccess) HasWriteAccess(context.Context, string, int64) (bool, error) { return f.write, nil }
func (f *fakeAccess) ActorName(_ context.Context, _ int64, claimed string) string { return claimed }

type fakeActivity struct {
	err   error
	count int
}

func (f *fakeActivity) Append(_ context.Context, projectId, actor, verb, target string) (*models.Activity, error) {
	f.count++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Activity{ProjectId: projectId}, nil
}

func newTestBroker(boards *fakeBoards, access *fakeAccess, activity *fakeActivity) (*Broker, *fakePublisher) {
	pub := &fakePublisher{}
	return &Broker{
		pub:             pub,
		BoardService:    boards,
		AccessService:   access,
		ActivityService: activity,
	}, pub
}

func inbound(t *testing.T, msgType, socketId string, payload any) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(comm.WSMessage{Type: msgType, Data: data, SocketId: socketId})
	require.NoError(t, err)
	return &nats.Msg{Data: raw}
}

func byType(msgs []comm.WSMessage, msgType string) *comm.WSMessage {
	for i := range msgs {
		if msgs[i].Type == msgType {
			return &msgs[i]
		}
	}
	return nil
}

func TestCreateListBroadcastsFullBoardToWholeRoom(t *testing.T) {
	boards := &fakeBoards{board: models.NewBoard("p1")}
	b, pub := newTestBroker(boards, &fakeAccess{write: true}, &fakeActivity{})

	b.handleMessage(inbound(t, "create list", "sock-1", comm.CreateList{
		ProjectId: "p1", UserId: 7, UserName: "Sara", Title: "backlog",
	}))

	msg := byType(pub.messages, "task update")
	require.NotNil(t, msg)
	assert.Equal(t, "p1", msg.RoomId)
	assert.False(t, msg.Exclude, "create broadcasts include the sender")

	activity := byType(pub.messages, "receive activity message")
	require.NotNil(t, activity)
	assert.Equal(t, "p1", activity.RoomId)
}

func TestMoveColumnExcludesSender(t *testing.T) {
	boards := &fakeBoards{order: []string{"c2", "c1"}}
	b, pub := newTestBroker(boards, &fakeAccess{write: true}, &fakeActivity{})

	b.handleMessage(inbound(t, "move column", "sock-1", comm.MoveColumn{
		ProjectId: "p1", UserId: 7, SourceIndex: 0, DestIndex: 1, MovedId: "c1",
	}))

	msg := byType(pub.messages, "move column update")
	require.NotNil(t, msg)
	assert.Equal(t, "p1", msg.RoomId)
	assert.Equal(t, "sock-1", msg.SocketId)
	assert.True(t, msg.Exclude, "move broadcasts skip the sender")

	var update comm.ColumnOrderUpdate
	require.NoError(t, json.Unmarshal(msg.Data, &update))
	assert.Equal(t, []string{"c2", "c1"}, update.ColumnOrder)
}

func TestMoveTaskSameColumnExcludesSender(t *testing.T) {
	boards := &fakeBoards{column: &models.Column{Id: "c1", TaskIds: []string{"t2", "t1"}}}
	b, pub := newTestBroker(boards, &fakeAccess{write: true}, &fakeActivity{})

	b.handleMessage(inbound(t, "move task same column", "sock-9", comm.MoveTaskSameColumn{
		ProjectId: "p1", UserId: 7, ColumnId: "c1", SourceIndex: 0, DestIndex: 1, MovedId: "t1",
	}))

	msg := byType(pub.messages, "move task update")
	require.NotNil(t, msg)
	assert.True(t, msg.Exclude)
	assert.Equal(t, "sock-9", msg.SocketId)
}

func TestMoveTaskAnotherColumnBroadcastsBothColumns(t *testing.T) {
	boards := &fakeBoards{pair: [2]*models.Column{
		{Id: "c1", TaskIds: []string{"t2"}},
		{Id: "c2", TaskIds: []string{"t1"}},
	}}
	b, pub := newTestBroker(boards, &fakeAccess{write: true}, &fakeActivity{})

	b.handleMessage(inbound(t, "move task another column", "sock-1", comm.MoveTaskAnotherColumn{
		ProjectId: "p1", UserId: 7, SourceColumnId: "c1", SourceIndex: 0,
		DestColumnId: "c2", DestIndex: 0, MovedId: "t1",
	}))

	msg := byType(pub.messages, "move task another column update")
	require.NotNil(t, msg)
	assert.True(t, msg.Exclude)

	var update comm.ColumnPairUpdate
	require.NoError(t, json.Unmarshal(msg.Data, &update))
	assert.Equal(t, []string{"t2"}, update.ColumnStart.TaskIds)
	assert.Equal(t, []string{"t1"}, update.ColumnFinish.TaskIds)
}

func TestPermissionDeniedIsSilentNoOp(t *testing.T) {
	boards := &fakeBoards{board: models.NewBoard("p1")}
	b, pub := newTestBroker(boards, &fakeAccess{write: false}, &fakeActivity{})

	b.handleMessage(inbound(t, "delete list", "sock-1", comm.DeleteList{
		ProjectId: "p1", UserId: 7, ListId: "c1",
	}))

	assert.Empty(t, boards.calls, "denied events never reach the board service")
	assert.Empty(t, pub.messages)
}

func TestInvalidMoveProducesNoBroadcast(t *testing.T) {
	boards := &fakeBoards{err: ordering.ErrInvalidMove}
	b, pub := newTestBroker(boards, &fakeAccess{write: true}, &fakeActivity{})

	b.handleMessage(inbound(t, "move column", "sock-1", comm.MoveColumn{
		ProjectId: "p1", UserId: 7, SourceIndex: 99, DestIndex: 0,
	}))

	assert.Empty(t, pub.messages)
}

func TestStoreFailureAbortsBroadcast(t *testing.T) {
	boards := &fakeBoards{err: errors.New("write concern failed")}
	activity := &fakeActivity{}
	b, pub := newTestBroker(boards, &fakeAccess{write: true}, activity)

	b.handleMessage(inbound(t, "create task", "sock-1", comm.CreateTask{
		ProjectId: "p1", UserId: 7, ColumnId: "c1",
	}))

	assert.Empty(t, pub.messages, "unpersisted state is never announced")
	assert.Zero(t, activity.count)
}

func TestActivityFailureDoesNotSuppressBoardBroadcast(t *testing.T) {
	boards := &fakeBoards{board: models.NewBoard("p1")}
	b, pub := newTestBroker(boards, &fakeAccess{write: true}, &fakeActivity{err: errors.New("feed down")})

	b.handleMessage(inbound(t, "create list", "sock-1", comm.CreateList{
		ProjectId: "p1", UserId: 7, Title: "backlog",
	}))

	assert.NotNil(t, byType(pub.messages, "task update"))
	assert.Nil(t, byType(pub.messages, "receive activity message"))
}

func TestJoinProjectAnswersJoiningSocketOnly(t *testing.T) {
	boards := &fakeBoards{board: models.NewBoard("p1")}
	b, pub := newTestBroker(boards, &fakeAccess{read: true}, &fakeActivity{})

	b.handleMessage(inbound(t, "join project", "sock-3", comm.JoinProject{
		ProjectId: "p1", UserId: 7, UserName: "Sara",
	}))

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, "task update", msg.Type)
	assert.Equal(t, "sock-3", msg.SocketId)
	assert.Empty(t, msg.RoomId, "snapshot goes to the joining socket, not the room")
}

func TestJoinProjectDeniedWithoutAccess(t *testing.T) {
	boards := &fakeBoards{board: models.NewBoard("p1")}
	b, pub := newTestBroker(boards, &fakeAccess{read: false}, &fakeActivity{})

	b.handleMessage(inbound(t, "join project", "sock-3", comm.JoinProject{
		ProjectId: "p1", UserId: 7,
	}))

	assert.Empty(t, pub.messages)
	assert.Empty(t, boards.calls)
}

func TestUnknownEventIgnored(t *testing.T) {
	boards := &fakeBoards{}
	b, pub := newTestBroker(boards, &fakeAccess{write: true}, &fakeActivity{})

	b.handleMessage(inbound(t, "reticulate splines", "sock-1", struct{}{}))

	assert.Empty(t, pub.messages)
	assert.Empty(t, boards.calls)
}
