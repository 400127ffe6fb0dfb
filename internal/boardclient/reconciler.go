package boardclient

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
	"github.com/devcollab/collab-services/internal/boardsvc/ordering"
	"github.com/devcollab/collab-services/internal/comm"
)

// State tracks whether the local mirror carries unconfirmed speculation.
type State int

const (
	// StateReconciled: the mirror equals the last authoritative broadcast.
	StateReconciled State = iota
	// StateOptimistic: a local drag was applied ahead of server confirmation.
	StateOptimistic
)

func (s State) String() string {
	if s == StateOptimistic {
		return "optimistic"
	}
	return "reconciled"
}

// Reconciler is a client's local mirror of one project board. Drags mutate
// it immediately for responsiveness; any authoritative broadcast then
// overwrites the affected state unconditionally, optimistic or not.
type Reconciler struct {
	mu    sync.Mutex
	board *models.Board
	state State
}

func NewReconciler() *Reconciler {
	return &Reconciler{board: nil, state: StateReconciled}
}

// Board returns a copy of the mirror; nil before the first broadcast.
func (r *Reconciler) Board() *models.Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.board == nil {
		return nil
	}
	return r.board.Clone()
}

func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// OptimisticMoveColumn applies a column drag locally and returns the event
// payload to send. The local apply uses the same ordering rules the server
// does, so an accepted move converges without a round trip.
func (r *Reconciler) OptimisticMoveColumn(projectId string, userId int64, sourceIndex, destIndex int) (*comm.MoveColumn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.board == nil {
		return nil, fmt.Errorf("no board loaded")
	}
	if err := ordering.CheckMoved(r.board.ColumnOrder, sourceIndex, ""); err != nil {
		return nil, err
	}
	movedId := r.board.ColumnOrder[sourceIndex]

	newOrder, err := ordering.MoveColumn(r.board.ColumnOrder, sourceIndex, destIndex)
	if err != nil {
		return nil, err
	}
	r.board.ColumnOrder = newOrder
	r.state = StateOptimistic

	return &comm.MoveColumn{
		ProjectId:   projectId,
		UserId:      userId,
		SourceIndex: sourceIndex,
		DestIndex:   destIndex,
		MovedId:     movedId,
	}, nil
}

// OptimisticMoveTaskSameColumn applies a same-column card drag locally.
func (r *Reconciler) OptimisticMoveTaskSameColumn(projectId string, userId int64, columnId string, sourceIndex, destIndex int) (*comm.MoveTaskSameColumn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.board == nil {
		return nil, fmt.Errorf("no board loaded")
	}
	column, ok := r.board.Columns[columnId]
	if !ok {
		return nil, fmt.Errorf("unknown column %s", columnId)
	}
	if err := ordering.CheckMoved(column.TaskIds, sourceIndex, ""); err != nil {
		return nil, err
	}
	movedId := column.TaskIds[sourceIndex]

	newIds, err := ordering.MoveCardWithinColumn(column.TaskIds, sourceIndex, destIndex)
	if err != nil {
		return nil, err
	}
	column.TaskIds = newIds
	r.board.UpsertColumn(columnId, column)
	r.state = StateOptimistic

	return &comm.MoveTaskSameColumn{
		ProjectId:   projectId,
		UserId:      userId,
		ColumnId:    columnId,
		SourceIndex: sourceIndex,
		DestIndex:   destIndex,
		MovedId:     movedId,
	}, nil
}

// OptimisticMoveTaskAnotherColumn applies a cross-column card drag locally.
func (r *Reconciler) OptimisticMoveTaskAnotherColumn(projectId string, userId int64, sourceColumnId string, sourceIndex int, destColumnId string, destIndex int) (*comm.MoveTaskAnotherColumn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.board == nil {
		return nil, fmt.Errorf("no board loaded")
	}
	source, ok := r.board.Columns[sourceColumnId]
	if !ok {
		return nil, fmt.Errorf("unknown column %s", sourceColumnId)
	}
	dest, ok := r.board.Columns[destColumnId]
	if !ok {
		return nil, fmt.Errorf("unknown column %s", destColumnId)
	}
	if err := ordering.CheckMoved(source.TaskIds, sourceIndex, ""); err != nil {
		return nil, err
	}
	movedId := source.TaskIds[sourceIndex]

	newSource, newDest, err := ordering.MoveCardAcrossColumns(source.TaskIds, dest.TaskIds, sourceIndex, destIndex)
	if err != nil {
		return nil, err
	}
	source.TaskIds = newSource
	dest.TaskIds = newDest
	r.board.UpsertColumn(sourceColumnId, source)
	r.board.UpsertColumn(destColumnId, dest)
	r.state = StateOptimistic

	return &comm.MoveTaskAnotherColumn{
		ProjectId:      projectId,
		UserId:         userId,
		SourceColumnId: sourceColumnId,
		SourceIndex:    sourceIndex,
		DestColumnId:   destColumnId,
		DestIndex:      destIndex,
		MovedId:        movedId,
	}, nil
}

// ApplyBroadcast feeds one server broadcast into the mirror. The server is
// authoritative: whatever it announces replaces local state wholesale, with
// no merge against pending optimism.
func (r *Reconciler) ApplyBroadcast(msg *comm.WSMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch msg.Type {
	case "task update":
		board := &models.Board{}
		if err := json.Unmarshal(msg.Data, board); err != nil {
			return fmt.Errorf("bad board payload: %w", err)
		}
		r.board = board

	case "move column update":
		var update comm.ColumnOrderUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			return fmt.Errorf("bad column order payload: %w", err)
		}
		if r.board == nil {
			return fmt.Errorf("no board loaded")
		}
		r.board.ColumnOrder = update.ColumnOrder

	case "move task update":
		var update comm.ColumnUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			return fmt.Errorf("bad column payload: %w", err)
		}
		if r.board == nil {
			return fmt.Errorf("no board loaded")
		}
		r.board.UpsertColumn(update.Column.Id, update.Column)

	case "move task another column update":
		var update comm.ColumnPairUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			return fmt.Errorf("bad column pair payload: %w", err)
		}
		if r.board == nil {
			return fmt.Errorf("no board loaded")
		}
		r.board.UpsertColumn(update.ColumnStart.Id, update.ColumnStart)
		r.board.UpsertColumn(update.ColumnFinish.Id, update.ColumnFinish)

	default:
		return fmt.Errorf("not a board broadcast: %s", msg.Type)
	}

	r.state = StateReconciled
	return nil
}
