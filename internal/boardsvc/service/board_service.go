package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
	"github.com/devcollab/collab-services/internal/boardsvc/ordering"
	"github.com/devcollab/collab-services/internal/boardsvc/store"
)

// BoardStore is the persistence contract the service needs: load a board
// and commit one atomic patch against it.
type BoardStore interface {
	Get(ctx context.Context, projectId string) (*models.Board, error)
	GetOrCreate(ctx context.Context, projectId string) (*models.Board, error)
	ApplyPatch(ctx context.Context, projectId string, patch store.Patch) (*models.Board, error)
}

// CardFields carries the card attributes a client supplied; nil pointers
// mean "leave unchanged" on update.
type CardFields struct {
	Title       *string
	Description *string
	Members     []models.CardMember
	DueDate     *string
}

type BoardService struct {
	boardStore BoardStore
}

func NewBoardService(boardStore BoardStore) *BoardService {
	return &BoardService{boardStore: boardStore}
}

func (s *BoardService) GetOrCreateBoard(ctx context.Context, projectId string) (*models.Board, error) {
	return s.boardStore.GetOrCreate(ctx, projectId)
}

// CreateList appends a new empty column to the board.
func (s *BoardService) CreateList(ctx context.Context, projectId, title string) (*models.Board, error) {
	board, err := s.boardStore.GetOrCreate(ctx, projectId)
	if err != nil {
		return nil, err
	}

	listId := uuid.NewString()
	column := models.Column{Id: listId, Title: title, TaskIds: []string{}}

	patch := store.Patch{
		ColumnOrder: append(append([]string{}, board.ColumnOrder...), listId),
		SetColumns:  map[string]models.Column{listId: column},
	}
	return s.boardStore.ApplyPatch(ctx, projectId, patch)
}

// UpdateListTitle rewrites a column's title, leaving its card order alone.
func (s *BoardService) UpdateListTitle(ctx context.Context, projectId, listId, title string) (*models.Board, error) {
	board, err := s.boardStore.Get(ctx, projectId)
	if err != nil {
		return nil, err
	}

	column, ok := board.Columns[listId]
	if !ok {
		return nil, fmt.Errorf("list %s: %w", listId, store.ErrNotFound)
	}
	column.Title = title

	patch := store.Patch{SetColumns: map[string]models.Column{listId: column}}
	return s.boardStore.ApplyPatch(ctx, projectId, patch)
}

// DeleteList removes the column, its entry in columnOrder, and every card
// it held, in one atomic patch.
func (s *BoardService) DeleteList(ctx context.Context, projectId, listId string) (*models.Board, error) {
	board, err := s.boardStore.Get(ctx, projectId)
	if err != nil {
		return nil, err
	}

	column, ok := board.Columns[listId]
	if !ok {
		return nil, fmt.Errorf("list %s: %w", listId, store.ErrNotFound)
	}

	newOrder := make([]string, 0, len(board.ColumnOrder))
	for _, id := range board.ColumnOrder {
		if id != listId {
			newOrder = append(newOrder, id)
		}
	}

	patch := store.Patch{
		ColumnOrder:  newOrder,
		UnsetColumns: []string{listId},
		UnsetTasks:   column.TaskIds,
	}
	return s.boardStore.ApplyPatch(ctx, projectId, patch)
}

// CreateTask inserts a new card and appends its id to the target column.
func (s *BoardService) CreateTask(ctx context.Context, projectId, columnId string, fields CardFields) (*models.Board, error) {
	board, err := s.boardStore.Get(ctx, projectId)
	if err != nil {
		return nil, err
	}

	column, ok := board.Columns[columnId]
	if !ok {
		return nil, fmt.Errorf("list %s: %w", columnId, store.ErrNotFound)
	}

	taskId := uuid.NewString()
	card := models.Card{
		Id:       taskId,
		Members:  fields.Members,
		Comments: []models.Comment{},
	}
	if fields.Title != nil {
		card.Title = *fields.Title
	}
	if fields.Description != nil {
		card.Description = *fields.Description
	}
	if fields.DueDate != nil {
		card.DueDate = *fields.DueDate
	}
	column.TaskIds = append(append([]string{}, column.TaskIds...), taskId)

	patch := store.Patch{
		SetColumns: map[string]models.Column{columnId: column},
		SetTasks:   map[string]models.Card{taskId: card},
	}
	return s.boardStore.ApplyPatch(ctx, projectId, patch)
}

// UpdateTask merges the supplied fields into an existing card. The card's
// id and its column membership are untouched.
func (s *BoardService) UpdateTask(ctx context.Context, projectId, taskId string, fields CardFields) (*models.Board, error) {
	board, err := s.boardStore.Get(ctx, projectId)
	if err != nil {
		return nil, err
	}

	card, ok := board.Tasks[taskId]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskId, store.ErrNotFound)
	}

	if fields.Title != nil {
		card.Title = *fields.Title
	}
	if fields.Description != nil {
		card.Description = *fields.Description
	}
	if fields.DueDate != nil {
		card.DueDate = *fields.DueDate
	}
	if fields.Members != nil {
		card.Members = fields.Members
	}

	patch := store.Patch{SetTasks: map[string]models.Card{taskId: card}}
	return s.boardStore.ApplyPatch(ctx, projectId, patch)
}

// DeleteTask removes the card and drops its id from its column.
func (s *BoardService) DeleteTask(ctx context.Context, projectId, columnId, taskId string) (*models.Board, error) {
	board, err := s.boardStore.Get(ctx, projectId)
	if err != nil {
		return nil, err
	}

	if _, ok := board.Tasks[taskId]; !ok {
		return nil, fmt.Errorf("task %s: %w", taskId, store.ErrNotFound)
	}
	column, ok := board.Columns[columnId]
	if !ok {
		return nil, fmt.Errorf("list %s: %w", columnId, store.ErrNotFound)
	}

	// a stale event can name the column the card sat in before another
	// client moved it; deleting against the wrong column would strip the
	// card from Tasks while its id stays in the owning column
	if owner, ok := board.ColumnOf(taskId); !ok || owner != columnId {
		return nil, fmt.Errorf("task %s is not in list %s: %w", taskId, columnId, store.ErrNotFound)
	}

	newIds := make([]string, 0, len(column.TaskIds))
	for _, id := range column.TaskIds {
		if id != taskId {
			newIds = append(newIds, id)
		}
	}
	column.TaskIds = newIds

	patch := store.Patch{
		SetColumns: map[string]models.Column{columnId: column},
		UnsetTasks: []string{taskId},
	}
	return s.boardStore.ApplyPatch(ctx, projectId, patch)
}

// MoveColumn reorders columnOrder and persists it, returning the new order.
func (s *BoardService) MoveColumn(ctx context.Context, projectId string, sourceIndex, destIndex int, movedId string) ([]string, error) {
	board, err := s.boardStore.Get(ctx, projectId)
	if err != nil {
		return nil, err
	}

	if err := ordering.CheckMoved(board.ColumnOrder, sourceIndex, movedId); err != nil {
		return nil, err
	}
	newOrder, err := ordering.MoveColumn(board.ColumnOrder, sourceIndex, destIndex)
	if err != nil {
		return nil, err
	}

	updated, err := s.boardStore.ApplyPatch(ctx, projectId, store.Patch{ColumnOrder: newOrder})
	if err != nil {
		return nil, err
	}
	return updated.ColumnOrder, nil
}

// MoveTaskSameColumn reorders one column's taskIds and persists the column.
func (s *BoardService) MoveTaskSameColumn(ctx context.Context, projectId, columnId string, sourceIndex, destIndex int, movedId string) (*models.Column, error) {
	board, err := s.boardStore.Get(ctx, projectId)
	if err != nil {
		return nil, err
	}

	column, ok := board.Columns[columnId]
	if !ok {
		return nil, fmt.Errorf("list %s: %w", columnId, store.ErrNotFound)
	}
	if err := ordering.CheckMoved(column.TaskIds, sourceIndex, movedId); err != nil {
		return nil, err
	}
	newIds, err := ordering.MoveCardWithinColumn(column.TaskIds, sourceIndex, destIndex)
	if err != nil {
		return nil, err
	}
	column.TaskIds = newIds

	updated, err := s.boardStore.ApplyPatch(ctx, projectId, store.Patch{
		SetColumns: map[string]models.Column{columnId: column},
	})
	if err != nil {
		return nil, err
	}
	result := updated.Columns[columnId]
	return &result, nil
}

// MoveTaskAnotherColumn moves a card between two columns; both updated
// columns persist in the same patch.
func (s *BoardService) MoveTaskAnotherColumn(ctx context.Context, projectId, sourceColumnId string, sourceIndex int, destColumnId string, destIndex int, movedId string) (start, finish *models.Column, err error) {
	board, err := s.boardStore.Get(ctx, projectId)
	if err != nil {
		return nil, nil, err
	}

	source, ok := board.Columns[sourceColumnId]
	if !ok {
		return nil, nil, fmt.Errorf("list %s: %w", sourceColumnId, store.ErrNotFound)
	}
	dest, ok := board.Columns[destColumnId]
	if !ok {
		return nil, nil, fmt.Errorf("list %s: %w", destColumnId, store.ErrNotFound)
	}
	if err := ordering.CheckMoved(source.TaskIds, sourceIndex, movedId); err != nil {
		return nil, nil, err
	}

	newSource, newDest, err := ordering.MoveCardAcrossColumns(source.TaskIds, dest.TaskIds, sourceIndex, destIndex)
	if err != nil {
		return nil, nil, err
	}
	source.TaskIds = newSource
	dest.TaskIds = newDest

	updated, err := s.boardStore.ApplyPatch(ctx, projectId, store.Patch{
		SetColumns: map[string]models.Column{
			sourceColumnId: source,
			destColumnId:   dest,
		},
	})
	if err != nil {
		return nil, nil, err
	}
	resultStart := updated.Columns[sourceColumnId]
	resultFinish := updated.Columns[destColumnId]
	return &resultStart, &resultFinish, nil
}
