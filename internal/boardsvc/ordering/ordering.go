// Package ordering holds the pure move computation for the shared task
// board: remove-and-reinsert on identifier slices, no storage, no transport.
package ordering

import (
	"errors"
	"fmt"
)

// ErrInvalidMove marks a move whose source position does not match the
// current board, usually a stale or duplicated client event. The board is
// left untouched; the caller drops the event.
var ErrInvalidMove = errors.New("invalid move")

// reorder removes the element at from and reinserts it at to. to beyond the
// end is clamped to append. The input slice is never mutated.
func reorder(ids []string, from, to int) ([]string, error) {
	if from < 0 || from >= len(ids) {
		return nil, fmt.Errorf("%w: source index %d out of range [0,%d)", ErrInvalidMove, from, len(ids))
	}
	moved := ids[from]
	rest := make([]string, 0, len(ids))
	rest = append(rest, ids[:from]...)
	rest = append(rest, ids[from+1:]...)
	if to < 0 {
		return nil, fmt.Errorf("%w: dest index %d negative", ErrInvalidMove, to)
	}
	if to > len(rest) {
		to = len(rest)
	}
	out := make([]string, 0, len(ids))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	return out, nil
}

// removeAt deletes the element at index from ids without mutating the input.
func removeAt(ids []string, index int) ([]string, string, error) {
	if index < 0 || index >= len(ids) {
		return nil, "", fmt.Errorf("%w: source index %d out of range [0,%d)", ErrInvalidMove, index, len(ids))
	}
	moved := ids[index]
	out := make([]string, 0, len(ids)-1)
	out = append(out, ids[:index]...)
	out = append(out, ids[index+1:]...)
	return out, moved, nil
}

// insertAt puts id at index, clamping past-the-end indices to append.
func insertAt(ids []string, index int, id string) []string {
	if index < 0 {
		index = 0
	}
	if index > len(ids) {
		index = len(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	out = append(out, ids[index:]...)
	return out
}

// MoveColumn computes the new columnOrder after dragging the column at
// fromIndex to toIndex.
func MoveColumn(columnOrder []string, fromIndex, toIndex int) ([]string, error) {
	return reorder(columnOrder, fromIndex, toIndex)
}

// MoveCardWithinColumn computes the new taskIds for one column after a
// same-column drag.
func MoveCardWithinColumn(taskIds []string, fromIndex, toIndex int) ([]string, error) {
	return reorder(taskIds, fromIndex, toIndex)
}

// MoveCardAcrossColumns computes the new taskIds for both columns after a
// cross-column drag. The card's entry in the board's task map is untouched;
// only the two index slices change.
func MoveCardAcrossColumns(sourceIds, destIds []string, sourceIndex, destIndex int) (newSource, newDest []string, err error) {
	if destIndex < 0 {
		return nil, nil, fmt.Errorf("%w: dest index %d negative", ErrInvalidMove, destIndex)
	}
	rest, moved, err := removeAt(sourceIds, sourceIndex)
	if err != nil {
		return nil, nil, err
	}
	return rest, insertAt(destIds, destIndex, moved), nil
}

// CheckMoved rejects a move whose moved id no longer sits at the source
// index, which happens when the client raced another client's reorder.
func CheckMoved(ids []string, sourceIndex int, movedId string) error {
	if sourceIndex < 0 || sourceIndex >= len(ids) {
		return fmt.Errorf("%w: source index %d out of range [0,%d)", ErrInvalidMove, sourceIndex, len(ids))
	}
	if movedId != "" && ids[sourceIndex] != movedId {
		return fmt.Errorf("%w: id at source index %d is %s, not %s", ErrInvalidMove, sourceIndex, ids[sourceIndex], movedId)
	}
	return nil
}
