package ordering

import (
	"fmt"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
)

// ValidateBoard checks the structural invariants of a board: columnOrder is
// a permutation of the column map's keys, and every task id appears in
// exactly one column's taskIds with a matching entry in the task map.
func ValidateBoard(b *models.Board) error {
	seenCols := make(map[string]bool, len(b.ColumnOrder))
	for _, id := range b.ColumnOrder {
		if seenCols[id] {
			return fmt.Errorf("column %s listed twice in columnOrder", id)
		}
		seenCols[id] = true
		if _, ok := b.Columns[id]; !ok {
			return fmt.Errorf("column %s in columnOrder has no entry in columns", id)
		}
	}
	if len(seenCols) != len(b.Columns) {
		for id := range b.Columns {
			if !seenCols[id] {
				return fmt.Errorf("column %s missing from columnOrder", id)
			}
		}
	}

	seenTasks := make(map[string]string, len(b.Tasks))
	for colId, col := range b.Columns {
		for _, taskId := range col.TaskIds {
			if other, dup := seenTasks[taskId]; dup {
				return fmt.Errorf("task %s appears in both column %s and column %s", taskId, other, colId)
			}
			seenTasks[taskId] = colId
			if _, ok := b.Tasks[taskId]; !ok {
				return fmt.Errorf("task %s in column %s has no entry in tasks", taskId, colId)
			}
		}
	}
	for id := range b.Tasks {
		if _, ok := seenTasks[id]; !ok {
			return fmt.Errorf("task %s belongs to no column", id)
		}
	}
	return nil
}
