package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
)

func TestMoveColumn(t *testing.T) {
	tests := []struct {
		name    string
		order   []string
		from    int
		to      int
		want    []string
		wantErr bool
	}{
		{"first to last", []string{"c1", "c2", "c3"}, 0, 2, []string{"c2", "c3", "c1"}, false},
		{"last to first", []string{"c1", "c2", "c3"}, 2, 0, []string{"c3", "c1", "c2"}, false},
		{"middle forward", []string{"c1", "c2", "c3", "c4"}, 1, 2, []string{"c1", "c3", "c2", "c4"}, false},
		{"same index is a no-op", []string{"c1", "c2", "c3"}, 1, 1, []string{"c1", "c2", "c3"}, false},
		{"dest past end clamps to append", []string{"c1", "c2", "c3"}, 0, 99, []string{"c2", "c3", "c1"}, false},
		{"negative source rejected", []string{"c1", "c2"}, -1, 0, nil, true},
		{"source past end rejected", []string{"c1", "c2"}, 2, 0, nil, true},
		{"negative dest rejected", []string{"c1", "c2"}, 0, -1, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MoveColumn(tt.order, tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidMove)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoveColumnDoesNotMutateInput(t *testing.T) {
	order := []string{"c1", "c2", "c3"}
	_, err := MoveColumn(order, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, order)
}

func TestMoveColumnKeepsRelativeOrderOfOthers(t *testing.T) {
	order := []string{"c1", "c2", "c3", "c4", "c5"}
	got, err := MoveColumn(order, 0, len(order)-1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c3", "c4", "c5", "c1"}, got)
}

func TestMoveCardWithinColumnNoOpIsIdentity(t *testing.T) {
	ids := []string{"t1", "t2", "t3"}
	got, err := MoveCardWithinColumn(ids, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, ids, got)
}

func TestMoveCardAcrossColumns(t *testing.T) {
	// Board {c1:[t1,t2], c2:[]}; move t1 from c1 index 0 to c2 index 0.
	src := []string{"t1", "t2"}
	dst := []string{}

	newSrc, newDst, err := MoveCardAcrossColumns(src, dst, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, newSrc)
	assert.Equal(t, []string{"t1"}, newDst)
}

func TestMoveCardAcrossColumnsRoundTrip(t *testing.T) {
	src := []string{"t1", "t2", "t3"}
	dst := []string{"t4"}

	midSrc, midDst, err := MoveCardAcrossColumns(src, dst, 1, 1)
	require.NoError(t, err)

	backDst, backSrc, err := MoveCardAcrossColumns(midDst, midSrc, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, src, backSrc)
	assert.Equal(t, dst, backDst)
}

func TestMoveCardAcrossColumnsClampsDest(t *testing.T) {
	newSrc, newDst, err := MoveCardAcrossColumns([]string{"t1"}, []string{"t2"}, 0, 42)
	require.NoError(t, err)
	assert.Empty(t, newSrc)
	assert.Equal(t, []string{"t2", "t1"}, newDst)
}

func TestMoveCardAcrossColumnsBadSource(t *testing.T) {
	src := []string{"t1"}
	dst := []string{"t2"}
	_, _, err := MoveCardAcrossColumns(src, dst, 3, 0)
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Equal(t, []string{"t1"}, src)
	assert.Equal(t, []string{"t2"}, dst)
}

func TestCheckMoved(t *testing.T) {
	ids := []string{"t1", "t2"}
	assert.NoError(t, CheckMoved(ids, 0, "t1"))
	assert.NoError(t, CheckMoved(ids, 1, "")) // id not supplied, index check only
	assert.ErrorIs(t, CheckMoved(ids, 0, "t2"), ErrInvalidMove)
	assert.ErrorIs(t, CheckMoved(ids, 5, "t1"), ErrInvalidMove)
}

func TestValidateBoard(t *testing.T) {
	board := func() *models.Board {
		return &models.Board{
			ProjectId:   "p1",
			ColumnOrder: []string{"c1", "c2"},
			Columns: map[string]models.Column{
				"c1": {Id: "c1", Title: "todo", TaskIds: []string{"t1", "t2"}},
				"c2": {Id: "c2", Title: "done", TaskIds: []string{}},
			},
			Tasks: map[string]models.Card{
				"t1": {Id: "t1", Title: "a"},
				"t2": {Id: "t2", Title: "b"},
			},
		}
	}

	assert.NoError(t, ValidateBoard(board()))

	b := board()
	b.ColumnOrder = []string{"c1"}
	assert.Error(t, ValidateBoard(b), "column missing from columnOrder")

	b = board()
	b.ColumnOrder = []string{"c1", "c2", "c3"}
	assert.Error(t, ValidateBoard(b), "columnOrder references unknown column")

	b = board()
	c2 := b.Columns["c2"]
	c2.TaskIds = []string{"t1"}
	b.Columns["c2"] = c2
	assert.Error(t, ValidateBoard(b), "task in two columns")

	b = board()
	b.RemoveTask("t2")
	assert.Error(t, ValidateBoard(b), "taskIds references unknown task")

	b = board()
	b.UpsertTask("t9", models.Card{Id: "t9"})
	assert.Error(t, ValidateBoard(b), "orphaned task")
}

func TestMovesPreserveBoardInvariants(t *testing.T) {
	b := &models.Board{
		ProjectId:   "p1",
		ColumnOrder: []string{"c1", "c2", "c3"},
		Columns: map[string]models.Column{
			"c1": {Id: "c1", TaskIds: []string{"t1", "t2"}},
			"c2": {Id: "c2", TaskIds: []string{"t3"}},
			"c3": {Id: "c3", TaskIds: []string{}},
		},
		Tasks: map[string]models.Card{
			"t1": {Id: "t1"}, "t2": {Id: "t2"}, "t3": {Id: "t3"},
		},
	}
	require.NoError(t, ValidateBoard(b))

	order, err := MoveColumn(b.ColumnOrder, 2, 0)
	require.NoError(t, err)
	b.ColumnOrder = order
	assert.NoError(t, ValidateBoard(b))

	newSrc, newDst, err := MoveCardAcrossColumns(b.Columns["c1"].TaskIds, b.Columns["c3"].TaskIds, 1, 0)
	require.NoError(t, err)
	c1, c3 := b.Columns["c1"], b.Columns["c3"]
	c1.TaskIds, c3.TaskIds = newSrc, newDst
	b.UpsertColumn("c1", c1)
	b.UpsertColumn("c3", c3)
	assert.NoError(t, ValidateBoard(b))
}
