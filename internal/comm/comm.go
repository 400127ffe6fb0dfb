package comm

import (
	"encoding/json"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "create task", "move column"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
	RoomId   string          `json:"roomid,omitempty"`  // outbound: room to fan out to
	Exclude  bool            `json:"exclude,omitempty"` // outbound: skip the SocketId sender
}

// inbound payloads

type JoinProject struct {
	ProjectId string `json:"project_id"`
	UserId    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
}

type LeaveProject struct {
	ProjectId string `json:"project_id"`
}

type CreateList struct {
	ProjectId string `json:"project_id"`
	UserId    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	Title     string `json:"title"`
}

type UpdateList struct {
	ProjectId string `json:"project_id"`
	UserId    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	ListId    string `json:"list_id"`
	Title     string `json:"title"`
}

type DeleteList struct {
	ProjectId string `json:"project_id"`
	UserId    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	ListId    string `json:"list_id"`
}

type TaskData struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Members     []models.CardMember `json:"members,omitempty"`
	DueDate     *string             `json:"due_date,omitempty"`
}

type CreateTask struct {
	ProjectId string   `json:"project_id"`
	UserId    int64    `json:"user_id"`
	UserName  string   `json:"user_name"`
	ColumnId  string   `json:"column_id"`
	Task      TaskData `json:"task"`
}

type UpdateTask struct {
	ProjectId string   `json:"project_id"`
	UserId    int64    `json:"user_id"`
	UserName  string   `json:"user_name"`
	TaskId    string   `json:"task_id"`
	Task      TaskData `json:"task"`
}

type DeleteTask struct {
	ProjectId string `json:"project_id"`
	UserId    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	ColumnId  string `json:"column_id"`
	TaskId    string `json:"task_id"`
}

type MoveColumn struct {
	ProjectId   string `json:"project_id"`
	UserId      int64  `json:"user_id"`
	UserName    string `json:"user_name"`
	SourceIndex int    `json:"source_index"`
	DestIndex   int    `json:"dest_index"`
	MovedId     string `json:"moved_id"`
}

type MoveTaskSameColumn struct {
	ProjectId   string `json:"project_id"`
	UserId      int64  `json:"user_id"`
	UserName    string `json:"user_name"`
	ColumnId    string `json:"column_id"`
	SourceIndex int    `json:"source_index"`
	DestIndex   int    `json:"dest_index"`
	MovedId     string `json:"moved_id"`
}

type MoveTaskAnotherColumn struct {
	ProjectId      string `json:"project_id"`
	UserId         int64  `json:"user_id"`
	UserName       string `json:"user_name"`
	SourceColumnId string `json:"source_column_id"`
	SourceIndex    int    `json:"source_index"`
	DestColumnId   string `json:"dest_column_id"`
	DestIndex      int    `json:"dest_index"`
	MovedId        string `json:"moved_id"`
}

// outbound payloads

type ColumnOrderUpdate struct {
	ColumnOrder []string `json:"column_order"`
}

type ColumnUpdate struct {
	Column models.Column `json:"column"`
}

type ColumnPairUpdate struct {
	ColumnStart  models.Column `json:"column_start"`
	ColumnFinish models.Column `json:"column_finish"`
}
