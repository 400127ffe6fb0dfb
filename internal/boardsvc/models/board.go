package models

import (
	"time"
)

// Board is the single persisted document holding one project's task board.
// Card order lives only in Column.TaskIds; a card carries no position itself.
type Board struct {
	ProjectId   string            `json:"project" bson:"project"`
	ColumnOrder []string          `json:"columnOrder" bson:"columnOrder"`
	Columns     map[string]Column `json:"columns" bson:"columns"`
	Tasks       map[string]Card   `json:"tasks" bson:"tasks"`
	CreatedAt   time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt" bson:"updatedAt"`
}

type Column struct {
	Id      string   `json:"id" bson:"id"`
	Title   string   `json:"title" bson:"title"`
	TaskIds []string `json:"taskIds" bson:"taskIds"`
}

type Card struct {
	Id          string       `json:"id" bson:"id"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description" bson:"description"`
	Members     []CardMember `json:"members" bson:"members"`
	DueDate     string       `json:"dueDate" bson:"dueDate"`
	Comments    []Comment    `json:"comments" bson:"comments"`
}

type CardMember struct {
	UserId int64  `json:"user_id" bson:"user_id"`
	Email  string `json:"email" bson:"email"`
	Avatar string `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

type Comment struct {
	UserId    int64     `json:"user_id" bson:"user_id"`
	UserName  string    `json:"user_name" bson:"user_name"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// NewBoard returns the empty board created the first time a project's
// task feature is accessed.
func NewBoard(projectId string) *Board {
	now := time.Now().UTC()
	return &Board{
		ProjectId:   projectId,
		ColumnOrder: []string{},
		Columns:     map[string]Column{},
		Tasks:       map[string]Card{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (b *Board) UpsertColumn(id string, c Column) {
	if b.Columns == nil {
		b.Columns = map[string]Column{}
	}
	b.Columns[id] = c
}

func (b *Board) RemoveColumn(id string) {
	delete(b.Columns, id)
}

func (b *Board) UpsertTask(id string, c Card) {
	if b.Tasks == nil {
		b.Tasks = map[string]Card{}
	}
	b.Tasks[id] = c
}

func (b *Board) RemoveTask(id string) {
	delete(b.Tasks, id)
}

// ColumnOf returns the id of the column whose TaskIds contains taskId.
func (b *Board) ColumnOf(taskId string) (string, bool) {
	for id, col := range b.Columns {
		for _, tid := range col.TaskIds {
			if tid == taskId {
				return id, true
			}
		}
	}
	return "", false
}

// Clone returns a deep copy, so optimistic client state can be mutated
// without aliasing the authoritative snapshot.
func (b *Board) Clone() *Board {
	cp := *b
	cp.ColumnOrder = append([]string(nil), b.ColumnOrder...)
	cp.Columns = make(map[string]Column, len(b.Columns))
	for id, col := range b.Columns {
		col.TaskIds = append([]string(nil), col.TaskIds...)
		cp.Columns[id] = col
	}
	cp.Tasks = make(map[string]Card, len(b.Tasks))
	for id, card := range b.Tasks {
		card.Members = append([]CardMember(nil), card.Members...)
		card.Comments = append([]Comment(nil), card.Comments...)
		cp.Tasks[id] = card
	}
	return &cp
}
