package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
)

// ErrNotFound signals that no board document exists for the project.
var ErrNotFound = errors.New("board not found")

type BoardStore struct {
	coll *mongo.Collection
}

func NewBoardStore(db *mongo.Database) *BoardStore {
	return &BoardStore{coll: db.Collection("boards")}
}

// Patch is one atomic write against a board document. Nil/empty fields are
// untouched; everything set commits in a single update so readers never see
// ordering and content out of step.
type Patch struct {
	ColumnOrder  []string
	SetColumns   map[string]models.Column
	UnsetColumns []string
	SetTasks     map[string]models.Card
	UnsetTasks   []string
}

func (p Patch) empty() bool {
	return p.ColumnOrder == nil && len(p.SetColumns) == 0 && len(p.UnsetColumns) == 0 &&
		len(p.SetTasks) == 0 && len(p.UnsetTasks) == 0
}

// buildUpdate translates a Patch into a single $set/$unset update document.
func buildUpdate(p Patch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.ColumnOrder != nil {
		set["columnOrder"] = p.ColumnOrder
	}
	for id, col := range p.SetColumns {
		set["columns."+id] = col
	}
	for id, card := range p.SetTasks {
		set["tasks."+id] = card
	}

	update := bson.M{"$set": set}

	unset := bson.M{}
	for _, id := range p.UnsetColumns {
		unset["columns."+id] = ""
	}
	for _, id := range p.UnsetTasks {
		unset["tasks."+id] = ""
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (s *BoardStore) Get(ctx context.Context, projectId string) (*models.Board, error) {
	board := &models.Board{}
	err := s.coll.FindOne(ctx, bson.M{"project": projectId}).Decode(board)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load board for project %s: %w", projectId, err)
	}
	return board, nil
}

// GetOrCreate loads the project's board, inserting the empty one on first
// access. The unique index on "project" keeps concurrent first accesses from
// creating two documents.
func (s *BoardStore) GetOrCreate(ctx context.Context, projectId string) (*models.Board, error) {
	board, err := s.Get(ctx, projectId)
	if err == nil {
		return board, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	fresh := models.NewBoard(projectId)
	if _, err := s.coll.InsertOne(ctx, fresh); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return s.Get(ctx, projectId)
		}
		return nil, fmt.Errorf("failed to create board for project %s: %w", projectId, err)
	}
	return fresh, nil
}

// ApplyPatch commits the patch as one atomic update and returns the board
// as persisted. A patch against a missing board reports ErrNotFound.
func (s *BoardStore) ApplyPatch(ctx context.Context, projectId string, patch Patch) (*models.Board, error) {
	if patch.empty() {
		return s.Get(ctx, projectId)
	}

	update := buildUpdate(patch, time.Now().UTC())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	board := &models.Board{}
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"project": projectId}, update, opts).Decode(board)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to patch board for project %s: %w", projectId, err)
	}
	return board, nil
}

// Delete removes the project's board document. Nothing in this service
// reaches it; the project service calls it during project teardown, which
// owns the rest of the project's cleanup too.
func (s *BoardStore) Delete(ctx context.Context, projectId string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"project": projectId}); err != nil {
		return fmt.Errorf("failed to delete board for project %s: %w", projectId, err)
	}
	return nil
}
