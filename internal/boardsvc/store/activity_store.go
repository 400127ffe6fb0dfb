package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
)

type ActivityStore struct {
	coll *mongo.Collection
}

func NewActivityStore(db *mongo.Database) *ActivityStore {
	return &ActivityStore{coll: db.Collection("activities")}
}

// Append pushes one message onto the project's activity document, creating
// the document on first use, and returns the updated feed.
func (s *ActivityStore) Append(ctx context.Context, projectId string, msg models.ActivityMessage) (*models.Activity, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{
		"$push":        bson.M{"messages": msg},
		"$setOnInsert": bson.M{"project": projectId},
	}

	activity := &models.Activity{}
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"project": projectId}, update, opts).Decode(activity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to append activity for project %s: %w", projectId, err)
	}
	return activity, nil
}
