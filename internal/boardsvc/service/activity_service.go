package service

import (
	"context"
	"fmt"
	"time"

	"github.com/devcollab/collab-services/internal/boardsvc/models"
)

type ActivityStore interface {
	Append(ctx context.Context, projectId string, msg models.ActivityMessage) (*models.Activity, error)
}

// ActivityService appends human-readable feed entries for board events.
// Calls are best-effort: a failure here never rolls back the board write.
type ActivityService struct {
	activityStore ActivityStore
}

func NewActivityService(activityStore ActivityStore) *ActivityService {
	return &ActivityService{activityStore: activityStore}
}

// Append records "<actor> <verb> <target>" on the project's feed, e.g.
// "Sara created Backlog list".
func (s *ActivityService) Append(ctx context.Context, projectId, actorName, verb, targetName string) (*models.Activity, error) {
	msg := models.ActivityMessage{
		Avatar:    "task",
		Name:      "Task",
		Message:   fmt.Sprintf("%s %s %s", actorName, verb, targetName),
		CreatedAt: time.Now().UTC(),
	}
	return s.activityStore.Append(ctx, projectId, msg)
}
