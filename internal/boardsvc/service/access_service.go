package service

import (
	"context"
)

// MemberStore is the narrow membership/permission contract consumed at the
// transport boundary; the project/member CRUD itself lives elsewhere.
type MemberStore interface {
	HasAccess(ctx context.Context, projectId string, userId int64) (bool, error)
	HasWriteAccess(ctx context.Context, projectId string, userId int64) (bool, error)
	GetMemberName(ctx context.Context, userId int64) (string, error)
}

type AccessService struct {
	memberStore MemberStore
}

func NewAccessService(memberStore MemberStore) *AccessService {
	return &AccessService{memberStore: memberStore}
}

func (s *AccessService) HasAccess(ctx context.Context, projectId string, userId int64) (bool, error) {
	return s.memberStore.HasAccess(ctx, projectId, userId)
}

func (s *AccessService) HasWriteAccess(ctx context.Context, projectId string, userId int64) (bool, error) {
	return s.memberStore.HasWriteAccess(ctx, projectId, userId)
}

// ActorName resolves the display name for activity messages, falling back
// to the name the client sent when the lookup is empty.
func (s *AccessService) ActorName(ctx context.Context, userId int64, claimed string) string {
	name, err := s.memberStore.GetMemberName(ctx, userId)
	if err != nil || name == "" {
		return claimed
	}
	return name
}
