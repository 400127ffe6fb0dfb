package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MemberStore answers project membership questions from the relational side
// of the suite. Board operations only need the access checks and the actor's
// display name for activity messages.
type MemberStore struct {
	db *pgxpool.Pool
}

func NewMemberStore(db *pgxpool.Pool) *MemberStore {
	return &MemberStore{db: db}
}

func (s *MemberStore) HasAccess(ctx context.Context, projectId string, userId int64) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM project_members
            WHERE project_id = $1 AND user_id = $2
        )
    `

	var ok bool
	if err := s.db.QueryRow(ctx, query, projectId, userId).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check access for user %d on project %s: %w", userId, projectId, err)
	}
	return ok, nil
}

func (s *MemberStore) HasWriteAccess(ctx context.Context, projectId string, userId int64) (bool, error) {
	// viewer-level members can read the board but never mutate it
	query := `
        SELECT EXISTS (
            SELECT 1 FROM project_members
            WHERE project_id = $1 AND user_id = $2 AND role IN ('owner', 'member')
        )
    `

	var ok bool
	if err := s.db.QueryRow(ctx, query, projectId, userId).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check write access for user %d on project %s: %w", userId, projectId, err)
	}
	return ok, nil
}

func (s *MemberStore) GetMemberName(ctx context.Context, userId int64) (string, error) {
	query := `
        SELECT name
        FROM users
        WHERE user_id = $1
    `

	var name string
	err := s.db.QueryRow(ctx, query, userId).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get member name for user %d: %w", userId, err)
	}
	return name, nil
}
