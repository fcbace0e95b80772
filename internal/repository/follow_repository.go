package repository

import (
	"context"
)

type followRepository struct {
	base
}

func (r *followRepository) Toggle(ctx context.Context, followerID, followeeID string) (bool, error) {
	following, err := r.toggle(ctx, "follow:"+followerID+":"+followeeID,
		`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`,
		`INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		followerID, followeeID,
	)
	if err != nil {
		return false, storeError(err, "failed to toggle follow")
	}

	return following, nil
}

func (r *followRepository) Followers(ctx context.Context, userID string) ([]string, error) {
	return r.list(ctx, `SELECT follower_id FROM follows WHERE followee_id = $1 ORDER BY created_at`, userID)
}

func (r *followRepository) Followings(ctx context.Context, userID string) ([]string, error) {
	return r.list(ctx, `SELECT followee_id FROM follows WHERE follower_id = $1 ORDER BY created_at`, userID)
}

func (r *followRepository) list(ctx context.Context, query, userID string) ([]string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, storeError(err, "failed to load follow edges")
	}

	return ids, nil
}

func (r *followRepository) RemoveUser(ctx context.Context, userID string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `DELETE FROM follows WHERE follower_id = $1 OR followee_id = $1`, userID)
	if err != nil {
		return storeError(err, "failed to remove follow edges")
	}

	return nil
}
