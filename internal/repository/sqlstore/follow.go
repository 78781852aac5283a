package sqlstore

import (
	"context"
	"fmt"
)

// Follow inserts the follower → followed edge. It reports false when the edge
// already existed. Self-follow is rejected by a CHECK constraint; the service
// layer catches it first.
func (s *Store) Follow(ctx context.Context, followerID, followedID string) (bool, error) {
	result, err := s.db().exec(ctx,
		`INSERT INTO follows (follower_id, followed_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		followerID, followedID, now(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlstore: following %s -> %s: %w", followerID, followedID, err)
	}
	return affectedOne(result)
}

func (s *Store) Unfollow(ctx context.Context, followerID, followedID string) (bool, error) {
	result, err := s.db().exec(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlstore: unfollowing %s -> %s: %w", followerID, followedID, err)
	}
	return affectedOne(result)
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var count int
	err := s.db().queryRow(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlstore: checking follow %s -> %s: %w", followerID, followedID, err)
	}
	return count > 0, nil
}

// FollowedAmong answers IsFollowing for many candidates in one query.
func (s *Store) FollowedAmong(ctx context.Context, followerID string, candidateIDs []string) (map[string]bool, error) {
	followed := make(map[string]bool)
	if followerID == "" || len(candidateIDs) == 0 {
		return followed, nil
	}

	args := append([]any{followerID}, stringArgs(candidateIDs)...)
	rows, err := s.db().query(ctx,
		`SELECT followed_id FROM follows
		 WHERE follower_id = ? AND followed_id IN (`+placeholders(len(candidateIDs))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing follows of %s: %w", followerID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning follow: %w", err)
		}
		followed[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating follows: %w", err)
	}
	return followed, nil
}
