package sqlstore

import (
	"context"
	"fmt"

	"github.com/sakif/blog-api/internal/repository"
)

// AddFavorite records that userID favorited articleID and bumps the
// article's counter in the same transaction. The counter only moves when the
// insert added a row, so repeating the call is a no-op.
func (s *Store) AddFavorite(ctx context.Context, articleID, userID string) (bool, error) {
	var added bool
	err := s.withTx(ctx, func(tx runner) error {
		result, err := tx.exec(ctx,
			`INSERT INTO favorites (article_id, user_id, created_at) VALUES (?, ?, ?)
			 ON CONFLICT DO NOTHING`,
			articleID, userID, now(),
		)
		if err != nil {
			return fmt.Errorf("sqlstore: inserting favorite: %w", err)
		}
		if added, err = affectedOne(result); err != nil || !added {
			return err
		}

		if _, err := tx.exec(ctx,
			`UPDATE articles SET favorites_count = favorites_count + 1 WHERE id = ?`, articleID,
		); err != nil {
			return fmt.Errorf("sqlstore: incrementing favorites_count: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// RemoveFavorite is the inverse of AddFavorite. The decrement is guarded by
// favorites_count > 0; if the guard matches nothing while a favorite row was
// just deleted, the stored counter was already out of sync with the rows and
// ErrCounterUnderflow is returned with everything rolled back.
func (s *Store) RemoveFavorite(ctx context.Context, articleID, userID string) (bool, error) {
	var removed bool
	err := s.withTx(ctx, func(tx runner) error {
		result, err := tx.exec(ctx,
			`DELETE FROM favorites WHERE article_id = ? AND user_id = ?`,
			articleID, userID,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: deleting favorite: %w", err)
		}
		if removed, err = affectedOne(result); err != nil || !removed {
			return err
		}

		result, err = tx.exec(ctx,
			`UPDATE articles SET favorites_count = favorites_count - 1
			 WHERE id = ? AND favorites_count > 0`, articleID,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: decrementing favorites_count: %w", err)
		}
		decremented, err := affectedOne(result)
		if err != nil {
			return err
		}
		if !decremented {
			s.logger.Error().
				Str("articleID", articleID).
				Str("userID", userID).
				Msg("favorite row existed but favorites_count was zero")
			return fmt.Errorf("sqlstore: article %s: %w", articleID, repository.ErrCounterUnderflow)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// FavoritedAmong returns which of articleIDs userID has favorited.
func (s *Store) FavoritedAmong(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error) {
	favorited := make(map[string]bool)
	if userID == "" || len(articleIDs) == 0 {
		return favorited, nil
	}

	args := append([]any{userID}, stringArgs(articleIDs)...)
	rows, err := s.db().query(ctx,
		`SELECT article_id FROM favorites
		 WHERE user_id = ? AND article_id IN (`+placeholders(len(articleIDs))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing favorites of %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning favorite: %w", err)
		}
		favorited[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating favorites: %w", err)
	}
	return favorited, nil
}
