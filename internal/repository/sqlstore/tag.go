package sqlstore

import (
	"context"
	"fmt"
)

// ListTags returns every tag name, including tags no article uses anymore.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db().query(ctx, `SELECT name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning tag: %w", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating tags: %w", err)
	}
	return tags, nil
}
