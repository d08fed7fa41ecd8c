package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "carehub/pkg/domain"

	"github.com/lib/pq"
)

// GrantSchema creates the user_grants table.
const GrantSchema = `
CREATE TABLE IF NOT EXISTS user_grants (
	user_id     TEXT   NOT NULL,
	facility_id TEXT   NOT NULL DEFAULT '',
	permissions TEXT[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (user_id, facility_id)
);
`

// PostgresGrantStore stores each user's grants per facility as a text array.
type PostgresGrantStore struct {
	db *sql.DB
}

func NewPostgresGrantStore(db *sql.DB) *PostgresGrantStore {
	return &PostgresGrantStore{db: db}
}

// Permissions returns the grants in the order they were added.
func (s *PostgresGrantStore) Permissions(ctx context.Context, userID id.UserID, facilityID id.FacilityID) ([]string, error) {
	var perms []string
	err := s.db.QueryRowContext(ctx,
		`SELECT permissions FROM user_grants WHERE user_id = $1 AND facility_id = $2`,
		string(userID), string(facilityID),
	).Scan(pq.Array(&perms))
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query grants: %w", err)
	}
	return perms, nil
}

// Grant appends permission unless already present.
func (s *PostgresGrantStore) Grant(ctx context.Context, userID id.UserID, facilityID id.FacilityID, permission id.Permission) error {
	query := `
		INSERT INTO user_grants (user_id, facility_id, permissions)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, facility_id) DO UPDATE
		SET permissions = CASE
			WHEN $4 = ANY(user_grants.permissions) THEN user_grants.permissions
			ELSE array_append(user_grants.permissions, $4)
		END
	`
	_, err := s.db.ExecContext(ctx, query,
		string(userID), string(facilityID), pq.Array([]string{string(permission)}), string(permission))
	if err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

// Revoke removes permission.
func (s *PostgresGrantStore) Revoke(ctx context.Context, userID id.UserID, facilityID id.FacilityID, permission id.Permission) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_grants SET permissions = array_remove(permissions, $3) WHERE user_id = $1 AND facility_id = $2`,
		string(userID), string(facilityID), string(permission))
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	return nil
}
