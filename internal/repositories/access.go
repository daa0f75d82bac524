package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/shared"
)

// AccessGrantRepository implements [models.Repository] for [models.AccessGrant] persistence.
type AccessGrantRepository struct {
	db *sql.DB
}

// NewAccessGrantRepository creates a new AccessGrantRepository with the given database connection
func NewAccessGrantRepository(db *sql.DB) *AccessGrantRepository {
	return &AccessGrantRepository{db: db}
}

// Create inserts a new access grant into the database with generated ID and sequence.
// Each user holds at most one grant, enforced by a unique index on user_id.
func (r *AccessGrantRepository) Create(grant *models.AccessGrant) error {
	sequence, err := NextSequence(r.db, "access_grants")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	grant.SetID(id)

	if err := grant.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO access_grants (id, sequence, user_id, allowlisted, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, grant.UserID(), grant.Allowlisted(), grant.Note(), grant.CreatedAt(), grant.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert access grant: %w", err)
	}

	return nil
}

// Get retrieves an access grant by ID, excluding soft-deleted grants
func (r *AccessGrantRepository) Get(id string) (*models.AccessGrant, error) {
	return r.getBy("id", id)
}

// GetByUserID retrieves the access grant for a user, excluding soft-deleted grants.
//
// This is the allowlist check: a missing grant means the user is not
// registered with the app.
func (r *AccessGrantRepository) GetByUserID(userID string) (*models.AccessGrant, error) {
	return r.getBy("user_id", userID)
}

func (r *AccessGrantRepository) getBy(column, value string) (*models.AccessGrant, error) {
	query := fmt.Sprintf(`
		SELECT id, sequence, user_id, allowlisted, note, created_at, updated_at, deleted_at
		FROM access_grants
		WHERE %s = ? AND deleted_at IS NULL
	`, column)

	var (
		grantID     string
		sequence    int
		userID      string
		allowlisted bool
		note        string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := r.db.QueryRow(query, value).Scan(&grantID, &sequence, &userID, &allowlisted, &note, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("access grant not found: %s", value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query access grant: %w", err)
	}

	grant := models.NewAccessGrant(sequence, userID, allowlisted, note)
	grant.SetID(grantID)
	grant.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		grant.SetDeletedAt(&deletedAt.Time)
	}

	return grant, nil
}

// Update modifies an existing access grant in the database
func (r *AccessGrantRepository) Update(grant *models.AccessGrant) error {
	if err := grant.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	grant.SetUpdatedAt(now)

	query := `
		UPDATE access_grants
		SET allowlisted = ?, note = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, grant.Allowlisted(), grant.Note(), now, grant.ID())
	if err != nil {
		return fmt.Errorf("failed to update access grant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("access grant not found or already deleted: %s", grant.ID())
	}

	return nil
}

// Delete soft-deletes an access grant by ID
func (r *AccessGrantRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE access_grants
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete access grant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("access grant not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves access grants matching the given criteria, excluding soft-deleted grants.
//
// Supported criteria: "user_id", "allowlisted".
func (r *AccessGrantRepository) List(criteria map[string]any) ([]*models.AccessGrant, error) {
	query := `
		SELECT id, sequence, user_id, allowlisted, note, created_at, updated_at, deleted_at
		FROM access_grants
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	if allowlisted, ok := criteria["allowlisted"].(bool); ok {
		query += " AND allowlisted = ?"
		args = append(args, allowlisted)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query access grants: %w", err)
	}
	defer rows.Close()

	var grants []*models.AccessGrant
	for rows.Next() {
		var (
			grantID     string
			sequence    int
			userID      string
			allowlisted bool
			note        string
			createdAt   time.Time
			updatedAt   time.Time
			deletedAt   sql.NullTime
		)

		err := rows.Scan(&grantID, &sequence, &userID, &allowlisted, &note, &createdAt, &updatedAt, &deletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access grant: %w", err)
		}

		grant := models.NewAccessGrant(sequence, userID, allowlisted, note)
		grant.SetID(grantID)
		grant.SetUpdatedAt(updatedAt)
		if deletedAt.Valid {
			grant.SetDeletedAt(&deletedAt.Time)
		}

		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return grants, nil
}
