package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"dealdesk/internal/domain"
	models "dealdesk/internal/domain/models/access"
	accessRepo "dealdesk/internal/domain/repositories/access"
	"dealdesk/internal/repository/postgres"
)

// PostgresPermissionRepository implements the PermissionRepository interface
type PostgresPermissionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(config *postgres.RepositoryConfig) accessRepo.PermissionRepository {
	return &PostgresPermissionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Upsert writes the single ACL row for (resource, user)
func (r *PostgresPermissionRepository) Upsert(ctx context.Context, perm *models.Permission) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (resource_id, user_id, permission, granted_by, granted_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (resource_id, user_id)
		DO UPDATE SET permission = EXCLUDED.permission, granted_by = EXCLUDED.granted_by, granted_at = NOW()
		RETURNING granted_at
	`, r.tables.Permissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		perm.ResourceID,
		perm.UserID,
		perm.Permission,
		perm.GrantedBy,
	).Scan(&perm.GrantedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return &domain.InvalidReferenceError{
				Message: fmt.Sprintf("resource %s no longer exists", perm.ResourceID),
			}
		}
		return fmt.Errorf("upsert permission: %w", err)
	}

	return nil
}

// Get retrieves the ACL row for (resource, user), if any
func (r *PostgresPermissionRepository) Get(ctx context.Context, resourceID, userID string) (*models.Permission, error) {
	query := fmt.Sprintf(`
		SELECT resource_id, user_id, permission, granted_by, granted_at
		FROM %s
		WHERE resource_id = $1 AND user_id = $2
	`, r.tables.Permissions)

	var perm models.Permission
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, resourceID, userID).Scan(
		&perm.ResourceID,
		&perm.UserID,
		&perm.Permission,
		&perm.GrantedBy,
		&perm.GrantedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("permission on %s for %s: %w", resourceID, userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get permission: %w", err)
	}

	return &perm, nil
}

// GetForChain returns the user's ACL entries on the given ancestor chain,
// annotated with chain depth (0 = the resource itself)
func (r *PostgresPermissionRepository) GetForChain(ctx context.Context, chain []models.Resource, userID string) ([]models.ChainEntry, error) {
	if len(chain) == 0 {
		return []models.ChainEntry{}, nil
	}

	ids := make([]string, len(chain))
	depthByID := make(map[string]int, len(chain))
	for i, res := range chain {
		ids[i] = res.ID
		depthByID[res.ID] = i
	}

	query := fmt.Sprintf(`
		SELECT resource_id, user_id, permission, granted_by, granted_at
		FROM %s
		WHERE user_id = $1 AND resource_id = ANY($2)
	`, r.tables.Permissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("get chain permissions: %w", err)
	}
	defer rows.Close()

	var entries []models.ChainEntry
	for rows.Next() {
		var perm models.Permission
		err := rows.Scan(
			&perm.ResourceID,
			&perm.UserID,
			&perm.Permission,
			&perm.GrantedBy,
			&perm.GrantedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chain permission: %w", err)
		}
		entries = append(entries, models.ChainEntry{
			Permission: perm,
			Depth:      depthByID[perm.ResourceID],
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain permissions: %w", err)
	}

	if entries == nil {
		entries = []models.ChainEntry{}
	}

	return entries, nil
}

// DeleteByResource removes all ACL rows for a resource
func (r *PostgresPermissionRepository) DeleteByResource(ctx context.Context, resourceID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE resource_id = $1
	`, r.tables.Permissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, resourceID); err != nil {
		return fmt.Errorf("delete permissions: %w", err)
	}

	return nil
}
