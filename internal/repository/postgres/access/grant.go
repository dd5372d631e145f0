package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	models "dealdesk/internal/domain/models/access"
	accessRepo "dealdesk/internal/domain/repositories/access"
	"dealdesk/internal/repository/postgres"
)

// PostgresGrantRepository implements the GrantRepository interface
type PostgresGrantRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewGrantRepository creates a new project access grant repository
func NewGrantRepository(config *postgres.RepositoryConfig) accessRepo.GrantRepository {
	return &PostgresGrantRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Upsert records that a user has been invited into a project
func (r *PostgresGrantRepository) Upsert(ctx context.Context, grant *models.ProjectAccessGrant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, org_id, user_id, granted_by, granted_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (project_id, user_id)
		DO UPDATE SET granted_by = EXCLUDED.granted_by, granted_at = NOW()
		RETURNING granted_at
	`, r.tables.ProjectGrants)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		grant.ProjectID,
		grant.OrgID,
		grant.UserID,
		grant.GrantedBy,
	).Scan(&grant.GrantedAt)
	if err != nil {
		return fmt.Errorf("upsert project access grant: %w", err)
	}

	return nil
}

// Has reports whether a user holds an entry ticket for a project
func (r *PostgresGrantRepository) Has(ctx context.Context, projectID, userID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s WHERE project_id = $1 AND user_id = $2
		)
	`, r.tables.ProjectGrants)

	var exists bool
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, projectID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check project access grant: %w", err)
	}

	return exists, nil
}

// ListByProject lists all entry tickets for a project
func (r *PostgresGrantRepository) ListByProject(ctx context.Context, projectID string) ([]models.ProjectAccessGrant, error) {
	query := fmt.Sprintf(`
		SELECT project_id, org_id, user_id, granted_by, granted_at
		FROM %s
		WHERE project_id = $1
		ORDER BY granted_at ASC
	`, r.tables.ProjectGrants)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project access grants: %w", err)
	}
	defer rows.Close()

	var grants []models.ProjectAccessGrant
	for rows.Next() {
		var g models.ProjectAccessGrant
		err := rows.Scan(&g.ProjectID, &g.OrgID, &g.UserID, &g.GrantedBy, &g.GrantedAt)
		if err != nil {
			return nil, fmt.Errorf("scan project access grant: %w", err)
		}
		grants = append(grants, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project access grants: %w", err)
	}

	if grants == nil {
		grants = []models.ProjectAccessGrant{}
	}

	return grants, nil
}
