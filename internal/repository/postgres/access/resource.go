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

// maxChainDepth bounds the recursive ancestor walk. Real trees are a few
// levels deep; anything past this indicates corrupt parent data.
const maxChainDepth = 32

// PostgresResourceRepository implements the ResourceRepository interface
type PostgresResourceRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewResourceRepository creates a new resource repository
func NewResourceRepository(config *postgres.RepositoryConfig) accessRepo.ResourceRepository {
	return &PostgresResourceRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const resourceColumns = `id, org_id, project_id, parent_id, resource_type, name, current_version_id, created_by, created_at, updated_at`

func scanResource(row interface{ Scan(...interface{}) error }, res *models.Resource) error {
	return row.Scan(
		&res.ID,
		&res.OrgID,
		&res.ProjectID,
		&res.ParentID,
		&res.ResourceType,
		&res.Name,
		&res.CurrentVersionID,
		&res.CreatedBy,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
}

// Create inserts a new resource node
func (r *PostgresResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (org_id, project_id, parent_id, resource_type, name, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, r.tables.Resources)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		res.OrgID,
		res.ProjectID,
		res.ParentID,
		res.ResourceType,
		res.Name,
		res.CreatedBy,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			existingID, queryErr := r.getSiblingID(ctx, res.ParentID, res.Name)
			if queryErr != nil {
				return fmt.Errorf("resource '%s' already exists under this parent: %w", res.Name, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("resource '%s' already exists under this parent", res.Name),
				ResourceType: string(res.ResourceType),
				ResourceID:   existingID,
			}
		}
		return fmt.Errorf("create resource: %w", err)
	}

	return nil
}

// GetByID retrieves a resource by ID
func (r *PostgresResourceRepository) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, resourceColumns, r.tables.Resources)

	var res models.Resource
	executor := postgres.GetExecutor(ctx, r.pool)
	err := scanResource(executor.QueryRow(ctx, query, id), &res)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("resource %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}

	return &res, nil
}

// GetAncestorChain returns the resource and its ancestors, closest first,
// using a recursive CTE bounded by maxChainDepth.
func (r *PostgresResourceRepository) GetAncestorChain(ctx context.Context, id string) ([]models.Resource, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE chain AS (
			-- Base case: the resource itself at depth 0
			SELECT %s, 0 AS depth
			FROM %s
			WHERE id = $1
			UNION ALL
			-- Recursive case: walk up through parent pointers
			SELECT r.id, r.org_id, r.project_id, r.parent_id, r.resource_type, r.name,
			       r.current_version_id, r.created_by, r.created_at, r.updated_at, c.depth + 1
			FROM %s r
			JOIN chain c ON r.id = c.parent_id
			WHERE c.depth < $2
		)
		SELECT %s FROM chain ORDER BY depth ASC
	`, resourceColumns, r.tables.Resources, r.tables.Resources, resourceColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, id, maxChainDepth)
	if err != nil {
		return nil, fmt.Errorf("get ancestor chain: %w", err)
	}
	defer rows.Close()

	var chain []models.Resource
	for rows.Next() {
		var res models.Resource
		if err := scanResource(rows, &res); err != nil {
			return nil, fmt.Errorf("scan ancestor: %w", err)
		}
		chain = append(chain, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ancestors: %w", err)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("resource %s: %w", id, domain.ErrNotFound)
	}

	return chain, nil
}

// GetChildByName finds an immediate child of parentID with the given name
func (r *PostgresResourceRepository) GetChildByName(ctx context.Context, parentID, name string) (*models.Resource, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_id = $1 AND name = $2
	`, resourceColumns, r.tables.Resources)

	var res models.Resource
	executor := postgres.GetExecutor(ctx, r.pool)
	err := scanResource(executor.QueryRow(ctx, query, parentID, name), &res)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("child '%s': %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get child by name: %w", err)
	}

	return &res, nil
}

// GetProjectRoot finds the root resource of the given type for a project
func (r *PostgresResourceRepository) GetProjectRoot(ctx context.Context, projectID string, resourceType models.ResourceType) (*models.Resource, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE project_id = $1 AND resource_type = $2 AND parent_id IS NULL
	`, resourceColumns, r.tables.Resources)

	var res models.Resource
	executor := postgres.GetExecutor(ctx, r.pool)
	err := scanResource(executor.QueryRow(ctx, query, projectID, resourceType), &res)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("%s root for project %s: %w", resourceType, projectID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project root: %w", err)
	}

	return &res, nil
}

// ListChildren lists immediate children of a resource
func (r *PostgresResourceRepository) ListChildren(ctx context.Context, parentID string) ([]models.Resource, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_id = $1
		ORDER BY name ASC
	`, resourceColumns, r.tables.Resources)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var res models.Resource
		if err := scanResource(rows, &res); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		resources = append(resources, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}

	// Return empty slice instead of nil
	if resources == nil {
		resources = []models.Resource{}
	}

	return resources, nil
}

// ListByProject lists every resource belonging to a project
func (r *PostgresResourceRepository) ListByProject(ctx context.Context, projectID string) ([]models.Resource, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE project_id = $1
		ORDER BY created_at ASC
	`, resourceColumns, r.tables.Resources)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project resources: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var res models.Resource
		if err := scanResource(rows, &res); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project resources: %w", err)
	}

	if resources == nil {
		resources = []models.Resource{}
	}

	return resources, nil
}

// SetCurrentVersion repoints the resource's active-version pointer
func (r *PostgresResourceRepository) SetCurrentVersion(ctx context.Context, resourceID string, versionID *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET current_version_id = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Resources)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, versionID, resourceID)
	if err != nil {
		return fmt.Errorf("set current version: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("resource %s: %w", resourceID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a single resource row
func (r *PostgresResourceRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Resources)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("resource %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// getSiblingID queries for an existing resource by unique constraint fields
func (r *PostgresResourceRepository) getSiblingID(ctx context.Context, parentID *string, name string) (string, error) {
	var query string
	var id string
	var err error
	executor := postgres.GetExecutor(ctx, r.pool)

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT id FROM %s
			WHERE parent_id IS NULL AND name = $1
		`, r.tables.Resources)
		err = executor.QueryRow(ctx, query, name).Scan(&id)
	} else {
		query = fmt.Sprintf(`
			SELECT id FROM %s
			WHERE parent_id = $1 AND name = $2
		`, r.tables.Resources)
		err = executor.QueryRow(ctx, query, *parentID, name).Scan(&id)
	}

	if err != nil {
		return "", fmt.Errorf("get existing resource ID: %w", err)
	}

	return id, nil
}
