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

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new content version repository
func NewVersionRepository(config *postgres.RepositoryConfig) accessRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const versionColumns = `id, resource_id, version_number, status, storage_locator, created_by, created_at`

// Create inserts a new version row
func (r *PostgresVersionRepository) Create(ctx context.Context, v *models.ContentVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (resource_id, version_number, status, storage_locator, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`, r.tables.ContentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		v.ResourceID,
		v.VersionNumber,
		v.Status,
		v.StorageLocator,
		v.CreatedBy,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("version %d of resource %s: %w", v.VersionNumber, v.ResourceID, domain.ErrConflict)
		}
		if postgres.IsPgForeignKeyError(err) {
			return &domain.InvalidReferenceError{
				Message: fmt.Sprintf("resource %s no longer exists", v.ResourceID),
			}
		}
		return fmt.Errorf("create version: %w", err)
	}

	return nil
}

// GetByID retrieves a version by ID
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id string) (*models.ContentVersion, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, versionColumns, r.tables.ContentVersions)

	var v models.ContentVersion
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.ResourceID, &v.VersionNumber, &v.Status, &v.StorageLocator, &v.CreatedBy, &v.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get version: %w", err)
	}

	return &v, nil
}

// GetByNumber retrieves a version of a resource by its version number
func (r *PostgresVersionRepository) GetByNumber(ctx context.Context, resourceID string, number int) (*models.ContentVersion, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE resource_id = $1 AND version_number = $2
	`, versionColumns, r.tables.ContentVersions)

	var v models.ContentVersion
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, resourceID, number).Scan(
		&v.ID, &v.ResourceID, &v.VersionNumber, &v.Status, &v.StorageLocator, &v.CreatedBy, &v.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version %d of resource %s: %w", number, resourceID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get version by number: %w", err)
	}

	return &v, nil
}

// MaxNumber returns the highest version number ever issued for a resource.
// Rollbacks never renumber, so this is the ledger's high-water mark.
func (r *PostgresVersionRepository) MaxNumber(ctx context.Context, resourceID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(version_number), 0)
		FROM %s
		WHERE resource_id = $1
	`, r.tables.ContentVersions)

	var max int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, resourceID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max version number: %w", err)
	}

	return max, nil
}

// LockResource takes a row lock on the owning resource so two concurrent
// version insertions cannot both read the same max number. Must run inside
// a transaction; the lock is released at commit or rollback.
func (r *PostgresVersionRepository) LockResource(ctx context.Context, resourceID string) error {
	query := fmt.Sprintf(`
		SELECT id FROM %s WHERE id = $1 FOR UPDATE
	`, r.tables.Resources)

	var id string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, resourceID).Scan(&id); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return fmt.Errorf("resource %s: %w", resourceID, domain.ErrNotFound)
		}
		return fmt.Errorf("lock resource: %w", err)
	}

	return nil
}

// SupersedeAbove marks every version of the resource numbered above the
// target as superseded
func (r *PostgresVersionRepository) SupersedeAbove(ctx context.Context, resourceID string, number int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1
		WHERE resource_id = $2 AND version_number > $3
	`, r.tables.ContentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, models.VersionSuperseded, resourceID, number); err != nil {
		return fmt.Errorf("supersede versions: %w", err)
	}

	return nil
}

// SetStatus updates the status of one version row
func (r *PostgresVersionRepository) SetStatus(ctx context.Context, versionID string, status models.VersionStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1
		WHERE id = $2
	`, r.tables.ContentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, status, versionID)
	if err != nil {
		return fmt.Errorf("set version status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
	}

	return nil
}

// ListByResource lists all versions of a resource, newest first
func (r *PostgresVersionRepository) ListByResource(ctx context.Context, resourceID string) ([]models.ContentVersion, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE resource_id = $1
		ORDER BY version_number DESC
	`, versionColumns, r.tables.ContentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []models.ContentVersion
	for rows.Next() {
		var v models.ContentVersion
		err := rows.Scan(
			&v.ID, &v.ResourceID, &v.VersionNumber, &v.Status, &v.StorageLocator, &v.CreatedBy, &v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	if versions == nil {
		versions = []models.ContentVersion{}
	}

	return versions, nil
}

// DeleteByResource removes the whole ledger of a resource
func (r *PostgresVersionRepository) DeleteByResource(ctx context.Context, resourceID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE resource_id = $1
	`, r.tables.ContentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, resourceID); err != nil {
		return fmt.Errorf("delete versions: %w", err)
	}

	return nil
}
