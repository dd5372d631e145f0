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

// PostgresMembershipRepository implements the MembershipRepository interface
type PostgresMembershipRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(config *postgres.RepositoryConfig) accessRepo.MembershipRepository {
	return &PostgresMembershipRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetRole returns the user's role in an organization
func (r *PostgresMembershipRepository) GetRole(ctx context.Context, orgID, userID string) (models.Role, error) {
	query := fmt.Sprintf(`
		SELECT role
		FROM %s
		WHERE org_id = $1 AND user_id = $2
	`, r.tables.OrgMembers)

	var role models.Role
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, orgID, userID).Scan(&role)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return "", fmt.Errorf("membership of %s in org %s: %w", userID, orgID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get role: %w", err)
	}

	return role, nil
}

// ListOwners returns the user IDs holding the owner role in an organization
func (r *PostgresMembershipRepository) ListOwners(ctx context.Context, orgID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT user_id
		FROM %s
		WHERE org_id = $1 AND role = $2
	`, r.tables.OrgMembers)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, orgID, models.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}

	if owners == nil {
		owners = []string{}
	}

	return owners, nil
}
