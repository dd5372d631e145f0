package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealdesk/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Resources       string
	Permissions     string
	OrgMembers      string
	ProjectGrants   string
	ContentVersions string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Resources:       fmt.Sprintf("%sresources", prefix),
		Permissions:     fmt.Sprintf("%spermissions", prefix),
		OrgMembers:      fmt.Sprintf("%sorg_members", prefix),
		ProjectGrants:   fmt.Sprintf("%sproject_access_grants", prefix),
		ContentVersions: fmt.Sprintf("%scontent_versions", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// When the database sits behind PgBouncer in transaction pooling mode
// (port 6543 on Supabase) prepared statements break with "prepared statement
// already exists" errors, so cache_describe mode is selected automatically
// for that port. An explicit default_query_exec_mode in the connection
// string takes precedence.
//
// Note on dynamic table names: fmt.Sprintf for table prefixes (dev_, test_,
// prod_) is safe with prepared statements because the SQL string is
// interpolated before being sent to the database.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool.
// This enables repositories to automatically participate in transactions when they exist.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
