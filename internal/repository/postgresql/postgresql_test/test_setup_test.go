package postgresql_test

import (
	"context"
	"fmt"
	"os"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/postgresql"
)

// TestDatabaseSetup holds the connection used by the integration tests.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the schema.
// ok is false when the variable is not set.
func NewTestDatabase(ctx context.Context) (setup *TestDatabaseSetup, ok bool, err error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, false, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 50})
	if err != nil {
		return nil, true, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := postgresql.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, true, err
	}

	return &TestDatabaseSetup{DB: db}, true, nil
}

// TruncateAllTables removes all rows from the presence tables.
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"attendance_records",
		"employees",
		"departments",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// SeedDirectory inserts one department and the given employees into it.
func (t *TestDatabaseSetup) SeedDirectory(ctx context.Context, departmentID, departmentName string, employeeIDs ...string) error {
	if _, err := t.DB.Exec(ctx,
		`INSERT INTO departments (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		departmentID, departmentName,
	); err != nil {
		return fmt.Errorf("failed to seed department: %w", err)
	}

	for _, id := range employeeIDs {
		if _, err := t.DB.Exec(ctx,
			`INSERT INTO employees (id, name, email, department_id) VALUES ($1, $2, $3, $4)`,
			id, "Employee "+id, id+"@example.com", departmentID,
		); err != nil {
			return fmt.Errorf("failed to seed employee %s: %w", id, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
