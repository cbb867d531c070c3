package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
)

// TestDatabaseSetup untuk menginisialisasi test database
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the schema. The
// test is skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	setup := &TestDatabaseSetup{DB: db}
	if err := setup.migrate(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}
	if err := setup.TruncateAllTables(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to truncate tables: %v", err)
	}
	t.Cleanup(setup.Close)
	return setup
}

func (s *TestDatabaseSetup) migrate(ctx context.Context) error {
	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "0001_attendance_engine.sql"))
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, string(schema))
	return err
}

// TruncateAllTables menghapus semua data dari tabel
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"offline_queue_items",
		"lateness_escalation_markers",
		"notifications",
		"audit_entries",
		"time_exceptions",
		"correction_requests",
		"attendance_records",
		"shift_assignments",
		"shift_types",
		"employees",
		"positions",
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

// insertEmployee creates an active employee and returns its id
func (s *TestDatabaseSetup) insertEmployee(t *testing.T, departmentID, positionID *string) string {
	t.Helper()
	var id string
	err := s.DB.QueryRow(context.Background(),
		`INSERT INTO employees (department_id, position_id, full_name) VALUES ($1, $2, 'Test Employee') RETURNING id`,
		departmentID, positionID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert employee: %v", err)
	}
	return id
}

// Close menutup koneksi database
func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}
