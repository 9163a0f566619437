package testhelpers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/siempreabierto/internal/config"
	"github.com/siempreabierto/internal/live"
	"github.com/siempreabierto/internal/repository/sqlstore"
	"go.uber.org/zap"
)

// TestDB represents a test database connection
type TestDB struct {
	DB     *sqlstore.DB
	Store  *sqlstore.Store
	Hub    *live.Hub
	Logger *zap.Logger
}

// SetupTestDB opens a private in-memory SQLite database with the schema applied
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	logger := zap.NewNop()
	cfg := &config.DatabaseConfig{Driver: sqlstore.DriverSQLite}
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"

	db, err := sqlstore.New(cfg, dsn, logger)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	hub := live.NewHub(nil, "", logger)

	return &TestDB{
		DB:     db,
		Store:  sqlstore.NewStore(db, hub, logger),
		Hub:    hub,
		Logger: logger,
	}
}

// Close closes the database connection
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

// Cleanup cleans up test data
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	for _, table := range sqlstore.Tables {
		if _, err := tdb.DB.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
