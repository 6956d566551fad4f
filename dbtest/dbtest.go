// Package dbtest wires repository tests to a throwaway Postgres database.
// Tests are skipped when no test database is reachable, so the pure-logic
// suites still run anywhere.
package dbtest

import (
	"fmt"
	"os"
	"testing"

	"Gin_postgres_redis_swab_tracker/db"
	"Gin_postgres_redis_swab_tracker/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Open connects to the test database and runs migrations.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getenv("TEST_DB_HOST", "localhost"),
			getenv("TEST_DB_USER", "postgres"),
			getenv("TEST_DB_PASSWORD", "postgres"),
			getenv("TEST_DB_NAME", "swabtracker_test"),
			getenv("TEST_DB_PORT", "5432"),
		)
	}

	g, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	sqlDB, err := g.DB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	if err := db.Migrate(g); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return g
}

// Reset wipes all rows and reseeds the default settings.
func Reset(t *testing.T, g *gorm.DB) {
	t.Helper()
	for _, table := range []string{
		models.UsageDayTable,
		models.SessionTable,
		models.MovementTable,
		models.StateTable,
		models.SwabTable,
		models.MachineTable,
		models.SettingTable,
	} {
		if err := g.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("reset %s: %v", table, err)
		}
	}
	if err := db.Migrate(g); err != nil {
		t.Fatalf("reseed settings: %v", err)
	}
}
