// Package testutil provides the shared database fixture for tests that
// exercise real GORM behavior. Point TEST_DATABASE_URL at a throwaway
// Postgres database to enable them; they are skipped otherwise.
package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hopelog_backend/internal/model"
)

var (
	openOnce sync.Once
	testDB   *gorm.DB
	openErr  error
)

// OpenDB connects to TEST_DATABASE_URL, migrates the schema once per process
// and returns a transaction that is rolled back when the test finishes, so
// tests never see each other's rows.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	openOnce.Do(func() {
		testDB, openErr = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if openErr != nil {
			return
		}
		openErr = testDB.AutoMigrate(
			&model.User{},
			&model.SubscriptionPlan{},
			&model.Subscription{},
			&model.Payment{},
			&model.CheckoutOrder{},
			&model.FeatureLimit{},
			&model.UserUsage{},
			&model.SystemSetting{},
		)
	})
	if openErr != nil {
		t.Fatalf("could not prepare test database: %v", openErr)
	}

	tx := testDB.Begin()
	if tx.Error != nil {
		t.Fatalf("could not begin test transaction: %v", tx.Error)
	}
	t.Cleanup(func() { tx.Rollback() })
	return tx
}
