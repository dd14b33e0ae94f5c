package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the Postgres connection pool. The pool is sized for a small
// API instance; PayPal round-trips dominate request latency, not the database.
func InitDB(dsn string) {
	var err error

	DB, err = gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Error),
		PrepareStmt: false,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Println("Connected to Postgres")
}

// MigrateDatabase auto-migrates the given models in order.
func MigrateDatabase(models ...interface{}) error {
	if err := DB.AutoMigrate(models...); err != nil {
		return err
	}
	log.Printf("Migrated %d tables", len(models))
	return nil
}
