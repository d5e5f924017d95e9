package main

import (
	"log"
	"os"

	"tutorium-be/internal/model"
	"tutorium-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect using the shared GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM migration...")

	// 3. Pre-migration: extensions
	log.Println("Step 1: Setting up extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate all models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.Lesson{},
		&model.LessonEnrollment{},
		&model.CancellationRequest{},
		&model.MakeupCredit{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.SequenceCounter{},
		&model.NotificationOutbox{},
		&model.AuditLog{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-migration: constraints AutoMigrate cannot express
	log.Println("Step 3: Creating indexes and constraints...")

	postMigrationSQL := []string{
		// At most one pending request per (lesson, student). The service
		// checks first, this is the backstop under concurrency.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_pending_cancellation
		 ON cancellation_requests (lesson_id, student_id)
		 WHERE status = 'pending';`,

		// Sweeper scans by status and deadline.
		`CREATE INDEX IF NOT EXISTS idx_makeup_credits_status_expires
		 ON makeup_credits (status, expires_at);`,

		// Dispatcher polls pending rows oldest first.
		`CREATE INDEX IF NOT EXISTS idx_notification_outbox_pending
		 ON notification_outbox (created_at)
		 WHERE status = 'pending';`,

		// Daily warning dedup lookup.
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_dedup
		 ON audit_logs (entity_type, entity_id, action, occurred_at);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed via GORM.")
}
