package main

import (
	"log"
	"os"

	"telemed-chat-be/internal/model"
	"telemed-chat-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM migration...")

	// Extensions GORM AutoMigrate does not manage.
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: setup statement failed: %v", err)
		}
	}

	if err := db.AutoMigrate(
		&model.Participant{},
		&model.Appointment{},
		&model.ChatMessage{},
		&model.ChatAuditLog{},
	); err != nil {
		log.Fatal("Error: AutoMigrate failed:", err)
	}

	// History reads scan one appointment ordered by send time; keep a
	// composite index matching that access path.
	if err := db.Exec(
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_history ON chat_messages (appointment_id, sent_at, seq);`,
	).Error; err != nil {
		log.Fatal("Error: history index creation failed:", err)
	}

	log.Println("Migration complete.")
}
