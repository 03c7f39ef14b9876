package main

import (
	"flag"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"komagene-kasa/internal/config"
	"komagene-kasa/internal/repository"
	"komagene-kasa/pkg/database"
)

func main() {
	email := flag.String("email", "admin@komagene.local", "account to reset")
	password := flag.String("password", "admin123", "new password")
	flag.Parse()

	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg := config.Load()

	// 2. Setup Database
	db, err := database.Connect(database.Options{
		DSN:      cfg.DatabaseURL,
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		TimeZone: cfg.DBTimeZone,
	})
	if err != nil {
		log.Fatalf("❌ Failed to configure database: %v", err)
	}
	users := repository.NewUserRepo(db)

	// 3. Find account
	user, err := users.FindByEmail(*email)
	if err != nil {
		log.Fatalf("❌ User %s not found in database: %v", *email, err)
	}

	// 4. Hash new password
	if len(*password) < 6 {
		log.Fatal("❌ Password must be at least 6 characters")
	}
	if err := user.SetPassword(*password); err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	// 5. Update and end every open session
	if err := users.UpdatePassword(user.ID, user.Password); err != nil {
		log.Fatalf("❌ Failed to update password in DB: %v", err)
	}
	if err := users.UpdateTokenVersion(user.ID, uuid.NewString()); err != nil {
		log.Fatalf("❌ Failed to rotate token version: %v", err)
	}

	log.Printf("✅ Password for %s has been reset, open sessions were signed out", *email)
}
