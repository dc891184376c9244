package main

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/vigilops/ipsentry/internal/config"
	"github.com/vigilops/ipsentry/internal/database"
	"github.com/vigilops/ipsentry/internal/models"
)

// Seeds the database with an admin user so the API is usable after first boot.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.WhitelistEntry{},
		&models.YellowlistEntry{},
		&models.BlockedIP{},
		&models.Decision{},
		&models.NotificationProvider{},
		&models.User{},
	); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	email := os.Getenv("IPSENTRY_ADMIN_EMAIL")
	if email == "" {
		email = "admin@localhost"
	}
	password := os.Getenv("IPSENTRY_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("IPSENTRY_ADMIN_PASSWORD is required to seed an admin user")
	}

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		fmt.Printf("user already exists: %s\n", email)
		return
	}

	user := models.User{
		UUID:    uuid.NewString(),
		Email:   email,
		Name:    "Administrator",
		Role:    "admin",
		Enabled: true,
	}
	if err := user.SetPassword(password); err != nil {
		log.Fatalf("hash password: %v", err)
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("create user: %v", err)
	}

	fmt.Printf("created admin user: %s\n", email)
}
