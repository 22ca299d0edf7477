// Package main seeds the initial admin operator from environment variables.
package main

import (
	"log"
	"os"

	"fuelpass/internal/config"
	"fuelpass/internal/models"
	"fuelpass/internal/repositories"
	"fuelpass/internal/services/auth"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}
	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		if repositories.CacheService != nil {
			_ = repositories.CacheService.Close()
		}
	}()

	users := repositories.NewUserRepository(repositories.DB)
	if _, err := users.GetByEmail(adminEmail); err == nil {
		log.Println("admin user already exists")
		return
	}

	authService := auth.NewService(users)
	user, err := authService.CreateOperator(adminEmail, adminPassword,
		config.GetEnv("ADMIN_NAME", "Platform Admin"), models.RoleAdmin)
	if err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}
	log.Printf("created admin user %s (id=%d)", user.Email, user.ID)
}
