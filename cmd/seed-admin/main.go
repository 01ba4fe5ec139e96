package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/models"
)

// Seeds the first admin user. Run once against a fresh database:
//
//	go run ./cmd/seed-admin -name "Ops" -email ops@example.com
//
// The password comes from ADMIN_PASSWORD to keep it out of shell history.
func main() {
	name := flag.String("name", "Admin", "display name")
	email := flag.String("email", "", "login email (required)")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ADMIN_PASSWORD must be set")
	}

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	isAdmin := true
	user, err := models.CreateUser(context.Background(), &models.NewUser{
		Name:     *name,
		Email:    *email,
		Password: password,
		IsAdmin:  &isAdmin,
	})
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.Printf("created admin user %d (%s)", user.ID, user.Email)
}
