// Package main provides account management utilities for CivicHub.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"civichub/internal/cache"
	"civichub/internal/config"
	"civichub/internal/database"
	"civichub/internal/models"
	"civichub/internal/repository"
	"civichub/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <username>      - Grant the admin role")
	fmt.Println("  go run ./cmd/admin demote <username>       - Revoke the admin role")
	fmt.Println("  go run ./cmd/admin list-admins             - List all admins")
	fmt.Println("  go run ./cmd/admin delete-user <username>  - Delete a user and everything they own")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 1
	}

	command := args[0]
	switch command {
	case "promote", "demote", "delete-user":
		if len(args) < 2 {
			fmt.Printf("Usage: go run ./cmd/admin %s <username>\n", command)
			return 1
		}
	case "list-admins":
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		return 1
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return 1
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	// Role changes and deletions must evict the server's cached copy of the user.
	cache.InitRedis(cfg.RedisURL)
	defer func() { _ = cache.Close() }()
	if cache.GetClient() == nil {
		fmt.Printf("⚠️  Redis unavailable: running servers may keep the old account state for up to %s\n", cache.UserTTL)
	}

	users := service.NewUserService(repository.NewUserRepository(db), repository.NewIssueRepository(db))
	ctx := context.Background()

	switch command {
	case "promote":
		err = setRole(ctx, users, args[1], models.RoleAdmin)
	case "demote":
		err = setRole(ctx, users, args[1], models.RoleUser)
	case "list-admins":
		err = listAdmins(ctx, users)
	case "delete-user":
		err = deleteUser(ctx, users, args[1])
	}

	switch {
	case err == nil:
		return 0
	case models.IsNotFound(err):
		fmt.Printf("User %s not found\n", args[1])
	default:
		log.Printf("Database error: %v", err)
	}
	return 1
}

func setRole(ctx context.Context, users *service.UserService, username, role string) error {
	user, err := users.SetRole(ctx, username, role)
	if err != nil {
		return err
	}
	fmt.Printf("✅ %s (ID: %d) now has role %q\n", user.Username, user.ID, user.Role)
	return nil
}

func listAdmins(ctx context.Context, users *service.UserService) error {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		return err
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return nil
	}

	fmt.Printf("Found %d admin(s):\n", len(admins))
	for _, admin := range admins {
		fmt.Printf("  - %s (ID: %d, Email: %s)\n", admin.Username, admin.ID, admin.Email)
	}
	return nil
}

func deleteUser(ctx context.Context, users *service.UserService, username string) error {
	if err := users.DeleteUser(ctx, username); err != nil {
		return err
	}
	fmt.Printf("✅ Deleted %s with their issues, comments and bookings\n", username)
	return nil
}
