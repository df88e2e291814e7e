package main

import (
	"fmt"
	"log"
	"os"

	"civicpulse/backend/internal/complaints"
	"civicpulse/backend/internal/config"
	"civicpulse/backend/internal/models"
	"civicpulse/backend/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// cliActor is the identity recorded in the activity log for CLI-driven
// transitions.
var cliActor = &models.User{
	UID:         "admin-cli",
	DisplayName: "Admin CLI",
	Role:        models.RoleAdmin,
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "promote":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin promote <email>")
			os.Exit(1)
		}
		if err := storageSvc.SetRoleByEmail(os.Args[2], models.RoleAdmin); err != nil {
			log.Fatalf("Error promoting user: %v", err)
		}
		fmt.Printf("User %s is now an admin.\n", os.Args[2])

	case "demote":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin demote <email>")
			os.Exit(1)
		}
		if err := storageSvc.SetRoleByEmail(os.Args[2], models.RoleCitizen); err != nil {
			log.Fatalf("Error demoting user: %v", err)
		}
		fmt.Printf("User %s is now a citizen.\n", os.Args[2])

	case "set-status":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin set-status <complaint_id> <status> [notes]")
			os.Exit(1)
		}
		req := models.UpdateStatusRequest{Status: models.ComplaintStatus(os.Args[3])}
		if len(os.Args) > 4 {
			req.Notes = os.Args[4]
		}
		svc := complaints.NewService(storageSvc, nil)
		updated, err := svc.UpdateStatus(cliActor, os.Args[2], req)
		if err != nil {
			log.Fatalf("Error updating status: %v", err)
		}
		fmt.Printf("Complaint %s is now %s.\n", updated.ID, updated.Status)

	case "stats":
		counts, err := storageSvc.CountByStatus()
		if err != nil {
			log.Fatalf("Error loading stats: %v", err)
		}
		fmt.Printf("submitted:    %d\n", counts.Submitted)
		fmt.Printf("under_review: %d\n", counts.UnderReview)
		fmt.Printf("in_progress:  %d\n", counts.InProgress)
		fmt.Printf("resolved:     %d\n", counts.Resolved)
		fmt.Printf("rejected:     %d\n", counts.Rejected)

	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}
