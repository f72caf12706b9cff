package database

import (
	"log"

	"quill/models"

	"gorm.io/gorm"
)

// RunMigrations creates the schema if absent and leaves an existing one
// untouched, so it is safe to run on every start.
func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.BlogPost{},
		&models.Comment{},
	)

	if err != nil {
		log.Printf("Error running migrations: %v", err)
		return err
	}

	log.Println("Migrations completed successfully")
	return nil
}
