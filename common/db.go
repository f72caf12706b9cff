package common

import (
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ConnectDb opens the sqlite database at DATABASE_PATH, defaulting to a
// local blog.db file. _fk=1 makes the driver enforce foreign keys.
func ConnectDb() *gorm.DB {
	dbFile := os.Getenv("DATABASE_PATH")
	if dbFile == "" {
		dbFile = "blog.db"
	}

	db, err := gorm.Open(sqlite.Open(dbFile+"?_fk=1"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Println("Error opening sqlite db: " + err.Error())
		return nil
	}
	log.Println("opened sqlite db at:", dbFile)
	return db
}
