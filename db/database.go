package db

import (
	"database/sql"
	"fmt"
	"log"

	"melotree/config"
	"melotree/core/auth"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema and seeds the local import user.
// The libraries table is managed separately through GORM auto-migration.
func InitDB(cfg *config.Config) error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := seedImportUser(cfg); err != nil {
		return err
	}
	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

// seedImportUser ensures the user that owns watch-folder and CLI imports
// exists. Credentials come from SEED_USERNAME / SEED_PASSWORD.
func seedImportUser(cfg *config.Config) error {
	var existingID int64
	err := DB.QueryRow("SELECT id FROM users WHERE username = ?", cfg.SeedUsername).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check for seed user %q: %w", cfg.SeedUsername, err)
	}
	if err == nil {
		log.Printf("Seed user %q already exists with ID: %d. Skipping creation.", cfg.SeedUsername, existingID)
		return nil
	}

	hashedPassword, err := auth.HashPassword(cfg.SeedPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password for seed user: %w", err)
	}

	email := fmt.Sprintf("%s@melotree.local", cfg.SeedUsername)
	res, err := DB.Exec("INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		cfg.SeedUsername, email, hashedPassword)
	if err != nil {
		return fmt.Errorf("failed to insert seed user %q: %w", cfg.SeedUsername, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get ID of seed user: %w", err)
	}
	log.Printf("Seed user %q created with ID: %d", cfg.SeedUsername, id)
	return nil
}
