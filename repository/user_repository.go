package repository

import (
	"database/sql"
	"fmt"

	"melotree/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := "INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(user.Username, user.Email, user.PasswordHash)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	return r.getUser("SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE id = ?", id)
}

// GetUserByUsername retrieves a user by username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	return r.getUser("SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE username = ?", username)
}

// GetUserByEmail retrieves a user by email.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	return r.getUser("SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE email = ?", email)
}

func (r *mysqlUserRepository) getUser(query string, arg interface{}) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}
