package database

import (
	"database/sql"
	"errors"

	"github.com/contabilidad-io/contabilidad/internal/models"
)

var (
	// ErrNotFound covers both a missing row and a row owned by another
	// user; callers cannot tell the two apart.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken signals a duplicate registration.
	ErrEmailTaken = errors.New("email already taken")
)

// CreateUser inserts a user with an already-hashed password.
func (db *DB) CreateUser(email, passwordHash string) (*models.User, error) {
	user := &models.User{Email: email, Password: passwordHash}

	if db.dialect == DialectPostgres {
		err := db.conn.QueryRow(
			"INSERT INTO users (email, password) VALUES ($1, $2) RETURNING id",
			email, passwordHash,
		).Scan(&user.ID)
		if err != nil {
			if db.dialect.IsUniqueViolation(err) {
				return nil, ErrEmailTaken
			}
			return nil, err
		}
		return user, nil
	}

	res, err := db.conn.Exec(
		"INSERT INTO users (email, password) VALUES (?, ?)",
		email, passwordHash,
	)
	if err != nil {
		if db.dialect.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	user.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := db.dialect.Rebind("SELECT id, email, password FROM users WHERE email = ?")
	err := db.conn.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by id.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	user := &models.User{}
	query := db.dialect.Rebind("SELECT id, email, password FROM users WHERE id = ?")
	err := db.conn.QueryRow(query, id).Scan(&user.ID, &user.Email, &user.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
