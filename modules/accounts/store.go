// Package accounts maps verified federated identities to local accounts.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type Account struct {
	ID          int64
	LoginName   string
	Email       string
	DisplayName string
}

// NewAccount holds the fields needed to provision an account.
type NewAccount struct {
	LoginName    string
	Email        string
	DisplayName  string
	GivenName    string
	FamilyName   string
	PasswordHash string
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindByEmail returns the account for the given email, or nil if none exists.
// Emails are stored lowercased, so the lookup is case-insensitive.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Account, error) {
	acc := &Account{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, login_name, email, display_name FROM accounts WHERE email = ? LIMIT 1",
		strings.ToLower(email)).
		Scan(&acc.ID, &acc.LoginName, &acc.Email, &acc.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by email: %w", err)
	}
	return acc, nil
}

func (s *Store) LoginNameExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM accounts WHERE login_name = ? LIMIT 1", name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying login name: %w", err)
	}
	return true, nil
}

func (s *Store) Create(ctx context.Context, na NewAccount) (*Account, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO accounts (login_name, email, display_name, given_name, family_name, password_hash)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		na.LoginName, strings.ToLower(na.Email), na.DisplayName, na.GivenName, na.FamilyName, na.PasswordHash).
		Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("inserting account: %w", err)
	}
	return &Account{ID: id, LoginName: na.LoginName, Email: strings.ToLower(na.Email), DisplayName: na.DisplayName}, nil
}

// GetByID returns the account with the given id.
func (s *Store) GetByID(ctx context.Context, id int64) (*Account, error) {
	acc := &Account{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, login_name, email, display_name FROM accounts WHERE id = ? LIMIT 1", id).
		Scan(&acc.ID, &acc.LoginName, &acc.Email, &acc.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by id: %w", err)
	}
	return acc, nil
}
