package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// User owns wallets. Wallets reference the user by id only.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser expects an email already passed through NormalizeEmail.
func NewUser(id, firstName, lastName, email, passwordHash string) *User {
	createdAt := now()
	return &User{
		ID:           id,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Email:        email,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// NormalizeEmail lowercases a syntactically valid address.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// Authentication errors
var (
	ErrInvalidEmail = errors.New("invalid email format")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
