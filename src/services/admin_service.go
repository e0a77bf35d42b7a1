package services

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminAccount is the operator identity allowed to toggle maintenance
type AdminAccount struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// AdminService authenticates the configured admin account
type AdminService struct {
	account      *AdminAccount
	passwordHash []byte
}

// NewAdminService hashes the configured password with bcrypt.
// Empty credentials produce a service that rejects every login.
func NewAdminService(username, password string) (*AdminService, error) {
	if username == "" || password == "" {
		return &AdminService{}, nil
	}
	if len(username) > 255 {
		return nil, errors.New("username must be between 1 and 255 characters")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &AdminService{
		account: &AdminAccount{
			// Stable across restarts so issued tokens stay attributable
			ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte("license-gate-admin:"+username)),
			Username: username,
		},
		passwordHash: hash,
	}, nil
}

// Enabled reports whether an admin account is configured
func (as *AdminService) Enabled() bool {
	return as.account != nil
}

// AuthenticateAdmin verifies username and password
func (as *AdminService) AuthenticateAdmin(username, password string) (*AdminAccount, error) {
	if !as.Enabled() {
		return nil, ErrAdminDisabled
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(as.account.Username)) != 1 {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(as.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	account := *as.account
	return &account, nil
}
