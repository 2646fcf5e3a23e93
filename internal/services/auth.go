package services

import (
	"context"
	"errors"

	"github.com/pepperswap/apiserver/internal/sanitize"
	"github.com/pepperswap/apiserver/internal/store"
	"github.com/pepperswap/apiserver/internal/validate"
	"github.com/pepperswap/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// AuthService verifies member credentials.
type AuthService struct {
	repo UserRepository
}

func NewAuthService(repo UserRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Login verifies a username/password pair and returns the matching user.
// Every failure collapses into ErrCredentialsInvalid so callers cannot
// tell an unknown username from a wrong password. The supplied username
// must equal the stored one exactly, including case.
func (s *AuthService) Login(ctx context.Context, username, password string) (types.User, error) {
	if !credentialClean(username, validate.Username) {
		return types.User{}, ErrCredentialsInvalid
	}
	if !credentialClean(password, validate.Password) {
		return types.User{}, ErrCredentialsInvalid
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrCredentialsInvalid
		}
		return types.User{}, mapStoreError(err)
	}
	if user.Username != username {
		return types.User{}, ErrCredentialsInvalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return types.User{}, ErrCredentialsInvalid
	}
	return user, nil
}

// credentialClean reports whether value survives its validator unchanged
// and is free of injection payloads. Login rejects anything the pipeline
// would have normalized, since a stored credential was canonical already.
func credentialClean(value string, validator func(string) (string, error)) bool {
	normalized, err := validator(value)
	if err != nil || normalized != value {
		return false
	}
	return !sanitize.Changed(value)
}
