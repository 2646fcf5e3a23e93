package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pepperswap/apiserver/internal/sanitize"
	"github.com/pepperswap/apiserver/internal/store"
	"github.com/pepperswap/apiserver/internal/validate"
	"github.com/pepperswap/apiserver/types"
)

// DirectoryService answers read-only queries over the member directory.
type DirectoryService struct {
	repo UserRepository
}

func NewDirectoryService(repo UserRepository) *DirectoryService {
	return &DirectoryService{repo: repo}
}

// GetByID resolves a user by identifier. Malformed or injection-bearing
// identifiers fail with ErrInvalidID before the store is consulted.
func (s *DirectoryService) GetByID(ctx context.Context, id string) (types.User, error) {
	cleaned, err := cleanID(id)
	if err != nil {
		return types.User{}, err
	}
	user, err := s.repo.GetByID(ctx, cleaned)
	if err != nil {
		return types.User{}, mapStoreError(err)
	}
	return user, nil
}

// GetByUsername resolves a user by exact username, ignoring case.
func (s *DirectoryService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	cleaned, err := cleanField("username", username, validate.Username)
	if err != nil {
		return types.User{}, err
	}
	user, err := s.repo.GetByUsername(ctx, cleaned)
	if err != nil {
		return types.User{}, mapStoreError(err)
	}
	return user, nil
}

// List returns every user in the directory with identifiers in printable
// string form. Ordering is unspecified.
func (s *DirectoryService) List(ctx context.Context) ([]types.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return users, nil
}

// UsernameExists reports whether a username is registered, ignoring case.
// The check never mutates store state.
func (s *DirectoryService) UsernameExists(ctx context.Context, username string) (bool, error) {
	cleaned, err := cleanField("username", username, validate.Username)
	if err != nil {
		return false, err
	}
	if _, err := s.repo.GetByUsername(ctx, cleaned); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, mapStoreError(err)
	}
	return true, nil
}

// EmailInUse reports whether an email is registered, ignoring case.
// The check never mutates store state.
func (s *DirectoryService) EmailInUse(ctx context.Context, email string) (bool, error) {
	cleaned, err := cleanField("email", email, validate.Email)
	if err != nil {
		return false, err
	}
	if _, err := s.repo.GetByEmail(ctx, cleaned); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, mapStoreError(err)
	}
	return true, nil
}

// cleanID applies the pipeline discipline to a document identifier. Both
// validator failures and injection payloads collapse to ErrInvalidID;
// an identifier carries no information worth distinguishing.
func cleanID(id string) (string, error) {
	cleaned, err := validate.ID(id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if sanitize.Changed(cleaned) {
		return "", ErrInvalidID
	}
	return cleaned, nil
}
