package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pepperswap/apiserver/internal/store"
	"github.com/pepperswap/apiserver/internal/validate"
	"github.com/pepperswap/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const defaultBcryptCost = 10

// UserRepository defines the narrow document-store operations for users.
// Username and email lookups match exact values ignoring case; the store
// enforces case-insensitive uniqueness on both as the authoritative guard.
type UserRepository interface {
	Insert(ctx context.Context, user types.User) (types.User, error)
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	AppendGrowLog(ctx context.Context, userID, postID string) error
}

// CreateUserParams carries the inputs for account creation. Optional
// fields are pointers; nil means absent, and absent fields are never
// validated or sanitized.
type CreateUserParams struct {
	Moderator       bool
	Username        string
	DisplayWishlist bool
	CountryCode     string
	Discord         *string
	Phone           *string
	Email           *string
	Password        string
}

// UserService creates accounts. It orchestrates validation, sanitization,
// uniqueness checks, password hashing, and insertion.
type UserService struct {
	repo       UserRepository
	bcryptCost int
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, bcryptCost: defaultBcryptCost}
}

// Create registers a new account and returns the assigned identifier in
// printable string form. Mandatory fields run through the pipeline in a
// fixed order, then optional fields in theirs; the username uniqueness
// check is the last gate before insertion so the window between check
// and insert stays as small as possible. The store's unique indexes
// remain the correctness boundary for concurrent registrations.
func (s *UserService) Create(ctx context.Context, params CreateUserParams) (string, error) {
	if params.Username == "" {
		return "", fmt.Errorf("username: %w", ErrFieldIncomplete)
	}
	if params.CountryCode == "" {
		return "", fmt.Errorf("countryCode: %w", ErrFieldIncomplete)
	}
	if params.Password == "" {
		return "", fmt.Errorf("password: %w", ErrFieldIncomplete)
	}

	username, err := cleanField("username", params.Username, validate.Username)
	if err != nil {
		return "", err
	}
	countryCode, err := cleanField("countryCode", params.CountryCode, validate.CountryCode)
	if err != nil {
		return "", err
	}
	password, err := cleanField("password", params.Password, validate.Password)
	if err != nil {
		return "", err
	}

	var discord, phone, email *string
	if params.Discord != nil {
		value, err := cleanField("discord", *params.Discord, validate.Discord)
		if err != nil {
			return "", err
		}
		discord = &value
	}
	if params.Phone != nil {
		value, err := cleanField("phone", *params.Phone, validate.Phone)
		if err != nil {
			return "", err
		}
		phone = &value
	}
	if params.Email != nil {
		value, err := cleanField("email", *params.Email, validate.Email)
		if err != nil {
			return "", err
		}
		if _, err := s.repo.GetByEmail(ctx, value); err == nil {
			return "", ErrEmailTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return "", mapStoreError(err)
		}
		email = &value
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return "", ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", mapStoreError(err)
	}

	user := types.User{
		Moderator:       params.Moderator,
		Username:        username,
		DisplayWishlist: params.DisplayWishlist,
		HashedPassword:  string(hashed),
		CountryCode:     countryCode,
		Discord:         discord,
		Phone:           phone,
		Email:           email,
		Wishlist:        []string{},
		Inventory:       []string{},
		AvgRating:       0,
		GrowLog:         []string{},
		ProfileComments: []string{},
	}

	created, err := s.repo.Insert(ctx, user)
	if err != nil {
		mapped := mapStoreError(err)
		if errors.Is(mapped, ErrStoreUnavailable) {
			return "", fmt.Errorf("%w: %v", ErrInsertFailed, err)
		}
		return "", mapped
	}
	if created.ID == "" {
		return "", ErrInsertFailed
	}
	return created.ID, nil
}
