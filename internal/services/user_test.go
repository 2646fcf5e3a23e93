package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pepperswap/apiserver/internal/store"
)

func strPtr(s string) *string { return &s }

func validCreateParams() CreateUserParams {
	return CreateUserParams{
		Username:    "alice",
		CountryCode: "us",
		Password:    "hunter2abc",
	}
}

func TestCreateUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	users := NewUserService(repo)
	directory := NewDirectoryService(repo)

	params := validCreateParams()
	params.Email = strPtr("Alice@Example.COM")
	params.Phone = strPtr("+31 6 1234 5678")
	params.Discord = strPtr("pepper.fan")
	params.DisplayWishlist = true

	id, err := users.Create(ctx, params)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	found, err := directory.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)
	assert.Equal(t, "US", found.CountryCode)
	assert.True(t, found.DisplayWishlist)
	require.NotNil(t, found.Email)
	assert.Equal(t, "alice@example.com", *found.Email)
	require.NotNil(t, found.Phone)
	assert.Equal(t, "+31612345678", *found.Phone)
	require.NotNil(t, found.Discord)
	assert.Equal(t, "pepper.fan", *found.Discord)
	assert.NotEqual(t, "hunter2abc", found.HashedPassword)
	assert.Empty(t, found.Wishlist)
	assert.Empty(t, found.Inventory)
}

func TestCreateUserOptionalFieldsAbsent(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	users := NewUserService(repo)
	directory := NewDirectoryService(repo)

	id, err := users.Create(ctx, validCreateParams())
	require.NoError(t, err)

	found, err := directory.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, found.Email)
	assert.Nil(t, found.Phone)
	assert.Nil(t, found.Discord)
}

func TestCreateUserMandatoryFieldMissing(t *testing.T) {
	ctx := context.Background()
	users := NewUserService(store.NewMemoryUserRepository())

	tests := []struct {
		name   string
		mutate func(*CreateUserParams)
	}{
		{name: "username", mutate: func(p *CreateUserParams) { p.Username = "" }},
		{name: "countryCode", mutate: func(p *CreateUserParams) { p.CountryCode = "" }},
		{name: "password", mutate: func(p *CreateUserParams) { p.Password = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validCreateParams()
			tt.mutate(&params)
			_, err := users.Create(ctx, params)
			require.ErrorIs(t, err, ErrFieldIncomplete)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestCreateUserUsernameTakenIgnoresCase(t *testing.T) {
	ctx := context.Background()
	users := NewUserService(store.NewMemoryUserRepository())

	params := validCreateParams()
	params.Username = "PepperFan"
	_, err := users.Create(ctx, params)
	require.NoError(t, err)

	params = validCreateParams()
	params.Username = "pepperfan"
	_, err = users.Create(ctx, params)
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCreateUserEmailTakenIgnoresCase(t *testing.T) {
	ctx := context.Background()
	users := NewUserService(store.NewMemoryUserRepository())

	params := validCreateParams()
	params.Email = strPtr("dupe@example.com")
	_, err := users.Create(ctx, params)
	require.NoError(t, err)

	params = validCreateParams()
	params.Username = "bob"
	params.Email = strPtr("DUPE@example.com")
	_, err = users.Create(ctx, params)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateUserInjectionRejectedWithoutInsert(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	users := NewUserService(repo)
	directory := NewDirectoryService(repo)

	params := validCreateParams()
	params.Username = "mallory"
	params.Password = "pass<b>word1"
	_, err := users.Create(ctx, params)
	require.ErrorIs(t, err, ErrInjectionDetected)
	assert.Contains(t, err.Error(), "password")

	exists, err := directory.UsernameExists(ctx, "mallory")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateUserValidationErrorsPropagateVerbatim(t *testing.T) {
	ctx := context.Background()
	users := NewUserService(store.NewMemoryUserRepository())

	tests := []struct {
		name   string
		mutate func(*CreateUserParams)
		field  string
	}{
		{name: "bad username", mutate: func(p *CreateUserParams) { p.Username = "1alice" }, field: "username"},
		{name: "bad country code", mutate: func(p *CreateUserParams) { p.CountryCode = "USA" }, field: "countryCode"},
		{name: "weak password", mutate: func(p *CreateUserParams) { p.Password = "short" }, field: "password"},
		{name: "bad email", mutate: func(p *CreateUserParams) { p.Email = strPtr("not-an-email") }, field: "email"},
		{name: "bad phone", mutate: func(p *CreateUserParams) { p.Phone = strPtr("555-CALL") }, field: "phone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validCreateParams()
			tt.mutate(&params)
			_, err := users.Create(ctx, params)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
