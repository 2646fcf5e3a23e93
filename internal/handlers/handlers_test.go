package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"github.com/pepperswap/apiserver/internal/services"
	"github.com/pepperswap/apiserver/internal/store"
	"github.com/pepperswap/apiserver/types"
)

const testJWTSecret = "test-secret"

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	users  *store.MemoryUserRepository
}

func (s *HandlerSuite) SetupTest() {
	s.users = store.NewMemoryUserRepository()
	posts := store.NewMemoryGrowPostRepository()

	userService := services.NewUserService(s.users)
	authService := services.NewAuthService(s.users)
	directoryService := services.NewDirectoryService(s.users)
	matchService := services.NewMatchService(directoryService)
	growLogService := services.NewGrowLogService(posts, s.users, nil)

	authHandler := NewAuthHandler(userService, authService, directoryService, nil, testJWTSecret)
	userHandler := NewUserHandler(directoryService, matchService, growLogService)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authHandler)
	})
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, userHandler, authHandler.RequireAuth)
	})
	s.router = router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) doJSON(method, path string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		s.Require().NoError(err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) register(username string) AuthResponse {
	rec := s.doJSON(http.MethodPost, "/auth/register", map[string]any{
		"moderator":        false,
		"username":         username,
		"display_wishlist": true,
		"country_code":     "us",
		"password":         "hunter2abc",
		"email":            fmt.Sprintf("%s@example.com", username),
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var parsed AuthResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&parsed))
	s.Require().NotEmpty(parsed.Token)
	s.Require().NotEmpty(parsed.User.ID)
	return parsed
}

func (s *HandlerSuite) TestHealthz() {
	rec := s.doJSON(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestRegister() {
	s.Run("creates account", func() {
		resp := s.register("alice")
		s.Equal("alice", resp.User.Username)
		s.Equal("US", resp.User.CountryCode)
		s.NotContains(rawJSON(s.T(), resp.User), "hashed_password")
	})

	s.Run("missing mandatory field", func() {
		rec := s.doJSON(http.MethodPost, "/auth/register", map[string]any{
			"moderator":        false,
			"display_wishlist": false,
			"country_code":     "us",
			"password":         "hunter2abc",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("wrong field type", func() {
		rec := s.doJSON(http.MethodPost, "/auth/register", map[string]any{
			"moderator":        false,
			"username":         42,
			"display_wishlist": false,
			"country_code":     "us",
			"password":         "hunter2abc",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "type mismatch")
	})

	s.Run("duplicate username conflicts", func() {
		rec := s.doJSON(http.MethodPost, "/auth/register", map[string]any{
			"moderator":        false,
			"username":         "ALICE",
			"display_wishlist": false,
			"country_code":     "us",
			"password":         "hunter2abc",
		})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("injection-bearing password rejected", func() {
		rec := s.doJSON(http.MethodPost, "/auth/register", map[string]any{
			"moderator":        false,
			"username":         "mallory",
			"display_wishlist": false,
			"country_code":     "us",
			"password":         "pass<b>word1",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "injection")
	})
}

func (s *HandlerSuite) TestLogin() {
	s.register("PepperFan")

	s.Run("valid credentials", func() {
		rec := s.doJSON(http.MethodPost, "/auth/login", LoginRequest{
			Username: "PepperFan",
			Password: "hunter2abc",
		})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

		var parsed AuthResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&parsed))
		s.NotEmpty(parsed.Token)
		s.Equal("PepperFan", parsed.User.Username)
	})

	s.Run("case-differing username rejected", func() {
		rec := s.doJSON(http.MethodPost, "/auth/login", LoginRequest{
			Username: "pepperfan",
			Password: "hunter2abc",
		})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("wrong password rejected", func() {
		rec := s.doJSON(http.MethodPost, "/auth/login", LoginRequest{
			Username: "PepperFan",
			Password: "wrongpass1",
		})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *HandlerSuite) TestMe() {
	resp := s.register("alice")

	s.Run("with token", func() {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Require().Equal(http.StatusOK, rec.Code)

		var user types.User
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&user))
		s.Equal(resp.User.ID, user.ID)
	})

	s.Run("without token", func() {
		rec := s.doJSON(http.MethodGet, "/auth/me", nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("with garbage token", func() {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *HandlerSuite) TestDirectoryEndpoints() {
	alice := s.register("alice")
	s.register("bob")

	s.Run("list users", func() {
		rec := s.doJSON(http.MethodGet, "/users", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var users []types.User
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&users))
		s.Len(users, 2)
	})

	s.Run("get user by id", func() {
		rec := s.doJSON(http.MethodGet, "/users/"+alice.User.ID, nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var user types.User
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&user))
		s.Equal("alice", user.Username)
	})

	s.Run("unknown user id", func() {
		rec := s.doJSON(http.MethodGet, "/users/3c7f9a2e-1b4d-4c8a-9e6f-0a1b2c3d4e5f", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("lookup by username ignoring case", func() {
		rec := s.doJSON(http.MethodGet, "/users/lookup?username=ALICE", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var user types.User
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&user))
		s.Equal(alice.User.ID, user.ID)
	})

	s.Run("lookup without username", func() {
		rec := s.doJSON(http.MethodGet, "/users/lookup", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("username exists", func() {
		rec := s.doJSON(http.MethodGet, "/users/exists?username=alice", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var parsed ExistsResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&parsed))
		s.True(parsed.Exists)
	})

	s.Run("email not in use", func() {
		rec := s.doJSON(http.MethodGet, "/users/exists?email=carol@example.com", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var parsed ExistsResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&parsed))
		s.False(parsed.Exists)
	})

	s.Run("both query parameters rejected", func() {
		rec := s.doJSON(http.MethodGet, "/users/exists?username=alice&email=a@b.com", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestWishlistMatches() {
	subject, err := s.users.Insert(context.Background(), types.User{
		Username: "subject", HashedPassword: "x", CountryCode: "US",
		Wishlist: []string{"X", "Y"},
	})
	s.Require().NoError(err)
	_, err = s.users.Insert(context.Background(), types.User{
		Username: "trader", HashedPassword: "x", CountryCode: "US",
		Inventory: []string{"X", "Y"},
	})
	s.Require().NoError(err)

	s.Run("returns annotated matches", func() {
		rec := s.doJSON(http.MethodGet, "/users/"+subject.ID+"/matches?n=5", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var matches []types.WishlistMatch
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&matches))
		s.Require().Len(matches, 1)
		s.Equal("trader", matches[0].Username)
		s.Equal(2, matches[0].WishlistMatches)
	})

	s.Run("default n", func() {
		rec := s.doJSON(http.MethodGet, "/users/"+subject.ID+"/matches", nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("negative n rejected", func() {
		rec := s.doJSON(http.MethodGet, "/users/"+subject.ID+"/matches?n=-1", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("non-numeric n rejected", func() {
		rec := s.doJSON(http.MethodGet, "/users/"+subject.ID+"/matches?n=ten", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestCreateGrowPost() {
	alice := s.register("alice")
	bob := s.register("bob")

	s.Run("creates post on own page", func() {
		rec := s.postGrow(alice.User.ID, alice.Token, "Week 1: germination.")
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

		var post types.GrowPost
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&post))
		s.Equal(alice.User.ID, post.UserID)
	})

	s.Run("forbidden on another member's page", func() {
		rec := s.postGrow(alice.User.ID, bob.Token, "Not my page.")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("unauthorized without token", func() {
		rec := s.postGrow(alice.User.ID, "", "No token.")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("lists own posts", func() {
		req := httptest.NewRequest(http.MethodGet, "/users/"+alice.User.ID+"/grow", nil)
		req.Header.Set("Authorization", "Bearer "+alice.Token)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Require().Equal(http.StatusOK, rec.Code)

		var posts []types.GrowPost
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&posts))
		s.Len(posts, 1)
	})
}

func (s *HandlerSuite) postGrow(userID, token, text string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	s.Require().NoError(writer.WriteField(formFieldText, text))
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/"+userID+"/grow", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func rawJSON(t *testing.T, value any) string {
	t.Helper()
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
