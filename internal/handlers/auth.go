package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pepperswap/apiserver/internal/events"
	"github.com/pepperswap/apiserver/internal/services"
	"github.com/pepperswap/apiserver/types"
)

const defaultTokenTTL = 24 * time.Hour

// AuthHandler provides account registration and JWT authentication endpoints.
type AuthHandler struct {
	users     *services.UserService
	auth      *services.AuthService
	directory *services.DirectoryService
	publisher *events.Publisher
	secret    []byte
	tokenTTL  time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
// publisher may be nil when no event broker is configured.
func NewAuthHandler(
	users *services.UserService,
	auth *services.AuthService,
	directory *services.DirectoryService,
	publisher *events.Publisher,
	jwtSecret string,
) *AuthHandler {
	return &AuthHandler{
		users:     users,
		auth:      auth,
		directory: directory,
		publisher: publisher,
		secret:    []byte(jwtSecret),
		tokenTTL:  defaultTokenTTL,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth enforces JWT authentication and injects the subject into context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return requireAuth(h.secret)(next)
}

func requireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RegisterRequest is the account creation payload. Mandatory fields are
// pointers so that an absent field is distinguishable from a zero value.
type RegisterRequest struct {
	Moderator       *bool   `json:"moderator"`
	Username        *string `json:"username"`
	DisplayWishlist *bool   `json:"display_wishlist"`
	CountryCode     *string `json:"country_code"`
	Discord         *string `json:"discord"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// Register creates a new account and returns a JWT for it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			writeError(w, http.StatusBadRequest, services.ErrFieldTypeMismatch.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Moderator == nil || req.Username == nil || req.DisplayWishlist == nil ||
		req.CountryCode == nil || req.Password == nil {
		writeError(w, http.StatusBadRequest, services.ErrFieldIncomplete.Error())
		return
	}

	id, err := h.users.Create(r.Context(), services.CreateUserParams{
		Moderator:       *req.Moderator,
		Username:        *req.Username,
		DisplayWishlist: *req.DisplayWishlist,
		CountryCode:     *req.CountryCode,
		Discord:         req.Discord,
		Phone:           req.Phone,
		Email:           req.Email,
		Password:        *req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.directory.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.publishRegistered(r.Context(), user)

	token, err := issueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := issueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.directory.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// publishRegistered emits a user.registered event. Registration already
// committed, so publish failures are logged and swallowed.
func (h *AuthHandler) publishRegistered(ctx context.Context, user types.User) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.UserRegistered(ctx, events.UserRegistered{
		UserID:      user.ID,
		Username:    user.Username,
		CountryCode: user.CountryCode,
		At:          time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to publish user.registered event", "user_id", user.ID, "error", err)
	}
}

func issueToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
