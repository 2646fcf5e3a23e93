package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pepperswap/apiserver/internal/services"
)

const (
	defaultMatchCount  = 10
	maxMultipartMemory = 16 << 20
	maxPhotoBytes      = 8 << 20
	formFieldText      = "text"
	formFieldPhoto     = "photo"
)

// UserHandler provides HTTP handlers for the member directory.
type UserHandler struct {
	directory *services.DirectoryService
	matches   *services.MatchService
	growLog   *services.GrowLogService
}

// NewUserHandler constructs a handler with the provided services.
func NewUserHandler(
	directory *services.DirectoryService,
	matches *services.MatchService,
	growLog *services.GrowLogService,
) *UserHandler {
	return &UserHandler{
		directory: directory,
		matches:   matches,
		growLog:   growLog,
	}
}

// UserRouter registers directory routes on the given router.
func UserRouter(r chi.Router, handler *UserHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", handler.ListUsers)
	r.Get("/lookup", handler.LookupUsername)
	r.Get("/exists", handler.CheckExists)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Get("/matches", handler.GetWishlistMatches)
		r.With(authMiddleware).Get("/grow", handler.ListGrowPosts)
		r.With(authMiddleware).Post("/grow", handler.CreateGrowPost)
		r.Get("/grow/{postID}/photo", handler.GetGrowPhoto)
	})
}

// ListUsers returns the whole directory.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser returns the user with the given id.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.directory.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// LookupUsername resolves a username to its user.
func (h *UserHandler) LookupUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if strings.TrimSpace(username) == "" {
		writeError(w, http.StatusBadRequest, services.ErrFieldIncomplete.Error())
		return
	}
	user, err := h.directory.GetByUsername(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ExistsResponse reports the result of an existence check.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// CheckExists answers username/email existence queries. Exactly one of
// the two query parameters must be supplied.
func (h *UserHandler) CheckExists(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	email := r.URL.Query().Get("email")

	var exists bool
	var err error
	switch {
	case username != "" && email == "":
		exists, err = h.directory.UsernameExists(r.Context(), username)
	case email != "" && username == "":
		exists, err = h.directory.EmailInUse(r.Context(), email)
	default:
		writeError(w, http.StatusBadRequest, "exactly one of username or email is required")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExistsResponse{Exists: exists})
}

// GetWishlistMatches returns the n candidates whose inventories best
// satisfy the subject's wishlist.
func (h *UserHandler) GetWishlistMatches(w http.ResponseWriter, r *http.Request) {
	n := defaultMatchCount
	if raw := strings.TrimSpace(r.URL.Query().Get("n")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid n")
			return
		}
		n = parsed
	}

	matches, err := h.matches.NClosestWishlistMatches(r.Context(), chi.URLParam(r, "userID"), n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// ListGrowPosts returns a user's grow log, oldest first.
func (h *UserHandler) ListGrowPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.growLog.ListPosts(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// CreateGrowPost adds an entry to the caller's own grow log. Posting to
// another member's page is forbidden.
func (h *UserHandler) CreateGrowPost(w http.ResponseWriter, r *http.Request) {
	subject, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID := chi.URLParam(r, "userID")
	if subject != userID {
		writeError(w, http.StatusForbidden, "no permission to add posts under another member's page")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	text := r.FormValue(formFieldText)
	photo, err := parsePhotoFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.growLog.CreatePost(r.Context(), userID, text, photo)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// GetGrowPhoto streams the photo attached to a grow post.
func (h *UserHandler) GetGrowPhoto(w http.ResponseWriter, r *http.Request) {
	reader, contentType, err := h.growLog.GetPhoto(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func parsePhotoFile(form *multipart.Form) (*services.Photo, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[formFieldPhoto]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.New("only one photo is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.New("failed to read photo")
	}

	data, err := readFileLimited(file, maxPhotoBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}

	return &services.Photo{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
