package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/google/uuid"
	"github.com/pepperswap/apiserver/internal/media"
	"github.com/pepperswap/apiserver/internal/sanitize"
	"github.com/pepperswap/apiserver/types"
)

const maxGrowPostTextLen = 5000

// GrowPostRepository defines persistence operations for grow log posts.
type GrowPostRepository interface {
	Insert(ctx context.Context, post types.GrowPost) (types.GrowPost, error)
	GetByID(ctx context.Context, id string) (types.GrowPost, error)
	ListByUser(ctx context.Context, userID string) ([]types.GrowPost, error)
	Delete(ctx context.Context, id string) error
}

// Photo is an uploaded image attached to a grow post.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// GrowLogService manages members' grow logs.
type GrowLogService struct {
	posts GrowPostRepository
	users UserRepository
	media *media.Library
}

// NewGrowLogService constructs the service. media may be nil when no
// object storage is configured; posts with photos are rejected then.
func NewGrowLogService(posts GrowPostRepository, users UserRepository, library *media.Library) *GrowLogService {
	return &GrowLogService{posts: posts, users: users, media: library}
}

// CreatePost adds an entry to the user's grow log and records the post id
// on the user document. An attached photo is uploaded before the insert;
// if a later step fails, the upload and the inserted post are removed
// again so no orphaned artifacts remain.
func (s *GrowLogService) CreatePost(ctx context.Context, userID, text string, photo *Photo) (types.GrowPost, error) {
	cleanedID, err := cleanID(userID)
	if err != nil {
		return types.GrowPost{}, err
	}
	if text == "" {
		return types.GrowPost{}, fmt.Errorf("text: %w", ErrFieldIncomplete)
	}
	if len(text) > maxGrowPostTextLen {
		return types.GrowPost{}, fmt.Errorf("text: %w", ErrFieldTypeMismatch)
	}
	if sanitize.Changed(text) {
		return types.GrowPost{}, fmt.Errorf("text: %w", ErrInjectionDetected)
	}

	user, err := s.users.GetByID(ctx, cleanedID)
	if err != nil {
		return types.GrowPost{}, mapStoreError(err)
	}

	var photoKey string
	if photo != nil {
		if s.media == nil {
			return types.GrowPost{}, errors.New("media storage is not configured")
		}
		photoKey = fmt.Sprintf("grow/%s/%s%s", user.ID, uuid.NewString(), path.Ext(photo.Filename))
		reader := bytes.NewReader(photo.Data)
		if err := s.media.PutPhoto(ctx, photoKey, reader, int64(len(photo.Data)), photo.ContentType); err != nil {
			return types.GrowPost{}, fmt.Errorf("store photo: %w", err)
		}
	}

	post, err := s.posts.Insert(ctx, types.GrowPost{
		UserID:   user.ID,
		Text:     text,
		PhotoKey: photoKey,
	})
	if err != nil {
		if photoKey != "" {
			_ = s.media.DeletePhoto(ctx, photoKey)
		}
		return types.GrowPost{}, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	if err := s.users.AppendGrowLog(ctx, user.ID, post.ID); err != nil {
		_ = s.posts.Delete(ctx, post.ID)
		if photoKey != "" {
			_ = s.media.DeletePhoto(ctx, photoKey)
		}
		return types.GrowPost{}, mapStoreError(err)
	}
	return post, nil
}

// ListPosts returns a user's grow log posts, oldest first.
func (s *GrowLogService) ListPosts(ctx context.Context, userID string) ([]types.GrowPost, error) {
	cleanedID, err := cleanID(userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, cleanedID); err != nil {
		return nil, mapStoreError(err)
	}
	posts, err := s.posts.ListByUser(ctx, cleanedID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return posts, nil
}

// GetPhoto streams the photo attached to a post. The content type is
// inferred from the stored key's extension.
func (s *GrowLogService) GetPhoto(ctx context.Context, postID string) (io.ReadCloser, string, error) {
	cleanedID, err := cleanID(postID)
	if err != nil {
		return nil, "", err
	}
	post, err := s.posts.GetByID(ctx, cleanedID)
	if err != nil {
		return nil, "", mapStoreError(err)
	}
	if post.PhotoKey == "" || s.media == nil {
		return nil, "", ErrNotFound
	}
	reader, err := s.media.GetPhoto(ctx, post.PhotoKey)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	contentType := mime.TypeByExtension(path.Ext(post.PhotoKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return reader, contentType, nil
}
