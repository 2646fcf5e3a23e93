package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pepperswap/apiserver/types"
)

// In-memory repositories back unit tests and local development. They
// enforce the same case-insensitive uniqueness rules as the real backends.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]types.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]types.User)}
}

func (r *MemoryUserRepository) Insert(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return types.User{}, ErrDuplicateUsername
		}
		if user.Email != nil && existing.Email != nil && strings.EqualFold(*existing.Email, *user.Email) {
			return types.User{}, ErrDuplicateEmail
		}
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email != nil && strings.EqualFold(*user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) List(_ context.Context) ([]types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

func (r *MemoryUserRepository) AppendGrowLog(_ context.Context, userID, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.GrowLog = append(user.GrowLog, postID)
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user
	return nil
}

type MemoryGrowPostRepository struct {
	mu    sync.RWMutex
	posts map[string]types.GrowPost
}

func NewMemoryGrowPostRepository() *MemoryGrowPostRepository {
	return &MemoryGrowPostRepository{posts: make(map[string]types.GrowPost)}
}

func (r *MemoryGrowPostRepository) Insert(_ context.Context, post types.GrowPost) (types.GrowPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = uuid.NewString()
	post.CreatedAt = time.Now().UTC()
	r.posts[post.ID] = post
	return post, nil
}

func (r *MemoryGrowPostRepository) GetByID(_ context.Context, id string) (types.GrowPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if post, ok := r.posts[id]; ok {
		return post, nil
	}
	return types.GrowPost{}, ErrNotFound
}

func (r *MemoryGrowPostRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *MemoryGrowPostRepository) ListByUser(_ context.Context, userID string) ([]types.GrowPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	posts := []types.GrowPost{}
	for _, post := range r.posts {
		if post.UserID == userID {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return posts, nil
}
