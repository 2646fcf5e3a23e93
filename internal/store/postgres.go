package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pepperswap/apiserver/types"
)

const uniqueViolation = "23505"

// PostgresUserRepository persists users in a Postgres table. Unique
// indexes on lower(username) and lower(email) are the authoritative
// guard for the case-insensitive uniqueness invariants.
type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, moderator, username, display_wishlist, hashed_password, country_code,
		discord, phone, email, wishlist, inventory, avg_rating, grow_log, profile_comments,
		created_at, updated_at`

func (r *PostgresUserRepository) Insert(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (moderator, username, display_wishlist, hashed_password, country_code,
			discord, phone, email, wishlist, inventory, avg_rating, grow_log, profile_comments,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Moderator,
		user.Username,
		user.DisplayWishlist,
		user.HashedPassword,
		user.CountryCode,
		user.Discord,
		user.Phone,
		user.Email,
		pq.Array(user.Wishlist),
		pq.Array(user.Inventory),
		user.AvgRating,
		pq.Array(user.GrowLog),
		pq.Array(user.ProfileComments),
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return types.User{}, mapPqError(err)
	}
	return user, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrInvalidID
	}
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresUserRepository) List(ctx context.Context) ([]types.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if users == nil {
		users = []types.User{}
	}
	return users, nil
}

func (r *PostgresUserRepository) AppendGrowLog(ctx context.Context, userID, postID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrInvalidID
	}
	const query = `
		UPDATE users
		SET grow_log = array_append(grow_log, $2),
			updated_at = $3
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, userID, postID, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) queryOne(ctx context.Context, query string, arg any) (types.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var wishlist, inventory, growLog, profileComments pq.StringArray
	err := row.Scan(
		&user.ID,
		&user.Moderator,
		&user.Username,
		&user.DisplayWishlist,
		&user.HashedPassword,
		&user.CountryCode,
		&user.Discord,
		&user.Phone,
		&user.Email,
		&wishlist,
		&inventory,
		&user.AvgRating,
		&growLog,
		&profileComments,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return types.User{}, err
	}
	user.Wishlist = wishlist
	user.Inventory = inventory
	user.GrowLog = growLog
	user.ProfileComments = profileComments
	return user, nil
}

// mapPqError classifies unique violations by the index that raised them.
func mapPqError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		if strings.Contains(pqErr.Constraint, "email") {
			return ErrDuplicateEmail
		}
		return ErrDuplicateUsername
	}
	return err
}

// PostgresGrowPostRepository persists grow log posts in a Postgres table.
type PostgresGrowPostRepository struct {
	db *sql.DB
}

func NewPostgresGrowPostRepository(db *sql.DB) *PostgresGrowPostRepository {
	return &PostgresGrowPostRepository{db: db}
}

func (r *PostgresGrowPostRepository) Insert(ctx context.Context, post types.GrowPost) (types.GrowPost, error) {
	if _, err := uuid.Parse(post.UserID); err != nil {
		return types.GrowPost{}, ErrInvalidID
	}
	post.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO grow_posts (user_id, text, photo_key, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, post.UserID, post.Text, post.PhotoKey, post.CreatedAt).Scan(&post.ID)
	if err != nil {
		return types.GrowPost{}, err
	}
	return post, nil
}

func (r *PostgresGrowPostRepository) GetByID(ctx context.Context, id string) (types.GrowPost, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.GrowPost{}, ErrInvalidID
	}
	const query = `
		SELECT id, user_id, text, photo_key, created_at
		FROM grow_posts
		WHERE id = $1`
	var post types.GrowPost
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.UserID,
		&post.Text,
		&post.PhotoKey,
		&post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.GrowPost{}, ErrNotFound
		}
		return types.GrowPost{}, err
	}
	return post, nil
}

func (r *PostgresGrowPostRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM grow_posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresGrowPostRepository) ListByUser(ctx context.Context, userID string) ([]types.GrowPost, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrInvalidID
	}
	const query = `
		SELECT id, user_id, text, photo_key, created_at
		FROM grow_posts
		WHERE user_id = $1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []types.GrowPost{}
	for rows.Next() {
		var post types.GrowPost
		if err := rows.Scan(&post.ID, &post.UserID, &post.Text, &post.PhotoKey, &post.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}
