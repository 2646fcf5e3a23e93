package types

import "time"

// User represents a member account in the trading community.
// It contains identity, contact, and trading metadata.
type User struct {
	// ID is the unique identifier of the user, normalized to its
	// printable string form. It is assigned by the store on insertion
	// and never changes afterwards.
	ID string `json:"id" db:"id"`

	// Moderator indicates whether the user has moderation privileges.
	Moderator bool `json:"moderator" db:"moderator"`

	// Username is the unique login name chosen by the user.
	// Uniqueness is enforced ignoring case.
	Username string `json:"username" db:"username"`

	// DisplayWishlist controls whether the user's wishlist is shown
	// on their public profile.
	DisplayWishlist bool `json:"display_wishlist" db:"display_wishlist"`

	// HashedPassword stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	HashedPassword string `json:"-" db:"hashed_password"`

	// CountryCode is the user's ISO 3166-1 alpha-2 country code,
	// normalized to upper case.
	CountryCode string `json:"country_code" db:"country_code"`

	// Discord is the user's Discord handle. Nil when the user did not
	// provide one.
	Discord *string `json:"discord,omitempty" db:"discord"`

	// Phone is the user's phone number. Nil when the user did not
	// provide one.
	Phone *string `json:"phone,omitempty" db:"phone"`

	// Email is the user's email address, normalized to lower case.
	// Nil when the user did not provide one; unique ignoring case
	// when present.
	Email *string `json:"email,omitempty" db:"email"`

	// Wishlist is the ordered list of item identifiers the user wants.
	Wishlist []string `json:"wishlist" db:"wishlist"`

	// Inventory is the ordered list of item identifiers the user owns
	// and offers for trade.
	Inventory []string `json:"inventory" db:"inventory"`

	// AvgRating is the user's average trade rating. New accounts start at 0.
	AvgRating float64 `json:"avg_rating" db:"avg_rating"`

	// GrowLog holds the identifiers of the user's grow log posts,
	// oldest first.
	GrowLog []string `json:"grow_log" db:"grow_log"`

	// ProfileComments holds the identifiers of comments left on the
	// user's profile.
	ProfileComments []string `json:"profile_comments" db:"profile_comments"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WishlistMatch is a directory candidate annotated with how many of their
// inventory items appear on the subject's wishlist. The underlying user
// document is not modified; the count exists only on the returned value.
type WishlistMatch struct {
	User

	// WishlistMatches is the number of the candidate's inventory items
	// present on the subject's wishlist. Duplicate inventory entries
	// count individually.
	WishlistMatches int `json:"wishlist_matches"`
}

// GrowPost is a single entry in a user's grow log.
type GrowPost struct {
	// ID is the unique identifier of the post, in printable string form.
	ID string `json:"id" db:"id"`

	// UserID identifies the author of the post.
	UserID string `json:"user_id" db:"user_id"`

	// Text is the body of the post.
	Text string `json:"text" db:"text"`

	// PhotoKey is the media storage key of the attached photo.
	// Empty when the post has no photo.
	PhotoKey string `json:"photo_key,omitempty" db:"photo_key"`

	// CreatedAt is the timestamp when the post was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
