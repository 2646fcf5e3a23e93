package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pepperswap/apiserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection     = "users"
	growPostsCollection = "grow_posts"

	usernameIndexName = "username_lc_unique"
	emailIndexName    = "email_lc_unique"
)

// MongoUserRepository persists users in a MongoDB collection.
// Case-insensitive uniqueness rides on lowercase shadow fields carrying
// unique indexes, so concurrent inserts are guarded by the database and
// not by the service-level pre-checks.
type MongoUserRepository struct {
	users *mongo.Collection
}

// userDoc is the stored shape of a user. The shadow fields username_lc
// and email_lc exist only for the unique indexes and case-insensitive
// exact lookups; they are never exposed.
type userDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Moderator       bool               `bson:"moderator"`
	Username        string             `bson:"username"`
	UsernameLC      string             `bson:"username_lc"`
	DisplayWishlist bool               `bson:"display_wishlist"`
	HashedPassword  string             `bson:"hashed_password"`
	CountryCode     string             `bson:"country_code"`
	Discord         *string            `bson:"discord,omitempty"`
	Phone           *string            `bson:"phone,omitempty"`
	Email           *string            `bson:"email,omitempty"`
	EmailLC         *string            `bson:"email_lc,omitempty"`
	Wishlist        []string           `bson:"wishlist"`
	Inventory       []string           `bson:"inventory"`
	AvgRating       float64            `bson:"avg_rating"`
	GrowLog         []string           `bson:"grow_log"`
	ProfileComments []string           `bson:"profile_comments"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{users: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique indexes that back the case-insensitive
// uniqueness invariants. The email index is sparse because email is optional.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username_lc", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(usernameIndexName),
		},
		{
			Keys:    bson.D{{Key: "email_lc", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName(emailIndexName),
		},
	})
	return err
}

func (r *MongoUserRepository) Insert(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	doc := userDoc{
		Moderator:       user.Moderator,
		Username:        user.Username,
		UsernameLC:      strings.ToLower(user.Username),
		DisplayWishlist: user.DisplayWishlist,
		HashedPassword:  user.HashedPassword,
		CountryCode:     user.CountryCode,
		Discord:         user.Discord,
		Phone:           user.Phone,
		Email:           user.Email,
		Wishlist:        user.Wishlist,
		Inventory:       user.Inventory,
		AvgRating:       user.AvgRating,
		GrowLog:         user.GrowLog,
		ProfileComments: user.ProfileComments,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if user.Email != nil {
		lc := strings.ToLower(*user.Email)
		doc.EmailLC = &lc
	}

	result, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), emailIndexName) {
				return types.User{}, ErrDuplicateEmail
			}
			return types.User{}, ErrDuplicateUsername
		}
		return types.User{}, err
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return types.User{}, errors.New("insert not acknowledged")
	}
	doc.ID = oid
	return doc.toUser(), nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.User{}, ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return r.findOne(ctx, bson.M{"username_lc": strings.ToLower(username)})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.findOne(ctx, bson.M{"email_lc": strings.ToLower(email)})
}

func (r *MongoUserRepository) List(ctx context.Context) ([]types.User, error) {
	cursor, err := r.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]types.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toUser())
	}
	return users, nil
}

func (r *MongoUserRepository) AppendGrowLog(ctx context.Context, userID, postID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrInvalidID
	}
	result, err := r.users.UpdateByID(ctx, oid, bson.M{
		"$push": bson.M{"grow_log": postID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (types.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return doc.toUser(), nil
}

func (d userDoc) toUser() types.User {
	return types.User{
		ID:              d.ID.Hex(),
		Moderator:       d.Moderator,
		Username:        d.Username,
		DisplayWishlist: d.DisplayWishlist,
		HashedPassword:  d.HashedPassword,
		CountryCode:     d.CountryCode,
		Discord:         d.Discord,
		Phone:           d.Phone,
		Email:           d.Email,
		Wishlist:        d.Wishlist,
		Inventory:       d.Inventory,
		AvgRating:       d.AvgRating,
		GrowLog:         d.GrowLog,
		ProfileComments: d.ProfileComments,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// MongoGrowPostRepository persists grow log posts in a MongoDB collection.
type MongoGrowPostRepository struct {
	posts *mongo.Collection
}

type growPostDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Text      string             `bson:"text"`
	PhotoKey  string             `bson:"photo_key,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func NewMongoGrowPostRepository(db *mongo.Database) *MongoGrowPostRepository {
	return &MongoGrowPostRepository{posts: db.Collection(growPostsCollection)}
}

// EnsureIndexes creates the listing index for per-user post queries.
func (r *MongoGrowPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

func (r *MongoGrowPostRepository) Insert(ctx context.Context, post types.GrowPost) (types.GrowPost, error) {
	oid, err := primitive.ObjectIDFromHex(post.UserID)
	if err != nil {
		return types.GrowPost{}, ErrInvalidID
	}
	doc := growPostDoc{
		UserID:    oid,
		Text:      post.Text,
		PhotoKey:  post.PhotoKey,
		CreatedAt: time.Now().UTC(),
	}
	result, err := r.posts.InsertOne(ctx, doc)
	if err != nil {
		return types.GrowPost{}, err
	}
	postID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return types.GrowPost{}, errors.New("insert not acknowledged")
	}
	doc.ID = postID
	return doc.toGrowPost(), nil
}

func (r *MongoGrowPostRepository) GetByID(ctx context.Context, id string) (types.GrowPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.GrowPost{}, ErrInvalidID
	}
	var doc growPostDoc
	if err := r.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.GrowPost{}, ErrNotFound
		}
		return types.GrowPost{}, err
	}
	return doc.toGrowPost(), nil
}

func (r *MongoGrowPostRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	result, err := r.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoGrowPostRepository) ListByUser(ctx context.Context, userID string) ([]types.GrowPost, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.posts.Find(ctx, bson.M{"user_id": oid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []growPostDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	posts := make([]types.GrowPost, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.toGrowPost())
	}
	return posts, nil
}

func (d growPostDoc) toGrowPost() types.GrowPost {
	return types.GrowPost{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Text:      d.Text,
		PhotoKey:  d.PhotoKey,
		CreatedAt: d.CreatedAt,
	}
}
