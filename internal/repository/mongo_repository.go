package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"authgate/api/internal/models"
)

const (
	UsersCollection    = "users"
	SessionsCollection = "user_sessions"
)

type userDocument struct {
	UserID       string     `bson:"user_id"`
	Email        string     `bson:"email"`
	Password     *string    `bson:"password"`
	Name         string     `bson:"name"`
	Role         string     `bson:"role"`
	Picture      *string    `bson:"picture"`
	AuthProvider string     `bson:"auth_provider"`
	GoogleID     *string    `bson:"google_id,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
	LastLogin    *time.Time `bson:"last_login,omitempty"`
}

func newUserDocument(u models.User) userDocument {
	doc := userDocument{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		Picture:      u.Picture,
		AuthProvider: string(u.AuthProvider),
		GoogleID:     u.GoogleID,
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
	}
	if u.PasswordHash != nil {
		hash := string(u.PasswordHash)
		doc.Password = &hash
	}
	return doc
}

func (d userDocument) model() models.User {
	u := models.User{
		ID:           d.UserID,
		Email:        d.Email,
		Name:         d.Name,
		Role:         models.UserRole(d.Role),
		Picture:      d.Picture,
		AuthProvider: models.AuthProvider(d.AuthProvider),
		GoogleID:     d.GoogleID,
		CreatedAt:    d.CreatedAt,
		LastLogin:    d.LastLogin,
	}
	if d.Password != nil {
		u.PasswordHash = []byte(*d.Password)
	}
	return u
}

type sessionDocument struct {
	UserID       string    `bson:"user_id"`
	SessionToken string    `bson:"session_token"`
	ExpiresAt    time.Time `bson:"expires_at"`
	CreatedAt    time.Time `bson:"created_at"`
}

// MongoUserRepository stores users as documents keyed by user_id with a
// unique index on email.
type MongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{users: db.Collection(UsersCollection)}
}

var _ UserStore = (*MongoUserRepository)(nil)

var publicProjection = bson.M{"_id": 0, "password": 0}

func (r *MongoUserRepository) Create(ctx context.Context, user models.User) error {
	_, err := r.users.InsertOne(ctx, newUserDocument(user))
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, options.FindOne().SetProjection(publicProjection))
}

func (r *MongoUserRepository) FindCredentialsByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, options.FindOne().SetProjection(bson.M{"_id": 0}))
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, bson.M{"user_id": id}, options.FindOne().SetProjection(publicProjection))
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptionsBuilder) (models.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return doc.model(), nil
}

func (r *MongoUserRepository) UpdateByEmail(ctx context.Context, email string, update models.UserUpdate) error {
	return r.update(ctx, bson.M{"email": email}, update)
}

func (r *MongoUserRepository) UpdateByID(ctx context.Context, id string, update models.UserUpdate) error {
	return r.update(ctx, bson.M{"user_id": id}, update)
}

func (r *MongoUserRepository) update(ctx context.Context, filter bson.M, update models.UserUpdate) error {
	if update.Empty() {
		return nil
	}

	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Picture != nil {
		set["picture"] = *update.Picture
	}
	if update.GoogleID != nil {
		set["google_id"] = *update.GoogleID
	}
	if update.AuthProvider != nil {
		set["auth_provider"] = string(*update.AuthProvider)
	}
	if update.LastLogin != nil {
		set["last_login"] = *update.LastLogin
	}

	res, err := r.users.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

type MongoSessionRepository struct {
	sessions *mongo.Collection
}

func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{sessions: db.Collection(SessionsCollection)}
}

var _ SessionStore = (*MongoSessionRepository)(nil)

func (r *MongoSessionRepository) UpsertForUser(ctx context.Context, session models.Session) error {
	_, err := r.sessions.UpdateOne(ctx,
		bson.M{"user_id": session.UserID},
		bson.M{"$set": bson.M{
			"session_token": session.SessionToken,
			"expires_at":    session.ExpiresAt,
			"created_at":    session.CreatedAt,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (r *MongoSessionRepository) FindByToken(ctx context.Context, token string) (models.Session, error) {
	var doc sessionDocument
	err := r.sessions.FindOne(ctx,
		bson.M{"session_token": token},
		options.FindOne().SetProjection(bson.M{"_id": 0}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return models.Session{
		UserID:       doc.UserID,
		SessionToken: doc.SessionToken,
		ExpiresAt:    doc.ExpiresAt,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (r *MongoSessionRepository) DeleteByToken(ctx context.Context, token string) error {
	res, err := r.sessions.DeleteOne(ctx, bson.M{"session_token": token})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}
