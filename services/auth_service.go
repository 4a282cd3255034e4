package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"poi-explorer/models"
	apierrors "poi-explorer/utils/errors"
)

// Register creates a new explorer account and returns its public id.
func (s *UserService) Register(ctx context.Context, username, email, password string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || len(password) < 8 {
		return "", apierrors.ErrInvalidInput.WithDetails("username, email and a password of at least 8 characters are required")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apierrors.Wrap(err, "HASH_ERROR", "failed to hash password", http.StatusInternalServerError)
	}

	user := models.User{
		PublicID:     uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(passwordHash),
	}

	result, err := s.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apierrors.ErrConflict.WithDetails("username or email already registered")
		}
		return "", apierrors.Wrap(err, "DB_ERROR", "failed to create user in database", http.StatusInternalServerError)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}

	s.cacheUser(ctx, user)
	s.logger.Info("registered explorer", zap.String("user", user.PublicID))
	return user.PublicID, nil
}

// Login authenticates a user and returns a signed JWT carrying its public id.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", apierrors.NewAPIError("INVALID_CREDENTIALS", "Invalid username or password", http.StatusUnauthorized)
	}
	if err != nil {
		return "", apierrors.Wrap(err, "DB_ERROR", "failed to look up user", http.StatusInternalServerError)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apierrors.NewAPIError("INVALID_CREDENTIALS", "Invalid username or password", http.StatusUnauthorized)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID":   user.PublicID,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", apierrors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}

	s.cacheUser(ctx, user)
	return tokenString, nil
}
