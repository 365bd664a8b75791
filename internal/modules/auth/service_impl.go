package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/soko-dev/fulfillment-backend/internal/modules/user"
)

type claims struct {
	jwt.StandardClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

type service struct {
	userRepo user.Repository
	secret   []byte
}

// NewService creates a new auth service signing tokens with secret.
func NewService(userRepo user.Repository, secret string) Service {
	return &service{userRepo: userRepo, secret: []byte(secret)}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	expirationTime := time.Now().Add(24 * time.Hour)
	c := &claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.String(),
			ExpiresAt: expirationTime.Unix(),
		},
		Name: u.FullName,
		Role: u.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
