package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/srthuanan/stockhold/internal/clock"
	"github.com/srthuanan/stockhold/internal/domain"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConsultantNotFound = errors.New("consultant not found")
)

// ConsultantStore looks up dealership logins.
type ConsultantStore interface {
	GetConsultant(ctx context.Context, username string) (domain.Consultant, error)
}

// Service issues and verifies the signed tokens that carry consultant
// identity into every engine call.
type Service struct {
	store    ConsultantStore
	secret   []byte
	tokenTTL time.Duration
	clock    clock.Clock
}

func NewService(store ConsultantStore, secret string, tokenTTL time.Duration, clk clock.Clock) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		clock:    clk,
	}
}

// HashPassword hashes a password with bcrypt for storage.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

// Login checks credentials and returns a signed token for the consultant.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	c, err := s.store.GetConsultant(ctx, username)
	if err != nil {
		if errors.Is(err, ErrConsultantNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := s.clock.Now()
	claims := jwt.MapClaims{
		"sub":  c.Username,
		"role": string(c.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a bearer token and returns the actor it identifies.
func (s *Service) VerifyToken(tokenString string) (domain.Actor, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return domain.Actor{}, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !token.Valid {
		return domain.Actor{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Actor{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return domain.Actor{}, ErrInvalidToken
	}

	return domain.Actor{
		Name:  sub,
		Admin: domain.Role(role) == domain.RoleAdmin,
	}, nil
}
