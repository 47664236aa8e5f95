package service

import (
	"errors"
	"fmt"
	"time"

	"wager-escrow/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

// actorClaims is the JWT payload: sub carries the actor id, role its capability.
type actorClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTTokenService implements ports.TokenService using HS256 JWT.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

// Generate signs a token for actor.
func (s *JWTTokenService) Generate(actor domain.Actor) (string, time.Time, error) {
	if !actor.Valid() {
		return "", time.Time{}, fmt.Errorf("invalid actor %q with role %q", actor.ID, actor.Role)
	}

	now := time.Now()
	expiresAt := now.Add(s.expiry)
	claims := actorClaims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses tokenString and returns the actor it was issued to.
func (s *JWTTokenService) Validate(tokenString string) (*domain.Actor, error) {
	var claims actorClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	actor := domain.Actor{ID: claims.Subject, Role: claims.Role}
	if !actor.Valid() {
		return nil, fmt.Errorf("token carries invalid actor %q with role %q", actor.ID, actor.Role)
	}
	return &actor, nil
}
