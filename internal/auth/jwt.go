// Package auth issues and validates the HS256 access tokens the API accepts.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"cedrus/internal/domain"
	dErrors "cedrus/pkg/domain-errors"
)

// Claims carries the actor's identity. Subject is the user ID.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles token creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
}

func NewJWTService(signingKey, issuer string) *JWTService {
	return &JWTService{signingKey: []byte(signingKey), issuer: issuer}
}

func (s *JWTService) GenerateAccessToken(user domain.User, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies the token, returning the actor it names.
func (s *JWTService) ValidateToken(tokenString string) (domain.User, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.User{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return domain.User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return domain.User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	return domain.User{ID: userID, Name: claims.Name, Email: claims.Email}, nil
}
