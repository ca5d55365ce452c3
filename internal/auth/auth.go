// internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"medeasy-api-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTClaims defines the payload for the JWT. The subject is the user id.
type JWTClaims struct {
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	PartyID string      `json:"partyId,omitempty"`
	jwt.RegisteredClaims
}

// Manager hashes passwords and issues and verifies tokens.
type Manager struct {
	secret     []byte
	expiration time.Duration
	cost       int
	now        func() time.Time
}

func NewManager(secret string, expiration time.Duration, bcryptCost int) *Manager {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Manager{
		secret:     []byte(secret),
		expiration: expiration,
		cost:       bcryptCost,
		now:        time.Now,
	}
}

// Hashing
func (m *Manager) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	return string(bytes), err
}

func (m *Manager) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// JWT Generation
func (m *Manager) GenerateJWT(u *models.User) (string, error) {
	now := m.now()
	claims := &JWTClaims{
		Email:   u.Email,
		Role:    u.Role,
		PartyID: u.PartyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseJWT verifies signature, algorithm and expiry.
func (m *Manager) ParseJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
