package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager signs and validates session tokens
type JWTManager struct {
	Secret []byte
	TTL    time.Duration
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		Secret: []byte(secret),
		TTL:    ttl,
	}
}

// Claims carries the principal snapshot taken at login.
type Claims struct {
	UserID      int64    `json:"uid"`
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	Authorities []string `json:"auth"`
	SessionID   string   `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateToken signs claims with the configured TTL and returns the expiry.
func (m *JWTManager) GenerateToken(claims Claims) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.TTL)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        claims.SessionID,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

func (m *JWTManager) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
