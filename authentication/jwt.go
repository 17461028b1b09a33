package authentication

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errInvalidToken = errors.New("invalid token")
	errExpiredToken = errors.New("token has expired")
)

type claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// createToken generates a new JWT token for the session
func (s *Session) createToken(expirationTime time.Duration) error {
	if s.User == nil {
		return errors.New("session user not set")
	}

	now := time.Now()
	claims := claims{
		UserID:    s.User.ID,
		SessionID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.User.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expirationTime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.SecretKey)
	if err != nil {
		return err
	}

	s.Token = tokenString
	s.ExpiresAt = now.Add(expirationTime)
	return nil
}

// parseToken validates and parses the JWT token
func (s *Session) parseToken() (*claims, error) {
	token, err := jwt.ParseWithClaims(s.Token, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return s.SecretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errExpiredToken
		}
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(*claims)
	if !ok || !token.Valid || claims.UserID == "" || claims.SessionID == "" {
		return nil, errInvalidToken
	}

	return claims, nil
}

// UpdateLastUsed records when and from where the session was last used
func (s *Session) UpdateLastUsed(client Client) {
	s.LastUsedAt = time.Now()
	s.LastUsedIP = client.IP
	s.LastUsedLoc = client.Location
	s.UserAgent = client.UserAgent
}
