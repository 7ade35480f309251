package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var tokenSecret []byte

func InitTokenSecret(secret string) {
	if secret == "" {
		panic("session secret is empty")
	}
	tokenSecret = []byte(secret)
}

// GenerateSessionToken signs the session ID into the cookie value. The
// session record in the store stays authoritative; the token only makes
// the cookie tamper-evident.
func GenerateSessionToken(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now().Unix()
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": now,
		"nbf": now,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tokenSecret)
}

// ParseSessionToken returns the session ID carried by a cookie value.
func ParseSessionToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return tokenSecret, nil
	})

	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := time.Now().Unix()
	if exp, ok := claims["exp"].(float64); ok {
		if int64(exp) < now {
			return "", errors.New("token expired")
		}
	}
	if nbf, ok := claims["nbf"].(float64); ok {
		if int64(nbf) > now {
			return "", errors.New("token not valid yet")
		}
	}

	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("sid not found")
	}

	return sid, nil
}
