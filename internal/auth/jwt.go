package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTAuthenticator struct {
	secret        string
	refreshSecret string
	iss           string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewJWTAuthenticator(secret, refreshSecret, iss string, accessTTL, refreshTTL time.Duration) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret:        secret,
		refreshSecret: refreshSecret,
		iss:           iss,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// GenerateTokens issues the access/refresh pair for a player. The subject
// is the player's public id; internal ids never leave the server.
func (a *JWTAuthenticator) GenerateTokens(playerPublicID string) (string, string, error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"sub": playerPublicID,
		"exp": now.Add(a.accessTTL).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"iss": a.iss,
		"aud": a.iss,
	}
	refreshClaims := jwt.MapClaims{
		"sub": playerPublicID,
		"exp": now.Add(a.refreshTTL).Unix(),
		"iat": now.Unix(),
		"iss": a.iss,
	}

	access, err := a.sign(accessClaims, a.secret)
	if err != nil {
		return "", "", err
	}
	refresh, err := a.sign(refreshClaims, a.refreshSecret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (a *JWTAuthenticator) sign(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *JWTAuthenticator) ValidateAccessToken(token string) (*jwt.Token, error) {
	return a.validate(token, a.secret)
}

func (a *JWTAuthenticator) ValidateRefreshToken(token string) (*jwt.Token, error) {
	return a.validate(token, a.refreshSecret)
}

func (a *JWTAuthenticator) validate(token, secret string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
}
