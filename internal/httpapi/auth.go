package httpapi

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"restodash/backend/internal/domain"
)

// AuthManager gates the dashboard behind a single shared PIN. A correct PIN
// yields a bearer token; every other endpoint checks that token.
type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	pinHash  string
}

type dashboardClaims struct {
	jwtlib.RegisteredClaims
}

func NewAuthManager(secret string, tokenTTL time.Duration, pin string) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	pin = strings.TrimSpace(pin)
	if pin == "" {
		pin = "disabled"
	}
	pinHash := pin
	if hashed, err := hashPIN(pin); err == nil {
		pinHash = hashed
	}

	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		pinHash:  pinHash,
	}
}

func (a *AuthManager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	if !a.validatePIN(req.PIN) {
		return domain.LoginResponse{}, errors.New("invalid pin")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &dashboardClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{Subject: sub}, nil
}

func (a *AuthManager) sign(expiresAt time.Time) (string, error) {
	claims := dashboardClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "dashboard",
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "restodash",
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthManager) validatePIN(pin string) bool {
	input := strings.TrimSpace(pin)
	if input == "" || !isPINHash(a.pinHash) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.pinHash), []byte(input)) == nil
}

func hashPIN(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPINHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
