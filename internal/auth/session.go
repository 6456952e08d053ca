package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/hkdf"

	"github.com/littlequestion/littlequestion/internal/model"
)

const (
	// DefaultIssuer is the iss claim of every session token.
	DefaultIssuer = "littlequestion"

	sessionKeyInfo = "littlequestion session signing key"
	sessionKeySize = 32
)

var (
	// ErrInvalidSession indicates a token that is malformed, expired or forged.
	ErrInvalidSession = errors.New("invalid session token")
	// ErrEmptySession indicates no token was presented.
	ErrEmptySession = errors.New("session token is empty")
)

// sessionClaims extends standard JWT claims with the profile shown to clients.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// SessionManager issues and validates signed session tokens.
type SessionManager struct {
	key    []byte
	issuer string
	maxAge time.Duration
	now    func() time.Time
}

// NewSessionManager derives the signing key from secret with HKDF-SHA256.
func NewSessionManager(secret string, maxAge time.Duration) (*SessionManager, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}

	key := make([]byte, sessionKeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(sessionKeyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}

	return &SessionManager{
		key:    key,
		issuer: DefaultIssuer,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

// MaxAge returns the lifetime of issued tokens.
func (m *SessionManager) MaxAge() time.Duration {
	return m.maxAge
}

// Issue creates a signed HS256 token for the user.
func (m *SessionManager) Issue(user *model.User) (string, *Identity, error) {
	now := m.now().Truncate(time.Second)
	id := &Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Image:     user.Image,
		SessionID: ulid.Make().String(),
		ExpiresAt: now.Add(m.maxAge),
	}

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    m.issuer,
			ID:        id.SessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(id.ExpiresAt),
		},
		Email:   id.Email,
		Name:    id.Name,
		Picture: id.Image,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}

	return signed, id, nil
}

// Parse validates a token and returns the identity it carries.
func (m *SessionManager) Parse(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrEmptySession
	}

	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.key, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Email == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing email or jti", ErrInvalidSession)
	}

	return &Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Image:     claims.Picture,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
