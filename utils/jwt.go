package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const AdminRole = "admin"

var (
	ErrMissingSecret = errors.New("session secret is not configured")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// SessionClaims is the access token shape issued by the hosted backend. The
// role may sit in user_metadata, app_metadata or at the top level.
type SessionClaims struct {
	Email        string                 `json:"email,omitempty"`
	Role         string                 `json:"role,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	AppMetadata  map[string]interface{} `json:"app_metadata,omitempty"`
	jwt.RegisteredClaims
}

// Session is the normalised view of an authenticated caller. Role is the
// single canonical role claim, nil when none of the claim locations has one.
type Session struct {
	UserID      string  `json:"user_id"`
	Email       string  `json:"email"`
	Role        *string `json:"role"`
	AccessToken string  `json:"-"`
}

// ParseSession verifies an HS256 access token and normalises its role claim.
func ParseSession(tokenString string, secret []byte) (*Session, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return &Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		Role:        normalizeRole(claims),
		AccessToken: tokenString,
	}, nil
}

// normalizeRole checks user_metadata, then app_metadata, then the top-level
// role claim and returns the first non-empty string found.
func normalizeRole(claims *SessionClaims) *string {
	for _, meta := range []map[string]interface{}{claims.UserMetadata, claims.AppMetadata} {
		if role, ok := meta["role"].(string); ok && role != "" {
			return &role
		}
	}
	if claims.Role != "" {
		role := claims.Role
		return &role
	}
	return nil
}

// IsAdmin reports whether the session carries exactly the admin role.
// A missing session or role is never admin.
func IsAdmin(session *Session) bool {
	if session == nil || session.Role == nil {
		return false
	}
	return *session.Role == AdminRole
}

// GenerateToken signs an access token in the hosted backend's format. The
// service never issues tokens itself; this backs tests and local tooling.
func GenerateToken(secret []byte, userID string, claims SessionClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    "eastatwest-backend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
