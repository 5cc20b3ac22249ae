package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the token. Identity resolution looks only in the table the
// role names, so attendee and administrator ids never collide.
const (
	RoleAttendee = "ATTENDEE"
	RoleAdmin    = "ADMIN"
)

// ErrExpired is returned for well-formed tokens past their expiry
var ErrExpired = errors.New("token expired")

// Claims represents JWT claims structure
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin checks if the claims belong to an administrator
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Manager issues and validates HS256 session tokens
type Manager struct {
	secretKey  []byte
	expiration time.Duration
	now        func() time.Time
}

// NewManager creates a token manager. Tokens expire after ttl (7 days by default).
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{secretKey: []byte(secret), expiration: ttl, now: time.Now}
}

// GenerateToken generates a JWT token for a user
func (m *Manager) GenerateToken(userID int64, email, role string) (string, error) {
	if role != RoleAttendee && role != RoleAdmin {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := m.now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%s:%d", role, userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// ValidateToken validates a JWT token and returns claims
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secretKey, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.Role != RoleAttendee && claims.Role != RoleAdmin {
			return nil, errors.New("invalid role")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
