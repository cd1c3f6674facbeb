package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose 令牌用途，不同用途之间不能互相冒用
type Purpose string

const (
	PurposeAccess        Purpose = "access"
	PurposeConfirm       Purpose = "confirm"
	PurposeResetPassword Purpose = "reset-password"
)

var ErrInvalid = errors.New("invalid or expired token")

// Claims 自定义 JWT 载荷
type Claims struct {
	Purpose Purpose `json:"purpose"`
	Email   string  `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Manager 签发/校验 HS256 令牌
type Manager struct {
	secret    []byte
	accessTTL time.Duration
	actionTTL time.Duration
	now       func() time.Time
}

func NewManager(secret string, accessTTL, actionTTL time.Duration) *Manager {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if actionTTL <= 0 {
		actionTTL = time.Hour
	}
	return &Manager{secret: []byte(secret), accessTTL: accessTTL, actionTTL: actionTTL, now: time.Now}
}

// Issue 为用户签发指定用途的令牌
func (m *Manager) Issue(userID string, purpose Purpose, email string) (string, error) {
	ttl := m.actionTTL
	if purpose == PurposeAccess {
		ttl = m.accessTTL
	}
	now := m.now()
	claims := Claims{
		Purpose: purpose,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse 校验签名、过期时间和用途
func (m *Manager) Parse(raw string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !tok.Valid {
		return nil, ErrInvalid
	}
	if claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
