package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Permissions carried in access tokens
const (
	PermissionLedgerRead   = "ledger:read"
	PermissionLedgerWrite  = "ledger:write"
	PermissionLedgerAdjust = "ledger:adjust"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingOperator  = errors.New("missing operator_id in claims")
)

// Claims are the ledger access token claims. Tokens are issued by the
// identity service; this package validates them and mints tokens for tooling.
type Claims struct {
	jwt.RegisteredClaims
	TenantID    string   `json:"tenant_id"`
	OperatorID  string   `json:"operator_id"`
	Username    string   `json:"username,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// TenantUUID parses the tenant claim
func (c *Claims) TenantUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.TenantID)
	if err != nil {
		return uuid.Nil, ErrInvalidClaims
	}
	return id, nil
}

// OperatorUUID parses the operator claim
func (c *Claims) OperatorUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.OperatorID)
	if err != nil {
		return uuid.Nil, ErrInvalidClaims
	}
	return id, nil
}

// HasPermission reports whether the token grants perm
func (c *Claims) HasPermission(perm string) bool {
	return slices.Contains(c.Permissions, perm)
}

// JWTService validates and issues HS256 access tokens
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService creates a service from configuration
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// TokenInput describes a token to mint
type TokenInput struct {
	TenantID    uuid.UUID
	OperatorID  uuid.UUID
	Username    string
	Permissions []string
	TTL         time.Duration
}

// GenerateAccessToken signs a token for input
func (s *JWTService) GenerateAccessToken(input TokenInput) (string, time.Time, error) {
	now := time.Now()
	ttl := input.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.OperatorID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID:    input.TenantID.String(),
		OperatorID:  input.OperatorID.String(),
		Username:    input.Username,
		Permissions: input.Permissions,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies signature, time claims, issuer and the ledger claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if claims.OperatorID == "" {
		return nil, ErrMissingOperator
	}
	if _, err := claims.TenantUUID(); err != nil {
		return nil, err
	}
	if _, err := claims.OperatorUUID(); err != nil {
		return nil, err
	}
	return claims, nil
}
