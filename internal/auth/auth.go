package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	config "github.com/mwantia/fdatracker/internal/config/server"
)

var (
	// ErrUnauthenticated means no valid principal was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the principal lacks the required role.
	ErrForbidden = errors.New("insufficient role")
)

type contextKey string

const principalKey contextKey = "principal"

type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string
	Roles   []string
}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.Subject != ""
}

// Require returns the principal of ctx when it holds role.
func Require(ctx context.Context, role string) (Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	if !p.HasRole(role) {
		return p, ErrForbidden
	}
	return p, nil
}

// Authenticator issues and verifies HMAC signed bearer tokens.
type Authenticator struct {
	secret    []byte
	issuer    string
	adminRole string
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthenticator(cfg config.AuthServerConfig) *Authenticator {
	return &Authenticator{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		adminRole: cfg.AdminRole,
		ttl:       config.Duration(cfg.TokenTTL, 12*time.Hour),
		now:       time.Now,
	}
}

func (a *Authenticator) AdminRole() string {
	return a.adminRole
}

// Enabled reports whether a signing secret is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// IssueToken signs a token for subject carrying roles. A zero ttl uses the
// configured token lifetime.
func (a *Authenticator) IssueToken(subject string, roles []string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("auth.secret is not configured")
	}
	if subject == "" {
		return "", fmt.Errorf("token subject is required")
	}
	if ttl <= 0 {
		ttl = a.ttl
	}

	now := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseToken verifies tokenStr and returns the principal it names.
func (a *Authenticator) ParseToken(tokenStr string) (Principal, error) {
	if !a.Enabled() {
		return Principal{}, fmt.Errorf("%w: token verification is disabled", ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	return Principal{Subject: claims.Subject, Roles: claims.Roles}, nil
}
