package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"midway_hotel/internal/domain"
)

type claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// JWTVerifier issues and checks HS256 access tokens.
type JWTVerifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTVerifier(secret, issuer string, ttl time.Duration) *JWTVerifier {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

func (v *JWTVerifier) Issue(u domain.User, now time.Time) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
		Name: u.Name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}

// Verify returns the token's user; every failure wraps ErrUnauthorized.
func (v *JWTVerifier) Verify(raw string) (*domain.User, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", domain.ErrUnauthorized)
	}
	var c claims
	opts := []jwt.ParserOption{jwt.WithLeeway(30 * time.Second), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrUnauthorized)
	}
	return &domain.User{ID: c.Subject, Name: c.Name}, nil
}

// TokenProvider is a Provider driven by sign-in tokens, for processes
// that act on behalf of a single user (the batch CLI).
type TokenProvider struct {
	v *JWTVerifier

	mu        sync.Mutex
	user      *domain.User
	listeners map[int]func(*domain.User)
	next      int
}

func NewTokenProvider(v *JWTVerifier) *TokenProvider {
	return &TokenProvider{v: v, listeners: map[int]func(*domain.User){}}
}

func (p *TokenProvider) OnAuthChange(fn func(*domain.User)) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.listeners[id] = fn
	u := cloneUser(p.user)
	p.mu.Unlock()

	fn(u)
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *TokenProvider) SignIn(token string) error {
	u, err := p.v.Verify(token)
	if err != nil {
		return err
	}
	p.notify(u)
	return nil
}

func (p *TokenProvider) SignOut() { p.notify(nil) }

func (p *TokenProvider) notify(u *domain.User) {
	p.mu.Lock()
	p.user = u
	fns := make([]func(*domain.User), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(cloneUser(u))
	}
}
