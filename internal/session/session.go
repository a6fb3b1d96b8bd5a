// Package session holds the process-wide signed-in user. It is created
// once at start-up, fed by an auth Provider, and torn down on sign-out
// or shutdown. Request handlers may attach a per-request user that takes
// precedence over the process user.
package session

import (
	"context"
	"errors"
	"sync"

	"midway_hotel/internal/domain"
)

var ErrAlreadyInitialized = errors.New("session: already initialized")

// Provider pushes auth changes. OnAuthChange calls fn once with the
// current user (nil when signed out) and again on every change until the
// returned function is called.
type Provider interface {
	OnAuthChange(fn func(*domain.User)) (unsubscribe func())
}

type Context struct {
	mu    sync.RWMutex
	user  *domain.User
	unsub func()
	subs  map[int]func(*domain.User)
	next  int
}

func New() *Context {
	return &Context{subs: map[int]func(*domain.User){}}
}

// Init subscribes to p. A second Init without Teardown fails.
func (c *Context) Init(p Provider) error {
	c.mu.Lock()
	if c.unsub != nil {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.unsub = func() {}
	c.mu.Unlock()

	unsub := p.OnAuthChange(c.set)

	c.mu.Lock()
	c.unsub = unsub
	c.mu.Unlock()
	return nil
}

// Teardown drops the provider subscription and signs the process out.
// It is safe to call more than once.
func (c *Context) Teardown() {
	c.mu.Lock()
	unsub := c.unsub
	c.unsub = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	c.set(nil)
}

// Subscribe registers fn for user changes.
func (c *Context) Subscribe(fn func(*domain.User)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Context) User() *domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneUser(c.user)
}

// CurrentUser prefers the request user attached with WithUser.
func (c *Context) CurrentUser(ctx context.Context) *domain.User {
	if u := FromContext(ctx); u != nil {
		return u
	}
	return c.User()
}

func (c *Context) set(u *domain.User) {
	c.mu.Lock()
	c.user = cloneUser(u)
	fns := make([]func(*domain.User), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(cloneUser(u))
	}
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, cloneUser(u))
}

func FromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(ctxKey{}).(*domain.User)
	return u
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
