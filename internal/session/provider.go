// Package session holds the ambient auth session state every view reads:
// the current user and a loading flag that is true only while the
// initial session is being resolved. The provider is constructed once
// and injected rather than exposed as a package global, so tests can
// substitute a fake auth client.
package session

import (
	"context"
	"sync"

	"github.com/eventexplorer/eventexplorer-go/internal/model"
)

// AuthClient is the slice of the hosted auth service the provider needs.
type AuthClient interface {
	Verify(token string) (model.User, error)
	SignOut(ctx context.Context, token string) error
}

// Change announces a session transition to subscribers. User is the
// session user after the transition (nil when signed out); Prev is the
// user before it.
type Change struct {
	User *model.User
	Prev *model.User
}

// Provider owns the process-wide session state.
type Provider struct {
	auth AuthClient

	mu      sync.Mutex
	user    *model.User
	loading bool
	subs    map[int]chan Change
	nextSub int
}

// NewProvider creates a provider in the loading state. Resolve must be
// called once with the stored token (possibly empty) to complete
// initial session resolution.
func NewProvider(auth AuthClient) *Provider {
	return &Provider{
		auth:    auth,
		loading: true,
		subs:    make(map[int]chan Change),
	}
}

// Current returns the signed-in user (nil when signed out) and whether
// initial resolution is still in progress. Views render a placeholder
// while loading, the signed-out UI when the user is nil, and the
// authenticated UI otherwise.
func (p *Provider) Current() (*model.User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user, p.loading
}

// Resolve completes session resolution for the given token. An empty or
// invalid token resolves to the signed-out state, not an error.
func (p *Provider) Resolve(token string) {
	var user *model.User
	if token != "" {
		if u, err := p.auth.Verify(token); err == nil {
			user = &u
		}
	}

	p.mu.Lock()
	prev := p.user
	p.user = user
	p.loading = false
	p.notifyLocked(prev)
	p.mu.Unlock()
}

// SignIn publishes a newly authenticated user.
func (p *Provider) SignIn(user model.User) {
	p.mu.Lock()
	prev := p.user
	p.user = &user
	p.loading = false
	p.notifyLocked(prev)
	p.mu.Unlock()
}

// Clear drops the local session without contacting the hosted service.
func (p *Provider) Clear() {
	p.mu.Lock()
	prev := p.user
	p.user = nil
	p.loading = false
	p.notifyLocked(prev)
	p.mu.Unlock()
}

// SignOut revokes the session with the hosted service and clears the
// local session. When the remote call fails the local session is left
// untouched and the error propagates; the caller must not assume the
// session was cleared.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if err := p.auth.SignOut(ctx, token); err != nil {
		return err
	}
	p.Clear()
	return nil
}

// Subscribe registers for session-change notifications. Delivery is
// non-blocking; a departed subscriber has changes discarded. The cancel
// func unregisters and closes the channel.
func (p *Provider) Subscribe() (<-chan Change, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	ch := make(chan Change, 4)
	p.subs[id] = ch

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (p *Provider) notifyLocked(prev *model.User) {
	for _, ch := range p.subs {
		select {
		case ch <- Change{User: p.user, Prev: prev}:
		default:
		}
	}
}
