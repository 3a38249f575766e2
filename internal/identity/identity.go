// Package identity carries the current user context across the vault and
// the persistence stores. A nil identity means nobody is signed in.
package identity

import (
	"context"
	"sync"
)

// DemoID is the sentinel id of the offline demo identity. It only varies
// sign-out behavior, the persistence layer does not special-case it.
const DemoID = "demo-user-id"

// An Identity is the authenticated (or demo) user context gating remote
// operations.
type Identity struct {
	ID    string
	Email string
}

// Demo returns true when the identity is the offline demo escape hatch.
func (i *Identity) Demo() bool {
	return i != nil && i.ID == DemoID
}

// NewDemo returns the demo identity for the given email.
func NewDemo(email string) *Identity {
	return &Identity{ID: DemoID, Email: email}
}

type contextKey struct{}

// WithContext returns a context carrying the given identity.
func WithContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity carried by ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	if !ok {
		return nil
	}
	return id
}

// A Provider supplies the current identity and a change notification
// stream yielding the new identity (nil on sign-out).
type Provider interface {
	// Current returns the current identity, or nil when signed out.
	Current() *Identity
	// Changes returns a stream of identity transitions.
	Changes() <-chan *Identity
}

// Static is a Provider with a fixed identity and no transitions.
type Static struct {
	identity *Identity
}

// NewStatic returns a provider that always reports id.
func NewStatic(id *Identity) *Static {
	return &Static{identity: id}
}

// Current implements Provider.
func (s *Static) Current() *Identity {
	return s.identity
}

// Changes implements Provider. The returned channel never yields.
func (s *Static) Changes() <-chan *Identity {
	return nil
}

// A Notifier is a mutable Provider. Set updates the current identity and
// broadcasts the transition to every subscriber.
type Notifier struct {
	mu          sync.Mutex
	identity    *Identity
	subscribers []chan *Identity
}

// NewNotifier returns an empty (signed-out) notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Current implements Provider.
func (n *Notifier) Current() *Identity {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.identity
}

// Changes implements Provider. Each call registers a new subscriber.
func (n *Notifier) Changes() <-chan *Identity {
	n.mu.Lock()
	defer n.mu.Unlock()

	// Buffered so a slow consumer does not block Set.
	c := make(chan *Identity, 8)
	n.subscribers = append(n.subscribers, c)
	return c
}

// Set updates the current identity and notifies subscribers.
// A nil identity means sign-out.
func (n *Notifier) Set(id *Identity) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.identity = id
	for _, c := range n.subscribers {
		select {
		case c <- id:
		default: // drop rather than block when a subscriber lags
		}
	}
}
