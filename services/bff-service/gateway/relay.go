package gateway

import (
	"errors"
	"sync"

	"github.com/yashrajoria/storefront/services/bff-service/checkout"
)

var (
	ErrSessionNotFound = errors.New("no open payment session for this order")
	ErrAlreadyResolved = errors.New("payment session already resolved")
	ErrProofMismatch   = errors.New("payment proof is for a different order")
)

// Session is one open payment widget. It resolves exactly once, through
// whichever of OnSuccess, OnDismiss or OnError is called first.
type Session struct {
	GatewayOrderID string
	Owner          string

	once   sync.Once
	done   chan struct{}
	result checkout.CollectResult
}

func newSession(gatewayOrderID, owner string) *Session {
	return &Session{GatewayOrderID: gatewayOrderID, Owner: owner, done: make(chan struct{})}
}

func (s *Session) resolve(r checkout.CollectResult) bool {
	resolved := false
	s.once.Do(func() {
		s.result = r
		close(s.done)
		resolved = true
	})
	return resolved
}

// OnSuccess reports false if the session had already resolved.
func (s *Session) OnSuccess(proof checkout.PaymentProof) bool {
	return s.resolve(checkout.CollectResult{Kind: checkout.CollectSuccess, Proof: proof})
}

func (s *Session) OnDismiss() bool {
	return s.resolve(checkout.CollectResult{Kind: checkout.CollectCancelled})
}

func (s *Session) OnError(reason string) bool {
	if reason == "" {
		reason = "payment widget reported an error"
	}
	return s.resolve(checkout.CollectResult{Kind: checkout.CollectError, Reason: reason})
}

// Done is closed once the session resolves.
func (s *Session) Done() <-chan struct{} { return s.done }

// Result is valid after Done is closed.
func (s *Session) Result() checkout.CollectResult {
	<-s.done
	return s.result
}

// Relay routes widget callbacks arriving over HTTP to the waiting session.
type Relay struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRelay() *Relay {
	return &Relay{sessions: make(map[string]*Session)}
}

// Open returns the session for gatewayOrderID, creating it if needed.
func (r *Relay) Open(gatewayOrderID, owner string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[gatewayOrderID]; ok {
		return s
	}
	s := newSession(gatewayOrderID, owner)
	r.sessions[gatewayOrderID] = s
	return s
}

// Close forgets s. A newer session under the same id is left alone.
func (r *Relay) Close(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.GatewayOrderID]; ok && cur == s {
		delete(r.sessions, s.GatewayOrderID)
	}
}

// Lookup finds the open session of owner. Sessions of other shoppers are
// reported as not found.
func (r *Relay) Lookup(gatewayOrderID, owner string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[gatewayOrderID]
	if !ok || s.Owner != owner {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Success delivers a proof from the widget.
func (r *Relay) Success(gatewayOrderID, owner string, proof checkout.PaymentProof) error {
	if proof.GatewayOrderID != gatewayOrderID {
		return ErrProofMismatch
	}
	s, err := r.Lookup(gatewayOrderID, owner)
	if err != nil {
		return err
	}
	if !s.OnSuccess(proof) {
		return ErrAlreadyResolved
	}
	return nil
}

func (r *Relay) Dismiss(gatewayOrderID, owner string) error {
	s, err := r.Lookup(gatewayOrderID, owner)
	if err != nil {
		return err
	}
	if !s.OnDismiss() {
		return ErrAlreadyResolved
	}
	return nil
}

func (r *Relay) Fail(gatewayOrderID, owner, reason string) error {
	s, err := r.Lookup(gatewayOrderID, owner)
	if err != nil {
		return err
	}
	if !s.OnError(reason) {
		return ErrAlreadyResolved
	}
	return nil
}
