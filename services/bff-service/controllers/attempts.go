package controllers

import (
	"context"
	"sync"
	"time"

	"github.com/yashrajoria/storefront/services/bff-service/checkout"
)

// OrchestratorFactory builds the orchestrator of one shopper. observer must
// be installed on it.
type OrchestratorFactory func(owner string, observer checkout.Observer) *checkout.Orchestrator

// attempt pairs a shopper's orchestrator with a change notification that
// HTTP handlers can wait on.
type attempt struct {
	orch *checkout.Orchestrator

	// lastUsed is guarded by Attempts.mu.
	lastUsed time.Time

	// startMu serializes the start handler for one shopper.
	startMu sync.Mutex

	mu      sync.Mutex
	changed chan struct{}
}

func (a *attempt) observe(checkout.Snapshot) {
	a.mu.Lock()
	close(a.changed)
	a.changed = make(chan struct{})
	a.mu.Unlock()
}

func (a *attempt) changes() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.changed
}

// wait blocks until pred holds for the current snapshot or ctx is done.
func (a *attempt) wait(ctx context.Context, pred func(checkout.Snapshot) bool) (checkout.Snapshot, bool) {
	for {
		ch := a.changes()
		snap := a.orch.Snapshot()
		if pred(snap) {
			return snap, true
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return a.orch.Snapshot(), false
		}
	}
}

// attemptIdleTTL is how long a finished attempt stays visible to
// GET /bff/checkout before its orchestrator is dropped.
const attemptIdleTTL = 30 * time.Minute

// Attempts keeps one orchestrator per shopper. Orchestrators that are not
// running and have not been touched for the idle TTL are evicted.
type Attempts struct {
	mu        sync.Mutex
	factory   OrchestratorFactory
	byOwner   map[string]*attempt
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewAttempts(factory OrchestratorFactory) *Attempts {
	return &Attempts{
		factory: factory,
		byOwner: make(map[string]*attempt),
		idle:    attemptIdleTTL,
		now:     time.Now,
	}
}

func (a *Attempts) get(owner string) (*attempt, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	at, ok := a.byOwner[owner]
	if ok {
		at.lastUsed = a.now()
	}
	return at, ok
}

func (a *Attempts) forOwner(owner string) *attempt {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	a.sweep(now)
	if at, ok := a.byOwner[owner]; ok {
		at.lastUsed = now
		return at
	}
	at := &attempt{changed: make(chan struct{}), lastUsed: now}
	at.orch = a.factory(owner, at.observe)
	a.byOwner[owner] = at
	return at
}

// sweep runs at most once per idle period. Callers hold a.mu.
func (a *Attempts) sweep(now time.Time) {
	if now.Sub(a.lastSweep) < a.idle {
		return
	}
	a.lastSweep = now
	for owner, at := range a.byOwner {
		if now.Sub(at.lastUsed) >= a.idle && !at.orch.Running() {
			delete(a.byOwner, owner)
		}
	}
}

// Len returns the number of tracked shoppers.
func (a *Attempts) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byOwner)
}
