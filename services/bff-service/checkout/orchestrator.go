// Package checkout drives one shopper's checkout: order submission, payment
// collection through the gateway widget, server-side verification and the
// final cart reconciliation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
)

const clearCartTimeout = 5 * time.Second

// Snapshot is a copy of the orchestrator's observable state.
type Snapshot struct {
	State       State            `json:"state"`
	AttemptID   string           `json:"attemptId,omitempty"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Order       *OrderRef        `json:"order,omitempty"`
	Intent      *PaymentIntent   `json:"intent,omitempty"`
	Payment     *VerifiedPayment `json:"payment,omitempty"`
	ErrorKind   string           `json:"errorKind,omitempty"`
	Error       string           `json:"error,omitempty"`
	UpdatedAt   time.Time        `json:"updatedAt"`

	err error
}

// Err returns the error that ended the attempt, if any.
func (s Snapshot) Err() error { return s.err }

// Outcome is the result of one finished attempt.
type Outcome struct {
	State     State
	AttemptID string
	Order     *OrderRef
	Payment   *VerifiedPayment
}

// Observer is called after every transition with a copy of the new state.
// It runs on the attempt's goroutine and must not block.
type Observer func(Snapshot)

// Options are the optional collaborators of an Orchestrator.
type Options struct {
	Currency string
	Logger   *zap.Logger
	Metrics  awspkg.MetricsRecorder
	Observer Observer
}

// Orchestrator runs checkout attempts for one owner, one at a time.
type Orchestrator struct {
	owner    string
	cart     CartStore
	orders   OrderSubmitter
	gateway  PaymentGateway
	verifier PaymentVerifier

	currency string
	logger   *zap.Logger
	metrics  awspkg.MetricsRecorder
	observer Observer
	newID    func() string
	now      func() time.Time

	mu      sync.Mutex
	snap    Snapshot
	running bool
	cancel  context.CancelFunc
}

func NewOrchestrator(owner string, cart CartStore, orders OrderSubmitter, gateway PaymentGateway, verifier PaymentVerifier, opts Options) *Orchestrator {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Orchestrator{
		owner:    owner,
		cart:     cart,
		orders:   orders,
		gateway:  gateway,
		verifier: verifier,
		currency: opts.Currency,
		logger:   opts.Logger.With(zap.String("owner", owner)),
		metrics:  opts.Metrics,
		observer: opts.Observer,
		newID:    func() string { return uuid.NewString() },
		now:      func() time.Time { return time.Now().UTC() },
		snap:     Snapshot{State: StateIdle, UpdatedAt: time.Now().UTC()},
	}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap.State
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

// Running reports whether an attempt is in flight.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Abandon cancels the in-flight attempt. It reports false when there is none.
func (o *Orchestrator) Abandon() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running || o.cancel == nil {
		return false
	}
	o.cancel()
	return true
}

// Run executes one checkout attempt and returns when it reaches a terminal
// state. The cart is cleared only when payment verifies; every other ending
// leaves it as it was.
//
// Cancelling ctx abandons the attempt.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	o.running = true
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.running = false
		o.cancel = nil
		o.mu.Unlock()
	}()

	cart, err := o.cart.GetCart(ctx)
	if err != nil {
		return nil, &NetworkError{Op: "read cart", Err: err}
	}
	if cart.IsEmpty() {
		o.reset()
		return nil, ErrEmptyCart
	}

	started := o.now()
	attemptID := o.newID()
	fingerprint := Fingerprint(o.owner, cart.Items)
	log := o.logger.With(zap.String("attempt_id", attemptID))

	o.begin(attemptID, fingerprint)
	o.count(ctx, awspkg.MetricCheckoutStarted, "")
	log.Info("Checkout started", zap.Int("items", len(cart.Items)))

	order, err := o.orders.Submit(ctx, o.owner, attemptID, fingerprint, cart.Items)
	if err != nil {
		return o.fail(ctx, log, started, interrupted(ctx, "submit order", err))
	}
	log = log.With(zap.String("order_id", order.ID))

	// The server total is the only amount ever charged.
	intent, err := o.gateway.CreateIntent(ctx, order.ID, order.TotalMinor, o.currency)
	if err != nil {
		return o.fail(ctx, log, started, interrupted(ctx, "create payment intent", err))
	}
	log = log.With(zap.String("gateway_order_id", intent.GatewayOrderID))

	o.transition(StateAwaitingPayment, func(s *Snapshot) {
		s.Order = order
		s.Intent = intent
	})

	result, err := o.gateway.Collect(ctx, intent)
	if err != nil {
		if ctx.Err() != nil {
			return o.cancelled(ctx, log, started, ErrAbandoned)
		}
		return o.fail(ctx, log, started, asGatewayError(err))
	}

	switch result.Kind {
	case CollectCancelled:
		return o.cancelled(ctx, log, started, ErrUserCancelled)
	case CollectError:
		return o.fail(ctx, log, started, &GatewayError{Reason: result.Reason})
	case CollectSuccess:
	default:
		return o.fail(ctx, log, started, &GatewayError{Reason: fmt.Sprintf("unknown widget result %q", result.Kind)})
	}

	o.transition(StateVerifying, nil)

	payment, err := o.verifier.Verify(ctx, order.ID, result.Proof)
	if err != nil {
		var sigErr *SignatureMismatchError
		if errors.As(err, &sigErr) {
			log.Warn("Payment proof rejected; possible tampering",
				zap.String("gateway_payment_id", result.Proof.GatewayPaymentID))
		}
		return o.fail(ctx, log, started, interrupted(ctx, "verify payment", err))
	}

	// Payment is final from here on, so the cart is cleared even if the
	// caller has gone away.
	clearCtx, cancelClear := context.WithTimeout(context.WithoutCancel(ctx), clearCartTimeout)
	if err := o.cart.ClearCart(clearCtx); err != nil {
		log.Error("Failed to clear cart after payment", zap.Error(err))
	}
	cancelClear()

	o.transition(StateCompleted, func(s *Snapshot) {
		s.Payment = payment
	})
	o.count(ctx, awspkg.MetricCheckoutCompleted, "")
	o.latency(ctx, started, StateCompleted)
	log.Info("Checkout completed", zap.String("payment_id", payment.PaymentID))

	return &Outcome{State: StateCompleted, AttemptID: attemptID, Order: order, Payment: payment}, nil
}

func (o *Orchestrator) reset() {
	o.mu.Lock()
	o.snap = Snapshot{State: StateIdle, UpdatedAt: o.now()}
	snap := o.snap
	observer := o.observer
	o.mu.Unlock()

	if observer != nil {
		observer(snap)
	}
}

func (o *Orchestrator) begin(attemptID, fingerprint string) {
	o.mu.Lock()
	o.snap = Snapshot{State: o.snap.State}
	o.mu.Unlock()

	o.transition(StateSubmitting, func(s *Snapshot) {
		s.AttemptID = attemptID
		s.Fingerprint = fingerprint
	})
}

func (o *Orchestrator) transition(to State, mutate func(*Snapshot)) {
	o.mu.Lock()
	from := o.snap.State
	if !CanTransition(from, to) {
		o.mu.Unlock()
		// Programming error: the attempt flow above only takes legal edges.
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", from, to))
	}
	o.snap.State = to
	o.snap.UpdatedAt = o.now()
	if mutate != nil {
		mutate(&o.snap)
	}
	snap := o.snap
	observer := o.observer
	o.mu.Unlock()

	o.logger.Debug("Checkout transition",
		zap.String("attempt_id", snap.AttemptID),
		zap.String("from", from.String()),
		zap.String("state", to.String()),
	)
	if observer != nil {
		observer(snap)
	}
}

func (o *Orchestrator) finish(to State, err error) Snapshot {
	o.transition(to, func(s *Snapshot) {
		s.err = err
		s.ErrorKind = Kind(err)
		s.Error = err.Error()
	})
	return o.Snapshot()
}

func (o *Orchestrator) fail(ctx context.Context, log *zap.Logger, started time.Time, err error) (*Outcome, error) {
	snap := o.finish(StateFailed, err)
	o.count(ctx, awspkg.MetricCheckoutFailed, snap.ErrorKind)
	o.latency(ctx, started, StateFailed)
	log.Warn("Checkout failed", zap.String("kind", snap.ErrorKind), zap.Error(err))
	return &Outcome{State: StateFailed, AttemptID: snap.AttemptID, Order: snap.Order}, err
}

func (o *Orchestrator) cancelled(ctx context.Context, log *zap.Logger, started time.Time, reason error) (*Outcome, error) {
	snap := o.finish(StateCancelled, reason)
	o.count(ctx, awspkg.MetricCheckoutCancelled, snap.ErrorKind)
	o.latency(ctx, started, StateCancelled)
	log.Info("Checkout cancelled", zap.String("kind", snap.ErrorKind))
	return &Outcome{State: StateCancelled, AttemptID: snap.AttemptID, Order: snap.Order}, reason
}

func (o *Orchestrator) count(ctx context.Context, metric, kind string) {
	if o.metrics == nil {
		return
	}
	dims := map[string]string{"Service": "bff-service"}
	if kind != "" {
		dims["Kind"] = kind
	}
	_ = o.metrics.RecordCount(context.WithoutCancel(ctx), metric, dims)
}

func (o *Orchestrator) latency(ctx context.Context, started time.Time, state State) {
	if o.metrics == nil {
		return
	}
	_ = o.metrics.RecordLatency(context.WithoutCancel(ctx), awspkg.MetricCheckoutDuration, o.now().Sub(started),
		map[string]string{"Service": "bff-service", "State": state.String()})
}

// interrupted turns a failure caused by the caller going away into a
// NetworkError so that it is reported as retryable.
func interrupted(ctx context.Context, op string, err error) error {
	if ctx.Err() == nil {
		return err
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return err
	}
	return &NetworkError{Op: op, Err: ctx.Err()}
}

func asGatewayError(err error) error {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return err
	}
	return &GatewayError{Reason: "collect payment", Err: err}
}
