package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"go.uber.org/zap"
)

var (
	// ErrAttemptNotFound is returned for unknown attempts or attempts owned by another session
	ErrAttemptNotFound = errors.New("payment attempt not found")
	// ErrAttemptState is returned when a callback arrives while no gateway action is open
	ErrAttemptState = errors.New("payment attempt is not awaiting the browser")
	// ErrNoAttempt is returned when a gateway is opened outside an attempt
	ErrNoAttempt = errors.New("no payment attempt in context")
)

// Action is the gateway step the browser has to perform
type Action struct {
	Provider enum.PaymentProvider `json:"provider"`
	Razorpay *RazorpayOptions     `json:"razorpay,omitempty"`
	Stripe   *StripeOptions       `json:"stripe,omitempty"`
}

// Attempt is a point-in-time view of a payment attempt
type Attempt struct {
	ID        uuid.UUID             `json:"id"`
	Status    enum.AttemptStatus    `json:"status"`
	Action    *Action               `json:"action,omitempty"`
	Result    *entity.PaymentResult `json:"result,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

type callback struct {
	razorpay  *RazorpayResponse
	stripe    *StripeConfirmation
	dismissed bool
}

type attempt struct {
	Attempt
	sessionID uuid.UUID
	callbacks chan callback
	changed   chan struct{} // closed and replaced on every state change
}

type attemptKey struct{}

func withAttempt(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, attemptKey{}, id)
}

func attemptFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(attemptKey{}).(uuid.UUID)
	return id, ok
}

// AttemptRegistry hosts the browser side of the payment gateways. A payment
// runs in the background; when it needs the browser it publishes an Action
// and waits for the matching callback, a dismissal, or the attempt timeout.
type AttemptRegistry struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*attempt
	timeout  time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewAttemptRegistry creates a new registry and starts its cleanup loop
func NewAttemptRegistry(timeout time.Duration, logger *zap.Logger) *AttemptRegistry {
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	r := &AttemptRegistry{
		attempts: make(map[uuid.UUID]*attempt),
		timeout:  timeout,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

// Start runs fn in the background as a new attempt owned by sessionID
func (r *AttemptRegistry) Start(sessionID uuid.UUID, fn func(ctx context.Context) entity.PaymentResult) Attempt {
	now := time.Now()
	a := &attempt{
		Attempt: Attempt{
			ID:        uuid.New(),
			Status:    enum.AttemptStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
		sessionID: sessionID,
		callbacks: make(chan callback, 1),
		changed:   make(chan struct{}),
	}

	r.mu.Lock()
	r.attempts[a.ID] = a
	view := a.Attempt
	r.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(withAttempt(context.Background(), a.ID), r.timeout)
		defer cancel()

		res := fn(ctx)
		status := enum.AttemptStatusFailed
		switch {
		case res.Success:
			status = enum.AttemptStatusSucceeded
		case res.Cancelled:
			status = enum.AttemptStatusCancelled
		}
		r.update(a.ID, func(a *attempt) {
			a.Status = status
			a.Action = nil
			a.Result = &res
		})
	}()

	return view
}

// Get returns the attempt if it belongs to the session
func (r *AttemptRegistry) Get(sessionID, id uuid.UUID) (Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok || a.sessionID != sessionID {
		return Attempt{}, ErrAttemptNotFound
	}
	return a.Attempt, nil
}

// Wait blocks until the attempt leaves the pending state or ctx is done,
// then returns the latest view
func (r *AttemptRegistry) Wait(ctx context.Context, sessionID, id uuid.UUID) (Attempt, error) {
	for {
		r.mu.Lock()
		a, ok := r.attempts[id]
		if !ok || a.sessionID != sessionID {
			r.mu.Unlock()
			return Attempt{}, ErrAttemptNotFound
		}
		view, changed := a.Attempt, a.changed
		r.mu.Unlock()

		if view.Status != enum.AttemptStatusPending {
			return view, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return view, nil
		}
	}
}

// Open implements RazorpayCheckout
func (r *AttemptRegistry) Open(ctx context.Context, opts RazorpayOptions) (*RazorpayResponse, error) {
	cb, err := r.await(ctx, &Action{Provider: enum.PaymentProviderRazorpay, Razorpay: &opts})
	if err != nil {
		return nil, err
	}
	if cb.razorpay == nil {
		return nil, fmt.Errorf("unexpected callback for razorpay attempt")
	}
	return cb.razorpay, nil
}

// Confirm implements StripeConfirmer
func (r *AttemptRegistry) Confirm(ctx context.Context, opts StripeOptions) (*StripeConfirmation, error) {
	cb, err := r.await(ctx, &Action{Provider: enum.PaymentProviderStripe, Stripe: &opts})
	if err != nil {
		return nil, err
	}
	if cb.stripe == nil {
		return nil, fmt.Errorf("unexpected callback for stripe attempt")
	}
	return cb.stripe, nil
}

// ResolveRazorpay delivers the Razorpay handler payload
func (r *AttemptRegistry) ResolveRazorpay(sessionID, id uuid.UUID, resp RazorpayResponse) error {
	return r.deliver(sessionID, id, enum.PaymentProviderRazorpay, callback{razorpay: &resp})
}

// ResolveStripe reports a confirmed payment intent
func (r *AttemptRegistry) ResolveStripe(sessionID, id uuid.UUID, conf StripeConfirmation) error {
	return r.deliver(sessionID, id, enum.PaymentProviderStripe, callback{stripe: &conf})
}

// Dismiss reports that the shopper closed the gateway window
func (r *AttemptRegistry) Dismiss(sessionID, id uuid.UUID) error {
	r.mu.Lock()
	a, ok := r.attempts[id]
	if !ok || a.sessionID != sessionID {
		r.mu.Unlock()
		return ErrAttemptNotFound
	}
	if a.Status != enum.AttemptStatusActionRequired {
		r.mu.Unlock()
		return ErrAttemptState
	}
	r.mu.Unlock()
	return r.send(a, callback{dismissed: true})
}

// Close stops the cleanup loop
func (r *AttemptRegistry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *AttemptRegistry) deliver(sessionID, id uuid.UUID, provider enum.PaymentProvider, cb callback) error {
	r.mu.Lock()
	a, ok := r.attempts[id]
	if !ok || a.sessionID != sessionID {
		r.mu.Unlock()
		return ErrAttemptNotFound
	}
	if a.Status != enum.AttemptStatusActionRequired || a.Action == nil || a.Action.Provider != provider {
		r.mu.Unlock()
		return ErrAttemptState
	}
	r.mu.Unlock()
	return r.send(a, cb)
}

func (r *AttemptRegistry) send(a *attempt, cb callback) error {
	select {
	case a.callbacks <- cb:
		return nil
	default:
		return ErrAttemptState
	}
}

// await publishes the action and blocks for the browser's answer
func (r *AttemptRegistry) await(ctx context.Context, action *Action) (callback, error) {
	id, ok := attemptFromContext(ctx)
	if !ok {
		return callback{}, ErrNoAttempt
	}
	r.mu.Lock()
	a, ok := r.attempts[id]
	r.mu.Unlock()
	if !ok {
		return callback{}, ErrAttemptNotFound
	}

	r.update(id, func(a *attempt) {
		a.Status = enum.AttemptStatusActionRequired
		a.Action = action
	})
	defer r.update(id, func(a *attempt) {
		a.Status = enum.AttemptStatusPending
		a.Action = nil
	})

	select {
	case cb := <-a.callbacks:
		if cb.dismissed {
			return callback{}, ErrDismissed
		}
		return cb, nil
	case <-ctx.Done():
		return callback{}, fmt.Errorf("%w: %v", ErrDismissed, ctx.Err())
	}
}

func (r *AttemptRegistry) update(id uuid.UUID, fn func(a *attempt)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return
	}
	fn(a)
	a.UpdatedAt = time.Now()
	close(a.changed)
	a.changed = make(chan struct{})
}

// cleanupLoop forgets finished attempts
func (r *AttemptRegistry) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * r.timeout)
			removed := 0
			r.mu.Lock()
			for id, a := range r.attempts {
				if a.Status.Terminal() && a.UpdatedAt.Before(cutoff) {
					delete(r.attempts, id)
					removed++
				}
			}
			r.mu.Unlock()
			if removed > 0 {
				r.logger.Debug("expired payment attempts", zap.Int("count", removed))
			}
		}
	}
}
