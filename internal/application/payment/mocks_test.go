package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/domain/entity"
)

var errBackend = errors.New("backend unavailable")

type mockPaymentAPI struct {
	mu        sync.Mutex
	creates   []entity.CreatePaymentRequest
	verifies  []entity.VerifyPaymentRequest
	verifyErr error
	declined  bool
	nextOrder int
}

func (m *mockPaymentAPI) CreatePayment(_ context.Context, req entity.CreatePaymentRequest) (*entity.CreatePaymentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, req)
	if req.Currency == "INR" {
		return &entity.CreatePaymentResponse{PaymentOrderID: "order_rzp_1", Amount: req.Amount, Currency: req.Currency}, nil
	}
	return &entity.CreatePaymentResponse{PaymentOrderID: "pi_1", ClientSecret: "pi_1_secret", Amount: req.Amount, Currency: req.Currency}, nil
}

func (m *mockPaymentAPI) VerifyPayment(_ context.Context, req entity.VerifyPaymentRequest) (*entity.VerifyPaymentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifies = append(m.verifies, req)
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	if m.declined {
		return &entity.VerifyPaymentResponse{Success: false, Error: "signature invalid"}, nil
	}
	m.nextOrder++
	return &entity.VerifyPaymentResponse{Success: true, OrderID: "order_" + req.CartID, OrderNumber: "1001"}, nil
}

func (m *mockPaymentAPI) setVerifyErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyErr = err
}

func (m *mockPaymentAPI) verifyCalls() []entity.VerifyPaymentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.VerifyPaymentRequest(nil), m.verifies...)
}

// mockPendingRepo implements repository.PendingVerificationRepository
type mockPendingRepo struct {
	mu      sync.RWMutex
	markers map[uuid.UUID]*entity.PendingVerification
}

func newMockPendingRepo() *mockPendingRepo {
	return &mockPendingRepo{markers: make(map[uuid.UUID]*entity.PendingVerification)}
}

func (m *mockPendingRepo) Upsert(_ context.Context, p *entity.PendingVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.markers {
		if existing.Provider == p.Provider && existing.GatewayPaymentID == p.GatewayPaymentID {
			p.ID = id
			p.Attempts = existing.Attempts
			cp := *p
			m.markers[id] = &cp
			return nil
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.markers[p.ID] = &cp
	return nil
}

func (m *mockPendingRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]entity.PendingVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.PendingVerification
	for _, p := range m.markers {
		if p.SessionID == sessionID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPendingRepo) ListAll(_ context.Context, limit int) ([]entity.PendingVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.PendingVerification
	for _, p := range m.markers {
		if len(out) == limit {
			break
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPendingRepo) RecordFailure(_ context.Context, id uuid.UUID, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.markers[id]; ok {
		p.Attempts++
		p.LastError = lastError
	}
	return nil
}

func (m *mockPendingRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.markers, id)
	return nil
}

func (m *mockPendingRepo) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.markers)
}

// mockVerificationRepo implements repository.PaymentVerificationRepository
type mockVerificationRepo struct {
	mu   sync.RWMutex
	rows map[string]*entity.PaymentVerification
}

func newMockVerificationRepo() *mockVerificationRepo {
	return &mockVerificationRepo{rows: make(map[string]*entity.PaymentVerification)}
}

func (m *mockVerificationRepo) Get(_ context.Context, provider, paymentID string) (*entity.PaymentVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rows[provider+"/"+paymentID], nil
}

func (m *mockVerificationRepo) Create(_ context.Context, v *entity.PaymentVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[v.Provider+"/"+v.GatewayPaymentID] = v
	return nil
}

// scriptedRazorpay answers Open with a fixed response or error
type scriptedRazorpay struct {
	resp   *RazorpayResponse
	err    error
	opened []RazorpayOptions
}

func (s *scriptedRazorpay) Open(_ context.Context, opts RazorpayOptions) (*RazorpayResponse, error) {
	s.opened = append(s.opened, opts)
	return s.resp, s.err
}

type scriptedStripe struct {
	conf *StripeConfirmation
	err  error
	got  []StripeOptions
}

func (s *scriptedStripe) Confirm(_ context.Context, opts StripeOptions) (*StripeConfirmation, error) {
	s.got = append(s.got, opts)
	return s.conf, s.err
}
