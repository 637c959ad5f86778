//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/adapter"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memTxManager satisfies repository.TransactionManager for unit tests; the
// in-memory repos serialize internally so fn just runs with a nil handle.
type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// memDeviceRepo is a small in-memory implementation used by unit tests.
type memDeviceRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.DeviceRecord
	findErr error // simulate storage faults
	saveErr error
}

func newMemDeviceRepo() *memDeviceRepo {
	return &memDeviceRepo{store: make(map[string]*model.DeviceRecord)}
}

func (m *memDeviceRepo) Find(ctx context.Context, _ repository.Tx, deviceID string) (*model.DeviceRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.store[deviceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memDeviceRepo) FindForUpdate(ctx context.Context, tx repository.Tx, deviceID string) (*model.DeviceRecord, error) {
	return m.Find(ctx, tx, deviceID)
}

func (m *memDeviceRepo) Save(ctx context.Context, _ repository.Tx, rec *model.DeviceRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.store[rec.DeviceID] = &cp
	return nil
}

// seed stores a record directly, bypassing the ledger.
func (m *memDeviceRepo) seed(rec *model.DeviceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.store[rec.DeviceID] = &cp
}

// get returns the stored record directly, bypassing the ledger.
func (m *memDeviceRepo) get(deviceID string) *model.DeviceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.store[deviceID]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

type memPaymentRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Payment // by ID
	byOrder map[string]string
	saveErr error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment), byOrder: make(map[string]string)}
}

func (m *memPaymentRepo) Save(ctx context.Context, _ repository.Tx, p *model.Payment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	m.byOrder[p.OrderID] = p.ID
	return nil
}

func (m *memPaymentRepo) FindByOrderID(ctx context.Context, _ repository.Tx, orderID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.store[id]
	return &cp, nil
}

func (m *memPaymentRepo) UpdateStatus(ctx context.Context, _ repository.Tx, id string, status model.PaymentStatus, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	p.PaymentID = paymentID
	return nil
}

type memPurchaseRepo struct {
	mu      sync.RWMutex
	entries []*model.Purchase
	saveErr error
}

func newMemPurchaseRepo() *memPurchaseRepo { return &memPurchaseRepo{} }

func (m *memPurchaseRepo) Save(ctx context.Context, _ repository.Tx, pu *model.Purchase) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pu
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memPurchaseRepo) ListByDevice(ctx context.Context, _ repository.Tx, deviceID string) ([]*model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Purchase
	for _, pu := range m.entries {
		if pu.DeviceID == deviceID {
			cp := *pu
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeGateway lets tests script order creation and signature checks.
type fakeGateway struct {
	CreateOrderFunc     func(ctx context.Context, amount int64, currency, receipt string) (adapter.Order, error)
	VerifySignatureFunc func(orderID, paymentID, signature string) bool
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (adapter.Order, error) {
	if f.CreateOrderFunc != nil {
		return f.CreateOrderFunc(ctx, amount, currency, receipt)
	}
	return adapter.Order{ID: "order_1", Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if f.VerifySignatureFunc != nil {
		return f.VerifySignatureFunc(orderID, paymentID, signature)
	}
	return true
}

// fakeProvider scripts the upstream generation call.
type fakeProvider struct {
	GenerateFunc func(ctx context.Context, req adapter.GenerationRequest) (string, error)
	calls        int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, req adapter.GenerationRequest) (string, error) {
	f.calls++
	if f.GenerateFunc != nil {
		return f.GenerateFunc(ctx, req)
	}
	return "generated text", nil
}

func newQuotaForTest(devices *memDeviceRepo, purchases *memPurchaseRepo, creditCap int) *quotaUC {
	return NewQuotaUseCase(devices, purchases, memTxManager{}, creditCap, newTestLogger())
}
