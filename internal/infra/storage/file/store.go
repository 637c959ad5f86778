// Package file is the flat-file storage tier: one JSON document holding
// every ledger record, loaded at startup and rewritten atomically on each
// mutation. It trades transactional guarantees for zero external
// dependencies; a crash between mutate and persist can lose the last write,
// which is acceptable for the soft daily quota. The subscription grant path
// still reports persist failures to the caller.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/repository"
)

var (
	_ repository.DeviceRepository   = (*Store)(nil)
	_ repository.TransactionManager = (*Store)(nil)
	_ repository.PaymentRepository  = PaymentStore{}
	_ repository.PurchaseRepository = PurchaseStore{}
)

// txToken marks calls running inside WithTx, where the store lock is already
// held and persistence is deferred to commit.
type txToken struct{}

type deviceRow struct {
	Date               string     `json:"date"`
	Count              int        `json:"count"`
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry,omitempty"`
	Premium            bool       `json:"isPremium"`
	OwnerEmail         string     `json:"email,omitempty"`
	OwnerPhone         string     `json:"phone,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type paymentRow struct {
	ID        string              `json:"id"`
	DeviceID  string              `json:"deviceId"`
	PlanDays  int                 `json:"planDays"`
	Provider  string              `json:"provider"`
	Amount    int64               `json:"amount"`
	Currency  string              `json:"currency"`
	OrderID   string              `json:"orderId"`
	PaymentID string              `json:"paymentId,omitempty"`
	Status    model.PaymentStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

type purchaseRow struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"deviceId"`
	PlanDays    int       `json:"planDays"`
	Amount      int64     `json:"amount"`
	OrderID     string    `json:"orderId,omitempty"`
	PaymentID   string    `json:"paymentId,omitempty"`
	OwnerEmail  string    `json:"email,omitempty"`
	OwnerPhone  string    `json:"phone,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

type fileData struct {
	Devices   map[string]*deviceRow  `json:"devices"`
	Payments  map[string]*paymentRow `json:"payments"`
	Purchases []*purchaseRow         `json:"purchases"`
}

type Store struct {
	mu   sync.Mutex
	path string
	data fileData
	log  *zerolog.Logger
}

// Open loads the store file, creating an empty one when it does not exist.
func Open(path string, logger *zerolog.Logger) (*Store, error) {
	s := &Store{
		path: path,
		data: fileData{
			Devices:  make(map[string]*deviceRow),
			Payments: make(map[string]*paymentRow),
		},
		log: logger,
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &s.data); err != nil {
			return nil, err
		}
	}
	if s.data.Devices == nil {
		s.data.Devices = make(map[string]*deviceRow)
	}
	if s.data.Payments == nil {
		s.data.Payments = make(map[string]*paymentRow)
	}
	logger.Info().Str("path", path).Int("devices", len(s.data.Devices)).Msg("file store loaded")
	return s, nil
}

// WithTx serializes fn against every other store operation and persists once
// on success. There is no rollback: mutations made before fn fails stay in
// memory until the next successful persist.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(ctx, txToken{}); err != nil {
		return err
	}
	return s.persistLocked()
}

// lockFor takes the store lock unless the call already runs inside WithTx.
// It returns the matching unlock and whether the call must persist itself.
func (s *Store) lockFor(qx repository.Tx) (unlock func(), standalone bool) {
	if _, ok := qx.(txToken); ok {
		return func() {}, false
	}
	s.mu.Lock()
	return s.mu.Unlock, true
}

// persistLocked writes the whole document via temp file + rename so readers
// never observe a torn file.
func (s *Store) persistLocked() error {
	b, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".devices-*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, s.path)
}

// ----- DeviceRepository -----

func (s *Store) Find(ctx context.Context, qx repository.Tx, deviceID string) (*model.DeviceRecord, error) {
	unlock, _ := s.lockFor(qx)
	defer unlock()
	row, ok := s.data.Devices[deviceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return row.toModel(deviceID), nil
}

// FindForUpdate is identical to Find: the store lock already serializes
// every mutation in this tier.
func (s *Store) FindForUpdate(ctx context.Context, qx repository.Tx, deviceID string) (*model.DeviceRecord, error) {
	return s.Find(ctx, qx, deviceID)
}

func (s *Store) Save(ctx context.Context, qx repository.Tx, rec *model.DeviceRecord) error {
	unlock, standalone := s.lockFor(qx)
	defer unlock()
	var exp *time.Time
	if rec.SubscriptionExpiry != nil {
		e := *rec.SubscriptionExpiry
		exp = &e
	}
	s.data.Devices[rec.DeviceID] = &deviceRow{
		Date:               rec.Date,
		Count:              rec.Count,
		SubscriptionExpiry: exp,
		Premium:            rec.Premium,
		OwnerEmail:         rec.OwnerEmail,
		OwnerPhone:         rec.OwnerPhone,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
	if standalone {
		return s.persistLocked()
	}
	return nil
}

func (r *deviceRow) toModel(deviceID string) *model.DeviceRecord {
	var exp *time.Time
	if r.SubscriptionExpiry != nil {
		e := *r.SubscriptionExpiry
		exp = &e
	}
	return &model.DeviceRecord{
		DeviceID:           deviceID,
		Date:               r.Date,
		Count:              r.Count,
		SubscriptionExpiry: exp,
		Premium:            r.Premium,
		OwnerEmail:         r.OwnerEmail,
		OwnerPhone:         r.OwnerPhone,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// ----- PaymentRepository -----

// PaymentStore and PurchaseStore expose the repository interfaces whose Save
// methods would otherwise collide with the device Save on *Store.
type PaymentStore struct{ *Store }

func (p PaymentStore) Save(ctx context.Context, qx repository.Tx, pay *model.Payment) error {
	return p.SavePayment(ctx, qx, pay)
}

type PurchaseStore struct{ *Store }

func (p PurchaseStore) Save(ctx context.Context, qx repository.Tx, pu *model.Purchase) error {
	return p.SavePurchase(ctx, qx, pu)
}

func (s *Store) SavePayment(ctx context.Context, qx repository.Tx, p *model.Payment) error {
	unlock, standalone := s.lockFor(qx)
	defer unlock()
	row := paymentRow(*p)
	s.data.Payments[p.ID] = &row
	if standalone {
		return s.persistLocked()
	}
	return nil
}

func (s *Store) FindByOrderID(ctx context.Context, qx repository.Tx, orderID string) (*model.Payment, error) {
	unlock, _ := s.lockFor(qx)
	defer unlock()
	for _, row := range s.data.Payments {
		if row.OrderID == orderID {
			p := model.Payment(*row)
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) UpdateStatus(ctx context.Context, qx repository.Tx, id string, status model.PaymentStatus, paymentID string) error {
	unlock, standalone := s.lockFor(qx)
	defer unlock()
	row, ok := s.data.Payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	row.Status = status
	row.PaymentID = paymentID
	row.UpdatedAt = time.Now().UTC()
	if standalone {
		return s.persistLocked()
	}
	return nil
}

// ----- PurchaseRepository -----

func (s *Store) SavePurchase(ctx context.Context, qx repository.Tx, pu *model.Purchase) error {
	unlock, standalone := s.lockFor(qx)
	defer unlock()
	row := purchaseRow(*pu)
	s.data.Purchases = append(s.data.Purchases, &row)
	if standalone {
		return s.persistLocked()
	}
	return nil
}

func (s *Store) ListByDevice(ctx context.Context, qx repository.Tx, deviceID string) ([]*model.Purchase, error) {
	unlock, _ := s.lockFor(qx)
	defer unlock()
	var out []*model.Purchase
	for i := len(s.data.Purchases) - 1; i >= 0; i-- {
		if s.data.Purchases[i].DeviceID == deviceID {
			pu := model.Purchase(*s.data.Purchases[i])
			out = append(out, &pu)
		}
	}
	return out, nil
}
