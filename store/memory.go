package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/event-ledger-go/ledger"
	models "github.com/phillip/event-ledger-go/models"
)

// MemoryStore is an in-process ledger.Store used by tests and local runs.
// With transactions enabled, RunInTransaction undoes the writes made through
// its context when fn fails. Writes made outside that context are kept.
type MemoryStore struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	transactions bool

	payments     map[primitive.ObjectID]models.Payment
	invoices     map[primitive.ObjectID]models.Invoice
	events       map[primitive.ObjectID]models.Event
	clients      map[primitive.ObjectID]models.Client
	counters     map[string]int64
	syncFailures []models.SyncFailure
	activity     []models.ActivityLog

	// BeforeUpdateInvoice, when set, runs before every invoice write and can
	// fail it. Tests use it to simulate a broken second write.
	BeforeUpdateInvoice func(inv *models.Invoice) error
}

type txKey struct{}

// txJournal holds the before-image of every record a transaction wrote. A nil
// entry means the record did not exist.
type txJournal struct {
	payments map[primitive.ObjectID]*models.Payment
	invoices map[primitive.ObjectID]*models.Invoice
}

func journalFrom(ctx context.Context) *txJournal {
	j, _ := ctx.Value(txKey{}).(*txJournal)
	return j
}

// must hold s.mu
func (s *MemoryStore) notePayment(ctx context.Context, id primitive.ObjectID) {
	j := journalFrom(ctx)
	if j == nil {
		return
	}
	if _, seen := j.payments[id]; seen {
		return
	}
	if p, ok := s.payments[id]; ok {
		j.payments[id] = &p
	} else {
		j.payments[id] = nil
	}
}

// must hold s.mu
func (s *MemoryStore) noteInvoice(ctx context.Context, id primitive.ObjectID) {
	j := journalFrom(ctx)
	if j == nil {
		return
	}
	if _, seen := j.invoices[id]; seen {
		return
	}
	if inv, ok := s.invoices[id]; ok {
		inv.Items = slices.Clone(inv.Items)
		j.invoices[id] = &inv
	} else {
		j.invoices[id] = nil
	}
}

func NewMemoryStore(transactions bool) *MemoryStore {
	return &MemoryStore{
		transactions: transactions,
		payments:     map[primitive.ObjectID]models.Payment{},
		invoices:     map[primitive.ObjectID]models.Invoice{},
		events:       map[primitive.ObjectID]models.Event{},
		clients:      map[primitive.ObjectID]models.Client{},
		counters:     map[string]int64{},
	}
}

func (s *MemoryStore) PutEvent(ev models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = ev
}

func (s *MemoryStore) PutClient(c models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

// SyncFailures returns a copy of the outbox.
func (s *MemoryStore) SyncFailures() []models.SyncFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.syncFailures)
}

// Activity returns a copy of the activity log.
func (s *MemoryStore) Activity() []models.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.activity)
}

func (s *MemoryStore) GetPayment(_ context.Context, orgID, id primitive.ObjectID) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.OrganizationID != orgID {
		return nil, ledger.ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) InsertPayment(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; ok {
		return fmt.Errorf("payment %s already exists", p.ID.Hex())
	}
	s.notePayment(ctx, p.ID)
	s.payments[p.ID] = *p
	return nil
}

func (s *MemoryStore) UpdatePayment(ctx context.Context, p *models.Payment, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.payments[p.ID]
	if !ok || stored.OrganizationID != p.OrganizationID || stored.Version != expectedVersion {
		return ledger.ErrVersionConflict
	}
	s.notePayment(ctx, p.ID)
	p.Version = expectedVersion + 1
	s.payments[p.ID] = *p
	return nil
}

func (s *MemoryStore) ListPayments(_ context.Context, orgID primitive.ObjectID, f ledger.PaymentFilter) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Payment{}
	for _, p := range s.payments {
		if p.OrganizationID != orgID || p.IsDeleted {
			continue
		}
		if f.EventID != nil && p.EventID != *f.EventID {
			continue
		}
		if f.InvoiceID != nil && (p.InvoiceID == nil || *p.InvoiceID != *f.InvoiceID) {
			continue
		}
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b models.Payment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) MarkOverduePayments(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, p := range s.payments {
		if p.Status != models.PaymentPending || p.IsDeleted || p.DueDate == nil || !p.DueDate.Before(now) {
			continue
		}
		if p.PaidAmount.GreaterThanOrEqual(p.Amount) {
			continue
		}
		p.Status = models.PaymentOverdue
		p.UpdatedAt = now
		p.Version++
		s.payments[id] = p
		n++
	}
	return n, nil
}

func (s *MemoryStore) GetInvoice(_ context.Context, orgID, id primitive.ObjectID) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.OrganizationID != orgID {
		return nil, ledger.ErrNotFound
	}
	inv.Items = slices.Clone(inv.Items)
	return &inv, nil
}

func (s *MemoryStore) InsertInvoice(ctx context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[inv.ID]; ok {
		return fmt.Errorf("invoice %s already exists", inv.ID.Hex())
	}
	s.noteInvoice(ctx, inv.ID)
	stored := *inv
	stored.Items = slices.Clone(inv.Items)
	s.invoices[inv.ID] = stored
	return nil
}

func (s *MemoryStore) UpdateInvoice(ctx context.Context, inv *models.Invoice, expectedVersion int64) error {
	if s.BeforeUpdateInvoice != nil {
		if err := s.BeforeUpdateInvoice(inv); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[inv.ID]
	if !ok || stored.OrganizationID != inv.OrganizationID || stored.Version != expectedVersion {
		return ledger.ErrVersionConflict
	}
	s.noteInvoice(ctx, inv.ID)
	inv.Version = expectedVersion + 1
	next := *inv
	next.Items = slices.Clone(inv.Items)
	s.invoices[inv.ID] = next
	return nil
}

func (s *MemoryStore) ListInvoices(_ context.Context, orgID primitive.ObjectID, f ledger.InvoiceFilter) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Invoice{}
	for _, inv := range s.invoices {
		if inv.OrganizationID != orgID {
			continue
		}
		if f.ClientID != nil && inv.ClientID != *f.ClientID {
			continue
		}
		if f.EventID != nil && (inv.EventID == nil || *inv.EventID != *f.EventID) {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		inv.Items = slices.Clone(inv.Items)
		out = append(out, inv)
	}
	slices.SortFunc(out, func(a, b models.Invoice) int {
		return b.IssueDate.Compare(a.IssueDate)
	})
	return out, nil
}

func (s *MemoryStore) MarkOverdueInvoices(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, inv := range s.invoices {
		if inv.Status != models.InvoiceSent || inv.DueDate == nil || !inv.DueDate.Before(now) {
			continue
		}
		if inv.PaidAmount.GreaterThanOrEqual(inv.Total) {
			continue
		}
		inv.Status = models.InvoiceOverdue
		inv.UpdatedAt = now
		inv.Version++
		s.invoices[id] = inv
		n++
	}
	return n, nil
}

func (s *MemoryStore) NextInvoiceNumber(_ context.Context, orgID primitive.ObjectID, year int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("invoice:%s:%d", orgID.Hex(), year)
	s.counters[key]++
	return formatInvoiceNumber(year, s.counters[key]), nil
}

func (s *MemoryStore) GetEvent(_ context.Context, orgID, id primitive.ObjectID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok || ev.OrganizationID != orgID {
		return nil, ledger.ErrNotFound
	}
	return &ev, nil
}

func (s *MemoryStore) GetClient(_ context.Context, orgID, id primitive.ObjectID) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok || c.OrganizationID != orgID {
		return nil, ledger.ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) InsertSyncFailure(_ context.Context, f *models.SyncFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncFailures = append(s.syncFailures, *f)
	return nil
}

func (s *MemoryStore) InsertActivity(_ context.Context, a *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, *a)
	return nil
}

func (s *MemoryStore) Transactional() bool {
	return s.transactions
}

func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &txJournal{
		payments: map[primitive.ObjectID]*models.Payment{},
		invoices: map[primitive.ObjectID]*models.Invoice{},
	}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		s.rollback(j)
		return err
	}
	return nil
}

func (s *MemoryStore) rollback(j *txJournal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, before := range j.payments {
		if before == nil {
			delete(s.payments, id)
			continue
		}
		s.payments[id] = *before
	}
	for id, before := range j.invoices {
		if before == nil {
			delete(s.invoices, id)
			continue
		}
		s.invoices[id] = *before
	}
}
