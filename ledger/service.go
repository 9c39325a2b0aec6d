// Package ledger keeps payment and invoice records consistent: it computes
// invoice totals, derives statuses from amounts and applies recorded money to
// both a payment and the invoice it belongs to.
//
// Calculations are pure functions over model values. Persistence happens only
// through Store, explicitly, after validation has passed, so a rejected
// operation never leaves a partial write behind.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/event-ledger-go/logger"
	models "github.com/phillip/event-ledger-go/models"
)

const (
	defaultMaxAttempts   = 3
	defaultNotifyTimeout = 15 * time.Second
)

type Options struct {
	// CurrencySymbol prefixes amounts in user-facing messages.
	CurrencySymbol string
	// Currency is the ISO code stamped on new invoices.
	Currency      string
	Notifiers     []Notifier
	NotifyTimeout time.Duration
	// MaxAttempts bounds retries after a version conflict.
	MaxAttempts int
	Now         func() time.Time
}

type Service struct {
	store         Store
	notifiers     []Notifier
	symbol        string
	currency      string
	notifyTimeout time.Duration
	maxAttempts   int
	now           func() time.Time
	log           zerolog.Logger
}

func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:         store,
		notifiers:     opts.Notifiers,
		symbol:        opts.CurrencySymbol,
		currency:      opts.Currency,
		notifyTimeout: opts.NotifyTimeout,
		maxAttempts:   opts.MaxAttempts,
		now:           opts.Now,
		log:           logger.WithComponent("ledger"),
	}
	if s.currency == "" {
		s.currency = "INR"
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = defaultNotifyTimeout
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// withRetry reruns op while it fails with a version conflict. A
// ConsistencyError is never retried: its first write already happened.
func (s *Service) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = op()
		var ce *ConsistencyError
		if err == nil || errors.As(err, &ce) || !errors.Is(err, ErrVersionConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.log.Debug().Int("attempt", attempt).Msg("version conflict, retrying")
	}
	return err
}

// notify runs every notifier after a successful write. The caller's
// cancellation does not cut notifiers short; they get their own deadline.
func (s *Service) notify(ctx context.Context, n *Notification) {
	if len(s.notifiers) == 0 {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	for _, notifier := range s.notifiers {
		if err := notifier.Notify(nctx, n); err != nil {
			s.log.Warn().
				Err(err).
				Str("kind", string(n.Kind)).
				Str("organization_id", n.OrganizationID.Hex()).
				Msg("notifier failed")
		}
	}
}

type SweepResult struct {
	Payments int64 `json:"payments"`
	Invoices int64 `json:"invoices"`
}

// SweepOverdue persists the overdue transition for pending payments and sent
// invoices whose due date has passed. Each record moves by a conditional
// update, so concurrent or repeated sweeps converge on the same state.
func (s *Service) SweepOverdue(ctx context.Context) (SweepResult, error) {
	now := s.now()
	var res SweepResult

	n, err := s.store.MarkOverduePayments(ctx, now)
	if err != nil {
		return res, err
	}
	res.Payments = n

	n, err = s.store.MarkOverdueInvoices(ctx, now)
	if err != nil {
		return res, err
	}
	res.Invoices = n

	s.log.Info().
		Int64("payments", res.Payments).
		Int64("invoices", res.Invoices).
		Msg("overdue sweep completed")
	return res, nil
}

func (s *Service) loadEvent(ctx context.Context, orgID, id primitive.ObjectID) (*models.Event, error) {
	ev, err := s.store.GetEvent(ctx, orgID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, NewNotFoundError("event", id)
	}
	return ev, err
}

func (s *Service) loadClient(ctx context.Context, orgID, id primitive.ObjectID) (*models.Client, error) {
	c, err := s.store.GetClient(ctx, orgID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, NewNotFoundError("client", id)
	}
	return c, err
}
