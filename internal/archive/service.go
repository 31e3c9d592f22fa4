// Package archive serves settled transactions and their status lifecycle.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/scope"
	"github.com/noah-isme/backend-kasir/internal/settings"
	"github.com/noah-isme/backend-kasir/internal/store"
)

var (
	// ErrNotFound is returned for transactions that are absent or outside the scope.
	ErrNotFound = errors.New("archive: transaction not found")
	// ErrInvalidTransition rejects status changes outside the lifecycle.
	ErrInvalidTransition = errors.New("archive: invalid status transition")
	// ErrNotCanceled is returned when restocking a transaction that was not canceled.
	ErrNotCanceled = errors.New("archive: only canceled transactions can be restocked")
	// ErrAlreadyRestocked guards against returning the same units twice.
	ErrAlreadyRestocked = errors.New("archive: transaction already restocked")
	// ErrInvalidInput covers malformed filters.
	ErrInvalidInput = errors.New("archive: invalid input")
)

// Action names a lifecycle operation.
type Action string

// Lifecycle operations.
const (
	ActionHold     Action = "hold"
	ActionResume   Action = "resume"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

var targets = map[Action]dbgen.TransactionStatus{
	ActionHold:     dbgen.TransactionStatusHeld,
	ActionResume:   dbgen.TransactionStatusActive,
	ActionComplete: dbgen.TransactionStatusCompleted,
	ActionCancel:   dbgen.TransactionStatusCanceled,
}

// canceled is terminal.
var allowed = map[dbgen.TransactionStatus][]dbgen.TransactionStatus{
	dbgen.TransactionStatusActive:    {dbgen.TransactionStatusHeld, dbgen.TransactionStatusCompleted, dbgen.TransactionStatusCanceled},
	dbgen.TransactionStatusHeld:      {dbgen.TransactionStatusActive, dbgen.TransactionStatusCompleted, dbgen.TransactionStatusCanceled},
	dbgen.TransactionStatusCompleted: {dbgen.TransactionStatusCanceled},
}

var topics = map[dbgen.TransactionStatus]string{
	dbgen.TransactionStatusHeld:      events.TopicTransactionHeld,
	dbgen.TransactionStatusActive:    events.TopicTransactionResumed,
	dbgen.TransactionStatusCompleted: events.TopicTransactionCompleted,
	dbgen.TransactionStatusCanceled:  events.TopicTransactionCanceled,
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to dbgen.TransactionStatus) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ParseAction validates a lifecycle operation name.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := targets[a]; !ok {
		return "", fmt.Errorf("unknown action %q: %w", raw, ErrInvalidInput)
	}
	return a, nil
}

// ParseStatus converts an optional status filter.
func ParseStatus(raw string) (dbgen.NullTransactionStatus, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return dbgen.NullTransactionStatus{}, nil
	}
	st := dbgen.TransactionStatus(raw)
	switch st {
	case dbgen.TransactionStatusActive, dbgen.TransactionStatusHeld, dbgen.TransactionStatusCompleted, dbgen.TransactionStatusCanceled:
		return dbgen.NullTransactionStatus{TransactionStatus: st, Valid: true}, nil
	}
	return dbgen.NullTransactionStatus{}, fmt.Errorf("unknown status %q: %w", raw, ErrInvalidInput)
}

// Filter narrows List. From and To are inclusive; zero values are open ends.
type Filter struct {
	From    time.Time
	To      time.Time
	Query   string
	Status  string
	Page    int
	PerPage int
}

// RestockResult reports what a restock returned to inventory.
type RestockResult struct {
	TransactionID int64   `json:"transaction_id"`
	Units         int     `json:"units"`
	Skipped       []int64 `json:"skipped_product_ids,omitempty"`
}

// TransitionResult carries the updated transaction and an optional restock.
type TransitionResult struct {
	Transaction View           `json:"transaction"`
	Restock     *RestockResult `json:"restock,omitempty"`
}

// Service reads and transitions archived transactions.
type Service struct {
	Store    store.Store
	Settings *settings.Service
	Events   *events.Bus
	Logger   zerolog.Logger
}

func (s *Service) ready(sc scope.Scope) error {
	if s == nil || s.Store == nil {
		return errors.New("archive service not configured")
	}
	if !sc.Valid() {
		return scope.ErrMissing
	}
	return nil
}

// Get returns a transaction with its bound lines.
func (s *Service) Get(ctx context.Context, sc scope.Scope, id int64) (View, error) {
	if err := s.ready(sc); err != nil {
		return View{}, err
	}
	t, err := s.Store.GetTransactionForUser(ctx, dbgen.GetTransactionForUserParams{ID: id, UserID: sc.OwnerID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, ErrNotFound
		}
		return View{}, fmt.Errorf("get transaction: %w", err)
	}
	return s.withItems(ctx, s.Store, t)
}

// List returns one page of transactions, newest first, and the total match count.
func (s *Service) List(ctx context.Context, sc scope.Scope, f Filter) ([]View, int64, error) {
	if err := s.ready(sc); err != nil {
		return nil, 0, err
	}
	status, err := ParseStatus(f.Status)
	if err != nil {
		return nil, 0, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, 0, fmt.Errorf("to must not be before from: %w", ErrInvalidInput)
	}
	if f.PerPage <= 0 {
		f.PerPage = 20
	}
	from, to := common.Timestamptz(f.From), common.Timestamptz(f.To)
	search := common.Text(f.Query)

	total, err := s.Store.CountTransactions(ctx, dbgen.CountTransactionsParams{
		UserID: sc.OwnerID, FromTime: from, ToTime: to, Search: search, Status: status,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	rows, err := s.Store.ListTransactions(ctx, dbgen.ListTransactionsParams{
		UserID:      sc.OwnerID,
		FromTime:    from,
		ToTime:      to,
		Search:      search,
		Status:      status,
		LimitCount:  int32(f.PerPage),
		OffsetCount: int32(common.Offset(f.Page, f.PerPage)),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]View, 0, len(rows))
	for _, t := range rows {
		out = append(out, viewOf(t))
	}
	return out, total, nil
}

// Transition applies a lifecycle action. Money figures are never touched.
// With restock set, a cancel also returns the bound units to inventory in the
// same database transaction.
func (s *Service) Transition(ctx context.Context, sc scope.Scope, id int64, action Action, restock bool) (TransitionResult, error) {
	if err := s.ready(sc); err != nil {
		return TransitionResult{}, err
	}
	to, ok := targets[action]
	if !ok {
		return TransitionResult{}, fmt.Errorf("unknown action %q: %w", action, ErrInvalidInput)
	}
	if restock && to != dbgen.TransactionStatusCanceled {
		return TransitionResult{}, fmt.Errorf("restock only applies to cancel: %w", ErrInvalidInput)
	}

	var (
		res     TransitionResult
		from    dbgen.TransactionStatus
		emitted []dbgen.DomainEvent
	)
	err := s.Store.ExecTx(ctx, func(q dbgen.Querier) error {
		emitted = emitted[:0]
		t, err := lockTransaction(ctx, q, sc, id)
		if err != nil {
			return err
		}
		from = t.Status
		if !CanTransition(from, to) {
			return fmt.Errorf("%s to %s: %w", from, to, ErrInvalidTransition)
		}
		updated, err := q.UpdateTransactionStatus(ctx, dbgen.UpdateTransactionStatusParams{
			ID:        t.ID,
			UserID:    sc.OwnerID,
			Status:    to,
			Completed: to == dbgen.TransactionStatusCompleted,
		})
		if err != nil {
			return fmt.Errorf("update transaction status: %w", err)
		}
		if ev, err := s.record(ctx, q, topics[to], updated.ID, map[string]any{
			"transaction_id": updated.ID,
			"owner_id":       sc.OwnerID,
			"from":           string(from),
			"to":             string(to),
		}); err != nil {
			return err
		} else if ev.ID != 0 {
			emitted = append(emitted, ev)
		}
		if restock {
			rr, ev, err := s.restock(ctx, q, sc, updated)
			if err != nil {
				return err
			}
			res.Restock = &rr
			if ev.ID != 0 {
				emitted = append(emitted, ev)
			}
			// Re-read so restocked_at is reflected.
			if updated, err = q.GetTransactionForUser(ctx, dbgen.GetTransactionForUserParams{ID: id, UserID: sc.OwnerID}); err != nil {
				return fmt.Errorf("reload transaction: %w", err)
			}
		}
		res.Transaction, err = s.withItems(ctx, q, updated)
		return err
	})
	if err != nil {
		return TransitionResult{}, err
	}

	obs.ObserveTransition(string(to))
	if res.Restock != nil {
		obs.ObserveRestock(res.Restock.Units)
	}
	s.publish(ctx, emitted)
	s.Logger.Info().
		Int64("owner_id", sc.OwnerID).
		Int64("transaction_id", id).
		Str("from", string(from)).
		Str("to", string(to)).
		Bool("restock", restock).
		Msg("transaction status changed")
	return res, nil
}

// Restock returns the units of a canceled transaction to inventory. It
// succeeds at most once per transaction.
func (s *Service) Restock(ctx context.Context, sc scope.Scope, id int64) (RestockResult, error) {
	if err := s.ready(sc); err != nil {
		return RestockResult{}, err
	}
	var (
		res RestockResult
		ev  dbgen.DomainEvent
	)
	err := s.Store.ExecTx(ctx, func(q dbgen.Querier) error {
		t, err := lockTransaction(ctx, q, sc, id)
		if err != nil {
			return err
		}
		res, ev, err = s.restock(ctx, q, sc, t)
		return err
	})
	if err != nil {
		return RestockResult{}, err
	}
	obs.ObserveRestock(res.Units)
	s.publish(ctx, []dbgen.DomainEvent{ev})
	s.Logger.Info().Int64("transaction_id", id).Int("units", res.Units).Msg("transaction restocked")
	return res, nil
}

func (s *Service) restock(ctx context.Context, q dbgen.Querier, sc scope.Scope, t dbgen.Transaction) (RestockResult, dbgen.DomainEvent, error) {
	if t.Status != dbgen.TransactionStatusCanceled {
		return RestockResult{}, dbgen.DomainEvent{}, ErrNotCanceled
	}
	n, err := q.MarkTransactionRestocked(ctx, dbgen.MarkTransactionRestockedParams{ID: t.ID, UserID: sc.OwnerID})
	if err != nil {
		return RestockResult{}, dbgen.DomainEvent{}, fmt.Errorf("mark restocked: %w", err)
	}
	if n == 0 {
		return RestockResult{}, dbgen.DomainEvent{}, ErrAlreadyRestocked
	}
	rows, err := q.ListTransactionItems(ctx, common.Int8(t.ID))
	if err != nil {
		return RestockResult{}, dbgen.DomainEvent{}, fmt.Errorf("list transaction items: %w", err)
	}
	res := RestockResult{TransactionID: t.ID}
	ledger := inventory.New(q)
	for _, r := range rows {
		if _, err := ledger.Restock(ctx, sc.OwnerID, r.ProductID, r.Quantity); err != nil {
			if errors.Is(err, inventory.ErrProductNotFound) {
				res.Skipped = append(res.Skipped, r.ProductID)
				continue
			}
			return RestockResult{}, dbgen.DomainEvent{}, err
		}
		res.Units += int(r.Quantity)
	}
	ev, err := s.record(ctx, q, events.TopicTransactionRestocked, t.ID, res)
	if err != nil {
		return RestockResult{}, dbgen.DomainEvent{}, err
	}
	return res, ev, nil
}

func lockTransaction(ctx context.Context, q dbgen.Querier, sc scope.Scope, id int64) (dbgen.Transaction, error) {
	t, err := q.GetTransactionForUpdate(ctx, dbgen.GetTransactionForUpdateParams{ID: id, UserID: sc.OwnerID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.Transaction{}, ErrNotFound
		}
		return dbgen.Transaction{}, fmt.Errorf("lock transaction: %w", err)
	}
	return t, nil
}

func (s *Service) withItems(ctx context.Context, q dbgen.Querier, t dbgen.Transaction) (View, error) {
	rows, err := q.ListTransactionItems(ctx, common.Int8(t.ID))
	if err != nil {
		return View{}, fmt.Errorf("list transaction items: %w", err)
	}
	v := viewOf(t)
	v.Items = linesOf(rows)
	return v, nil
}

func (s *Service) record(ctx context.Context, q dbgen.Querier, topic string, id int64, payload any) (dbgen.DomainEvent, error) {
	if s.Events == nil {
		return dbgen.DomainEvent{}, nil
	}
	return s.Events.Record(ctx, q, topic, id, payload)
}

func (s *Service) publish(ctx context.Context, evs []dbgen.DomainEvent) {
	if s.Events == nil {
		return
	}
	for _, ev := range evs {
		if ev.ID == 0 {
			continue
		}
		if err := s.Events.Publish(ctx, ev); err != nil {
			s.Logger.Error().Err(err).Str("topic", ev.Topic).Int64("aggregate_id", ev.AggregateID).Msg("publish event")
		}
	}
}
