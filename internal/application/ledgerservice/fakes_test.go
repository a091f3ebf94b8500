package ledgerservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baajur/payments-gateway/internal/domain"
)

// The fakes below model the storage layer as a single serialized in-memory
// store: the executor's lock plays the role of the database, and a failed
// scoped transaction restores the pre-transaction snapshot.

type fakeState struct {
	accounts     map[uuid.UUID]domain.Account
	transactions map[uuid.UUID]domain.Transaction
}

func newFakeState() *fakeState {
	return &fakeState{
		accounts:     make(map[uuid.UUID]domain.Account),
		transactions: make(map[uuid.UUID]domain.Transaction),
	}
}

func (s *fakeState) clone() *fakeState {
	c := newFakeState()
	for id, a := range s.accounts {
		c.accounts[id] = a
	}
	for id, tx := range s.transactions {
		c.transactions[id] = tx
	}
	return c
}

type fakeExecutor struct {
	mu    sync.Mutex
	state *fakeState
}

func (e *fakeExecutor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(ctx)
}

func (e *fakeExecutor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.state.clone()
	if err := fn(ctx); err != nil {
		*e.state = *snapshot
		return err
	}
	return nil
}

type fakeAccountRepo struct {
	state *fakeState
}

func (r *fakeAccountRepo) Create(ctx context.Context, payload domain.NewAccount) (*domain.Account, error) {
	if _, ok := r.state.accounts[payload.ID]; ok {
		return nil, fmt.Errorf("account %s: %w", payload.ID, domain.ErrConflict)
	}
	now := time.Now()
	account := domain.Account{
		ID:             payload.ID,
		UserID:         payload.UserID,
		Currency:       payload.Currency,
		AccountAddress: domain.GenerateAddress(payload.Currency),
		Name:           payload.Name,
		Balance:        domain.ZeroAmount(payload.Currency),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.state.accounts[payload.ID] = account
	return &account, nil
}

func (r *fakeAccountRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, ok := r.state.accounts[id]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (r *fakeAccountRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) (*domain.Account, error) {
	account, ok := r.state.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	account.Name = name
	account.UpdatedAt = time.Now()
	r.state.accounts[id] = account
	return &account, nil
}

func (r *fakeAccountRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Account, error) {
	var accounts []*domain.Account
	for _, a := range r.state.accounts {
		if a.UserID == userID {
			account := a
			accounts = append(accounts, &account)
		}
	}
	return accounts, nil
}

func (r *fakeAccountRepo) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal, currency domain.Currency) (*domain.Account, error) {
	account, ok := r.state.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	if account.Currency != currency {
		return nil, fmt.Errorf("account %s holds %s, not %s: %w", id, account.Currency, currency, domain.ErrCurrencyMismatch)
	}

	next := account.Balance.Value.Add(delta)
	if next.IsNegative() {
		return nil, domain.ErrInsufficientFunds
	}

	account.Balance = domain.NewAmount(next, account.Currency)
	account.UpdatedAt = time.Now()
	r.state.accounts[id] = account
	return &account, nil
}

type fakeTransactionRepo struct {
	state *fakeState
}

func (r *fakeTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if _, ok := r.state.transactions[tx.ID]; ok {
		return nil, fmt.Errorf("transaction %s: %w", tx.ID, domain.ErrConflict)
	}
	stored := *tx
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.state.transactions[tx.ID] = stored
	return &stored, nil
}

func (r *fakeTransactionRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, ok := r.state.transactions[id]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (r *fakeTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, balanceApplied bool) (*domain.Transaction, error) {
	tx, ok := r.state.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	tx.Status = status
	tx.BalanceApplied = balanceApplied
	tx.UpdatedAt = time.Now()
	r.state.transactions[id] = tx
	return &tx, nil
}

func (r *fakeTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	for _, t := range r.state.transactions {
		if t.UserID == userID {
			tx := t
			transactions = append(transactions, &tx)
		}
	}
	return transactions, nil
}

func (r *fakeTransactionRepo) ListDueHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Transaction, error) {
	var due []*domain.Transaction
	for _, t := range r.state.transactions {
		if t.Status == domain.StatusPending && !t.BalanceApplied &&
			t.HoldUntil != nil && !t.HoldUntil.After(now) {
			tx := t
			due = append(due, &tx)
			if len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	callbacks []domain.Callback
	pushes    []domain.PushNotification
	fail      bool
}

func (p *fakePublisher) Init(ctx context.Context) error { return nil }

func (p *fakePublisher) Push(ctx context.Context, event domain.PushNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("publish: %w", domain.ErrBrokerUnavailable)
	}
	p.pushes = append(p.pushes, event)
	return nil
}

func (p *fakePublisher) Callback(ctx context.Context, event domain.Callback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("publish: %w", domain.ErrBrokerUnavailable)
	}
	p.callbacks = append(p.callbacks, event)
	return nil
}

func (p *fakePublisher) Alive() bool { return true }

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) callbackCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.callbacks)
}

type fakeExchangeClient struct {
	lock *domain.RateLock
	err  error
}

func (c *fakeExchangeClient) GetRateLock(ctx context.Context, exchangeID uuid.UUID) (*domain.RateLock, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.lock, nil
}

type settlementOrderRecord struct {
	transactionID uuid.UUID
	from          uuid.UUID
	toAddress     string
	value         decimal.Decimal
	currency      domain.Currency
}

type fakeSettlementClient struct {
	mu     sync.Mutex
	orders []settlementOrderRecord
	fail   bool
}

func (c *fakeSettlementClient) Submit(ctx context.Context, transactionID, from uuid.UUID, toAddress string, value decimal.Decimal, currency domain.Currency) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return fmt.Errorf("settlement gateway down")
	}
	c.orders = append(c.orders, settlementOrderRecord{transactionID, from, toAddress, value, currency})
	return nil
}
