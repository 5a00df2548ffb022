package service

import (
	"context"
	"sync"
	"time"

	"payout/internal/domain"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory ledger used where behaviour across many calls
// matters more than individual expectations.
type memStore struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	accountLocks map[int64]*sync.Mutex

	nextID       int64
	accounts     map[int64]*domain.Account
	withdrawals  map[int64]*domain.Withdrawal
	destinations map[int64]*domain.Destination
	passwords    map[int64]string
	ledger       []domain.LedgerEntry
}

func newMemStore() *memStore {
	return &memStore{
		accountLocks: make(map[int64]*sync.Mutex),
		accounts:     make(map[int64]*domain.Account),
		withdrawals:  make(map[int64]*domain.Withdrawal),
		destinations: make(map[int64]*domain.Destination),
		passwords:    make(map[int64]string),
	}
}

func (m *memStore) addMember(id int64, password string) {
	m.passwords[id] = password
}

func (m *memStore) addAccount(a domain.Account) {
	m.accounts[a.ID] = &a
	m.accountLocks[a.ID] = &sync.Mutex{}
}

func (m *memStore) addDestination(d domain.Destination) {
	m.destinations[d.ID] = &d
}

func (m *memStore) account(id int64) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.accounts[id]
}

func (m *memStore) withdrawalList() []domain.Withdrawal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Withdrawal, 0, len(m.withdrawals))
	for _, w := range m.withdrawals {
		out = append(out, *w)
	}
	return out
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx)
}

type memWithdrawals struct{ *memStore }

func (m memWithdrawals) Create(ctx context.Context, w *domain.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	w.ID = m.nextID
	cp := *w
	m.withdrawals[w.ID] = &cp
	return nil
}

func (m memWithdrawals) AssignSN(ctx context.Context, id int64, sn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.withdrawals[id]; w.SN == "" {
		w.SN = sn
	}
	return nil
}

func (m memWithdrawals) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.withdrawals[id]
	if !ok {
		return nil, domain.ErrWithdrawalNotFound
	}
	cp := *w
	return &cp, nil
}

func (m memWithdrawals) GetForUpdate(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return m.GetByID(ctx, id)
}

func (m memWithdrawals) UpdateState(ctx context.Context, id int64, from, to domain.State, txID *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.withdrawals[id]
	if w.State != from {
		return domain.ErrStateChanged
	}
	if txID != nil {
		for _, other := range m.withdrawals {
			if other.ID != id && other.TxID != nil && *other.TxID == *txID {
				return domain.ErrDuplicateTxID
			}
		}
		v := *txID
		w.TxID = &v
	}
	w.State = to
	w.UpdatedAt = at
	return nil
}

func (m memWithdrawals) MaxCompletedID(ctx context.Context, channel domain.ChannelType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max int64
	for _, w := range m.withdrawals {
		if w.AddressType == channel && w.State.IsCompleted() && w.ID > max {
			max = w.ID
		}
	}
	return max, nil
}

func (m memWithdrawals) CountInWindow(ctx context.Context, channel domain.ChannelType, afterID, uptoID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, w := range m.withdrawals {
		if w.AddressType == channel && w.ID > afterID && w.ID <= uptoID {
			n++
		}
	}
	return n, nil
}

type memAccounts struct{ *memStore }

func (m memAccounts) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m memAccounts) GetAvailableBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	a, err := m.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return a.Balance, nil
}

func (m memAccounts) WithLock(ctx context.Context, accountID int64, fn func(ctx context.Context) error) error {
	lock, ok := m.accountLocks[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

func (m memAccounts) Reserve(ctx context.Context, accountID int64, sum decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[accountID]
	if a.Balance.LessThan(sum) {
		return domain.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(sum)
	a.Locked = a.Locked.Add(sum)
	return nil
}

func (m memAccounts) Release(ctx context.Context, accountID int64, sum decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[accountID]
	a.Balance = a.Balance.Add(sum)
	a.Locked = a.Locked.Sub(sum)
	return nil
}

func (m memAccounts) Settle(ctx context.Context, accountID int64, sum decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[accountID]
	a.Locked = a.Locked.Sub(sum)
	return nil
}

func (m memAccounts) AddLedgerEntry(ctx context.Context, e *domain.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.ledger) + 1)
	m.ledger = append(m.ledger, *e)
	return nil
}

type memDestinations struct{ *memStore }

func (m memDestinations) GetByID(ctx context.Context, id int64) (*domain.Destination, error) {
	d, ok := m.destinations[id]
	if !ok {
		return nil, domain.ErrDestinationNotFound
	}
	cp := *d
	return &cp, nil
}

type memMembers struct{ *memStore }

func (m memMembers) Authenticate(ctx context.Context, memberID int64, password string) (bool, error) {
	return m.passwords[memberID] == password, nil
}

// recordingQueue counts enqueues per withdrawal.
type recordingQueue struct {
	mu    sync.Mutex
	calls map[int64]int
}

func newRecordingQueue() *recordingQueue {
	return &recordingQueue{calls: make(map[int64]int)}
}

func (q *recordingQueue) Enqueue(ctx context.Context, withdrawalID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls[withdrawalID]++
	return nil
}

func (q *recordingQueue) count(id int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls[id]
}
