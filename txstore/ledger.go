package txstore

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Ledger is what the CLI needs from a store of transactions
type Ledger interface {
	Name() string
	Add(tx *Transaction) error
	List(deleted bool) []*Transaction
	GetByID(id string) (*Transaction, error)
	Update(id string, upd *Update) (*Transaction, error)
	Delete(id string) error
	Clear(all bool) error
}

// MemStore is a Ledger that only lives in memory.
// Semantics are the same as Store.
type MemStore struct {
	Account string

	order []uuid.UUID
	txs   map[uuid.UUID]*Transaction
	mu    sync.Mutex
}

var _ Ledger = (*MemStore)(nil)

func NewMemStore(account string) *MemStore {
	return &MemStore{
		Account: account,
		txs:     map[uuid.UUID]*Transaction{},
	}
}

func (m *MemStore) Name() string {
	return m.Account
}

func (m *MemStore) Add(tx *Transaction) error {
	if tx == nil {
		return fmt.Errorf("transaction is nil")
	}
	rec := tx.Clone()
	rec.Amount = RoundAmount(rec.Amount)
	rec.OccurredAt = normalizeTime(rec.OccurredAt)
	if err := validateTransaction(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.txs == nil {
		m.txs = map[uuid.UUID]*Transaction{}
	}
	if _, ok := m.txs[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	m.order = append(m.order, rec.ID)
	m.txs[rec.ID] = rec
	return nil
}

func (m *MemStore) List(deleted bool) []*Transaction {
	m.mu.Lock()
	var res []*Transaction
	for _, id := range m.order {
		if tx := m.txs[id]; tx.Deleted == deleted {
			res = append(res, tx.Clone())
		}
	}
	m.mu.Unlock()
	sortByTime(res)
	return res
}

func (m *MemStore) getLive(id string) (*Transaction, error) {
	uid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	tx, ok := m.txs[uid]
	if !ok || tx.Deleted {
		return nil, notFound(uid)
	}
	return tx, nil
}

func (m *MemStore) GetByID(id string) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, err := m.getLive(id)
	if err != nil {
		return nil, err
	}
	return tx.Clone(), nil
}

func (m *MemStore) Update(id string, upd *Update) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, err := m.getLive(id)
	if err != nil {
		return nil, err
	}
	merged := upd.apply(cur)
	if err = validateTransaction(merged); err != nil {
		return nil, err
	}
	m.txs[merged.ID] = merged
	return merged.Clone(), nil
}

func (m *MemStore) Delete(id string) error {
	uid, err := ParseID(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[uid]
	if !ok {
		return notFound(uid)
	}
	tx.Deleted = true
	return nil
}

func (m *MemStore) Clear(all bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var order []uuid.UUID
	txs := map[uuid.UUID]*Transaction{}
	if !all {
		for _, id := range m.order {
			if tx := m.txs[id]; !tx.Deleted {
				order = append(order, id)
				txs[id] = tx
			}
		}
	}
	m.order, m.txs = order, txs
	return nil
}
