package txstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kjk/ledger/log"
)

const (
	dataFileExt  = ".dat"
	indexFileExt = ".idx"
)

type Store struct {
	DataDir string
	// name of the account, data is stored in <Account>.dat and <Account>.idx
	Account string
	// if true, will call file.Sync() after every write
	SyncWrite bool

	dataFilePath  string
	indexFilePath string
	data          *dataLog
	index         *indexFile

	// ids in index file order
	order   []uuid.UUID
	offsets map[uuid.UUID]int64
	// every record in the index, including deleted
	cache map[uuid.UUID]*Transaction
	// non-nil if index file was truncated or had duplicate entries
	recovered error
	// index file doesn't match order / offsets, the next index write
	// must rewrite it in full
	indexStale bool
	mu        sync.Mutex
}

var _ Ledger = (*Store)(nil)

func validateAccount(account string) error {
	if account == "" {
		return fmt.Errorf("account is not set")
	}
	if strings.ContainsAny(account, `/\`) || account == "." || account == ".." {
		return fmt.Errorf("invalid account name '%s'", account)
	}
	return nil
}

// OpenStore creates data directory and files if needed and loads all
// records into memory.
// If the index file is shorter than its declared size, complete entries
// are loaded and Recovered() reports what was dropped.
func OpenStore(s *Store) error {
	if s.DataDir == "" {
		return fmt.Errorf("data directory is not set. For current directory, use '.'")
	}
	if err := validateAccount(s.Account); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	s.dataFilePath, err = filepath.Abs(filepath.Join(s.DataDir, s.Account+dataFileExt))
	if err != nil {
		return fmt.Errorf("failed to get absolute path for data file: %w", err)
	}
	s.indexFilePath, err = filepath.Abs(filepath.Join(s.DataDir, s.Account+indexFileExt))
	if err != nil {
		return fmt.Errorf("failed to get absolute path for index file: %w", err)
	}
	s.data = &dataLog{path: s.dataFilePath, syncWrite: s.SyncWrite}
	s.index = &indexFile{path: s.indexFilePath, syncWrite: s.SyncWrite}
	s.resetState()

	if err = os.MkdirAll(s.DataDir, 0755); err != nil {
		return ioErr("create dir", s.DataDir, err)
	}
	if _, err = os.Stat(s.dataFilePath); os.IsNotExist(err) {
		// index without data is useless, start from scratch
		if err = os.Remove(s.indexFilePath); err != nil && !os.IsNotExist(err) {
			return ioErr("remove", s.indexFilePath, err)
		}
		if err = createEmptyFile(s.dataFilePath); err != nil {
			return err
		}
		if err = createEmptyFile(s.indexFilePath); err != nil {
			return err
		}
		log.Verbosef("txstore: created '%s'\n", s.dataFilePath)
		return nil
	} else if err != nil {
		return ioErr("stat", s.dataFilePath, err)
	}

	entries, missing, err := s.index.load()
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	var problems []error
	if missing > 0 {
		problems = append(problems, fmt.Errorf("%w: '%s' is missing %d of %d entries, loaded %d", ErrCorruptIndex, s.indexFilePath, missing, missing+len(entries), len(entries)))
	}
	dups, err := s.hydrate(entries)
	if err != nil {
		s.resetState()
		return err
	}
	if dups > 0 {
		// appending at len(s.order) would overwrite live entries
		s.indexStale = true
		problems = append(problems, fmt.Errorf("%w: '%s' has %d duplicate entries", ErrCorruptIndex, s.indexFilePath, dups))
	}
	if len(problems) > 0 {
		s.recovered = errors.Join(problems...)
		log.Logf("txstore: warning: %s\n", s.recovered)
	}
	log.Verbosef("txstore: opened '%s', %d records\n", s.dataFilePath, len(s.order))
	return nil
}

func createEmptyFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return ioErr("create", path, err)
	}
	return ioErr("close", path, f.Close())
}

func (s *Store) resetState() {
	s.order = nil
	s.offsets = map[uuid.UUID]int64{}
	s.cache = map[uuid.UUID]*Transaction{}
	s.recovered = nil
	s.indexStale = false
}

func (s *Store) indexEntries() []indexEntry {
	res := make([]indexEntry, len(s.order))
	for i, id := range s.order {
		res[i] = indexEntry{ID: id, Offset: s.offsets[id]}
	}
	return res
}

// hydrate loads records pointed to by entries. For a duplicated id the
// last entry wins and the id keeps its first position. Returns the number
// of duplicate entries.
func (s *Store) hydrate(entries []indexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	file, err := os.Open(s.dataFilePath)
	if err != nil {
		return 0, ioErr("open", s.dataFilePath, err)
	}
	defer file.Close()

	dups := 0
	for _, e := range entries {
		tx, err := readRecordAt(file, e.Offset)
		if err != nil {
			return 0, fmt.Errorf("failed to load record %s: %w", e.ID, err)
		}
		tx.ID = e.ID
		if _, ok := s.offsets[e.ID]; ok {
			dups++
		} else {
			s.order = append(s.order, e.ID)
		}
		s.offsets[e.ID] = e.Offset
		s.cache[e.ID] = tx
	}
	return dups, nil
}

// Recovered returns an error wrapping ErrCorruptIndex if OpenStore had to
// drop entries from a truncated index file or found duplicate entries
func (s *Store) Recovered() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovered
}

// Name returns the account name
func (s *Store) Name() string {
	return s.Account
}

// Paths returns paths of data and index files
func (s *Store) Paths() (dataPath string, indexPath string) {
	return s.dataFilePath, s.indexFilePath
}

// Len returns number of records, including deleted
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Store) Add(tx *Transaction) error {
	if tx == nil {
		return fmt.Errorf("transaction is nil")
	}
	rec := tx.Clone()
	rec.Amount = RoundAmount(rec.Amount)
	rec.OccurredAt = normalizeTime(rec.OccurredAt)
	if err := validateTransaction(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.offsets[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	off, err := s.data.append(rec)
	if err != nil {
		return err
	}
	e := indexEntry{ID: rec.ID, Offset: off}
	if s.indexStale {
		err = s.index.rewrite(append(s.indexEntries(), e))
	} else {
		err = s.index.appendEntry(len(s.order), e)
	}
	if err != nil {
		return err
	}
	s.indexStale = false
	s.order = append(s.order, rec.ID)
	s.offsets[rec.ID] = off
	s.cache[rec.ID] = rec

	log.Verbosef("txstore: added %s at offset %d\n", rec.ID, off)
	log.Event("tx-add", "account", s.Account, "id", rec.ID.String(), "kind", rec.Kind.String(), "category", rec.Category.String(), "amount", rec.Amount.StringFixed(AmountScale))
	return nil
}

// GetByID returns a copy of a live transaction. Deleted transactions are
// reported as ErrNotFound.
func (s *Store) GetByID(id string) (*Transaction, error) {
	uid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.getLive(uid)
	if err != nil {
		return nil, err
	}
	return tx.Clone(), nil
}

func (s *Store) getLive(id uuid.UUID) (*Transaction, error) {
	tx, ok := s.cache[id]
	if !ok || tx.Deleted {
		return nil, notFound(id)
	}
	return tx, nil
}

// List returns copies of transactions with Deleted == deleted, oldest first.
// Transactions with the same time are in the order they were added.
func (s *Store) List(deleted bool) []*Transaction {
	s.mu.Lock()
	var res []*Transaction
	for _, id := range s.order {
		tx := s.cache[id]
		if tx.Deleted == deleted {
			res = append(res, tx.Clone())
		}
	}
	s.mu.Unlock()
	sortByTime(res)
	return res
}

func sortByTime(txs []*Transaction) {
	slices.SortStableFunc(txs, func(a, b *Transaction) int {
		return a.OccurredAt.Compare(b.OccurredAt)
	})
}

// Update merges upd into a live transaction and returns the merged copy.
// The merged record is appended to the data file, the old one is marked
// deleted and the index is rewritten to point to the new one.
func (s *Store) Update(id string, upd *Update) (*Transaction, error) {
	uid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.getLive(uid)
	if err != nil {
		return nil, err
	}
	merged := upd.apply(cur)
	if err = validateTransaction(merged); err != nil {
		return nil, err
	}

	oldOff := s.offsets[uid]
	newOff, err := s.data.append(merged)
	if err != nil {
		return nil, err
	}
	if err = s.data.markDeleted(oldOff); err != nil {
		return nil, err
	}
	entries := s.indexEntries()
	for i := range entries {
		if entries[i].ID == uid {
			entries[i].Offset = newOff
		}
	}
	if err = s.index.rewrite(entries); err != nil {
		return nil, err
	}
	s.indexStale = false
	s.offsets[uid] = newOff
	s.cache[uid] = merged

	log.Verbosef("txstore: updated %s, offset %d => %d\n", uid, oldOff, newOff)
	log.Event("tx-update", "account", s.Account, "id", uid.String(), "old_offset", oldOff, "new_offset", newOff)
	return merged.Clone(), nil
}

// Delete marks a transaction as deleted. Unlike GetByID it also finds
// transactions that are already deleted.
func (s *Store) Delete(id string) error {
	uid, err := ParseID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.cache[uid]
	if !ok {
		return notFound(uid)
	}
	if err = s.data.markDeleted(s.offsets[uid]); err != nil {
		return err
	}
	tx.Deleted = true

	log.Verbosef("txstore: deleted %s\n", uid)
	log.Event("tx-delete", "account", s.Account, "id", uid.String())
	return nil
}

// Clear with all == true removes all records.
// Clear with all == false compacts: deleted records are dropped and the
// remaining ones are re-written to fresh data and index files.
func (s *Store) Clear(all bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if all {
		if err := replaceFile(s.dataFilePath, nil); err != nil {
			return err
		}
		n := len(s.order)
		s.resetState()
		if err := replaceFile(s.indexFilePath, nil); err != nil {
			s.indexStale = true
			return err
		}
		log.Verbosef("txstore: cleared %d records\n", n)
		log.Event("tx-clear", "account", s.Account, "removed", n)
		return nil
	}

	var data []byte
	var entries []indexEntry
	for _, id := range s.order {
		tx := s.cache[id]
		if tx.Deleted {
			continue
		}
		d, err := encodeTransaction(tx)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", id, err)
		}
		entries = append(entries, indexEntry{ID: id, Offset: int64(len(data))})
		data = append(data, d...)
	}
	if err := replaceFile(s.dataFilePath, data); err != nil {
		return err
	}

	// offsets must follow the new data file even if writing index fails
	removed := len(s.order) - len(entries)
	cache := map[uuid.UUID]*Transaction{}
	offsets := map[uuid.UUID]int64{}
	order := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		order = append(order, e.ID)
		offsets[e.ID] = e.Offset
		cache[e.ID] = s.cache[e.ID]
	}
	s.order, s.offsets, s.cache = order, offsets, cache

	if err := replaceFile(s.indexFilePath, serializeIndex(entries)); err != nil {
		s.indexStale = true
		return err
	}
	s.indexStale = false

	log.Verbosef("txstore: compacted, removed %d records, data is %d bytes\n", removed, len(data))
	log.Event("tx-compact", "account", s.Account, "removed", removed, "kept", len(entries))
	return nil
}

// Verify re-reads every record from disk and checks that data and index
// files agree with what's in memory
func (s *Store) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size, err := s.index.size()
	if err != nil {
		return err
	}
	if exp := indexEntryPos(len(s.order)); size != exp && !(size == 0 && len(s.order) == 0) {
		return fmt.Errorf("%w: '%s' is %d bytes, expected %d", ErrCorruptIndex, s.indexFilePath, size, exp)
	}
	for _, id := range s.order {
		tx, err := s.data.readAt(s.offsets[id])
		if err != nil {
			return fmt.Errorf("failed to read record %s: %w", id, err)
		}
		tx.ID = id
		if !sameTransaction(tx, s.cache[id]) {
			return fmt.Errorf("%w: record %s on disk is '%s', in memory is '%s'", ErrCorruptRecord, id, tx, s.cache[id])
		}
	}
	log.Verbosef("txstore: verified %d records in '%s'\n", len(s.order), s.dataFilePath)
	return nil
}

func sameTransaction(a, b *Transaction) bool {
	return a.ID == b.ID && a.Kind == b.Kind && a.Category == b.Category &&
		a.Amount.Equal(b.Amount) && a.Description == b.Description &&
		a.OccurredAt.Equal(b.OccurredAt) && a.Deleted == b.Deleted
}

func validateTransaction(tx *Transaction) error {
	if tx.ID == uuid.Nil {
		return fmt.Errorf("transaction id is not set")
	}
	if !tx.Kind.Valid() {
		return fmt.Errorf("invalid kind %s", tx.Kind)
	}
	if !tx.Category.Valid() {
		return fmt.Errorf("invalid category %s", tx.Category)
	}
	if len(tx.Description) > maxStringLen {
		return fmt.Errorf("description too long (%d bytes), max is %d", len(tx.Description), maxStringLen)
	}
	return nil
}
