package txstore

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Layout of index file. All integers are big-endian.
//
//	count   int32
//	count times:
//	  id      16 bytes (most significant half first)
//	  offset  int64, position of the record in data file
const (
	indexHeaderSize = 4
	indexEntrySize  = 24
)

type indexEntry struct {
	ID     uuid.UUID
	Offset int64
}

func indexEntryPos(n int) int64 {
	return indexHeaderSize + int64(n)*indexEntrySize
}

func putIndexEntry(d []byte, e indexEntry) {
	copy(d[:16], e.ID[:])
	binary.BigEndian.PutUint64(d[16:24], uint64(e.Offset))
}

func serializeIndex(entries []indexEntry) []byte {
	d := make([]byte, indexEntryPos(len(entries)))
	binary.BigEndian.PutUint32(d[:4], uint32(len(entries)))
	for i, e := range entries {
		pos := indexEntryPos(i)
		putIndexEntry(d[pos:pos+indexEntrySize], e)
	}
	return d
}

// parseIndex parses content of index file.
// If there's less data than declared count of entries, it returns
// complete entries and the number of missing entries.
func parseIndex(d []byte) ([]indexEntry, int, error) {
	if len(d) == 0 {
		return nil, 0, nil
	}
	if len(d) < indexHeaderSize {
		// partially written header of an empty index
		return nil, 0, nil
	}
	count := int32(binary.BigEndian.Uint32(d[:4]))
	if count < 0 {
		return nil, 0, fmt.Errorf("%w: negative count %d", ErrCorruptIndex, count)
	}
	d = d[indexHeaderSize:]
	available := len(d) / indexEntrySize
	n := int(count)
	missing := 0
	if available < n {
		missing = n - available
		n = available
	}
	entries := make([]indexEntry, n)
	for i := range entries {
		e := d[i*indexEntrySize : (i+1)*indexEntrySize]
		copy(entries[i].ID[:], e[:16])
		entries[i].Offset = int64(binary.BigEndian.Uint64(e[16:24]))
		if entries[i].Offset < 0 {
			return nil, 0, fmt.Errorf("%w: entry %d has negative offset %d", ErrCorruptIndex, i, entries[i].Offset)
		}
	}
	return entries, missing, nil
}

type indexFile struct {
	path      string
	syncWrite bool
}

func (f *indexFile) load() ([]indexEntry, int, error) {
	d, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, ioErr("read", f.path, err)
	}
	return parseIndex(d)
}

// appendEntry writes e as entry number n (0-based) and sets count to n+1.
// Entry is written at its computed position rather than at the end of file
// so that a partial entry left by an earlier failed write gets overwritten.
// Entry is written before count so a failure in between leaves a valid index.
func (f *indexFile) appendEntry(n int, e indexEntry) error {
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return ioErr("open", f.path, err)
	}
	var entry [indexEntrySize]byte
	putIndexEntry(entry[:], e)
	var count [indexHeaderSize]byte
	binary.BigEndian.PutUint32(count[:], uint32(n+1))
	end := indexEntryPos(n + 1)

	if _, err = file.WriteAt(entry[:], indexEntryPos(n)); err != nil {
		file.Close()
		return ioErr("write", f.path, err)
	}
	if _, err = file.WriteAt(count[:], 0); err != nil {
		file.Close()
		return ioErr("write", f.path, err)
	}
	if err = file.Truncate(end); err != nil {
		file.Close()
		return ioErr("truncate", f.path, err)
	}
	if f.syncWrite {
		if err = file.Sync(); err != nil {
			file.Close()
			return ioErr("sync", f.path, err)
		}
	}
	return ioErr("close", f.path, file.Close())
}

// rewrite replaces the whole index file with entries
func (f *indexFile) rewrite(entries []indexEntry) error {
	return replaceFile(f.path, serializeIndex(entries))
}

func (f *indexFile) size() (int64, error) {
	st, err := os.Stat(f.path)
	if err != nil {
		return 0, ioErr("stat", f.path, err)
	}
	return st.Size(), nil
}
