package txstore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kjk/ledger/atomicfile"
)

// dataLog is the append-only file with encoded records.
// Every call opens and closes the file.
type dataLog struct {
	path string
	// if true, will call file.Sync() after every write
	syncWrite bool
}

// append writes tx at the end of the file and returns the offset at which
// it was written
func (l *dataLog) append(tx *Transaction) (int64, error) {
	d, err := encodeTransaction(tx)
	if err != nil {
		return 0, err
	}
	file, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return 0, ioErr("open", l.path, err)
	}
	off, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return 0, ioErr("seek", l.path, err)
	}
	if _, err = file.Write(d); err != nil {
		file.Close()
		return 0, ioErr("write", l.path, err)
	}
	if l.syncWrite {
		if err = file.Sync(); err != nil {
			file.Close()
			return 0, ioErr("sync", l.path, err)
		}
	}
	if err = file.Close(); err != nil {
		return 0, ioErr("close", l.path, err)
	}
	return off, nil
}

// markDeleted flips the deleted flag of the record at off.
// The flag is a single byte so this is the only safe in-place write.
func (l *dataLog) markDeleted(off int64) error {
	file, err := os.OpenFile(l.path, os.O_RDWR, 0644)
	if err != nil {
		return ioErr("open", l.path, err)
	}
	if _, err = file.WriteAt([]byte{1}, off); err != nil {
		file.Close()
		return ioErr("write", l.path, err)
	}
	if l.syncWrite {
		if err = file.Sync(); err != nil {
			file.Close()
			return ioErr("sync", l.path, err)
		}
	}
	return ioErr("close", l.path, file.Close())
}

// readAt decodes the record at off
func (l *dataLog) readAt(off int64) (*Transaction, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, ioErr("open", l.path, err)
	}
	defer file.Close()
	return readRecordAt(file, off)
}

// perf: when hydrating we read many records using the same file
func readRecordAt(file *os.File, off int64) (*Transaction, error) {
	if _, err := file.Seek(off, io.SeekStart); err != nil {
		return nil, ioErr("seek", file.Name(), err)
	}
	tx, err := decodeTransaction(bufio.NewReaderSize(file, 512))
	if err == nil {
		return tx, nil
	}
	if errors.Is(err, ErrCorruptRecord) {
		return nil, fmt.Errorf("%w (offset %d in '%s')", err, off, file.Name())
	}
	return nil, ioErr("read", file.Name(), err)
}

// replaceFile atomically replaces content of path with d
func replaceFile(path string, d []byte) error {
	return ioErr("replace", path, atomicfile.WriteFile(path, d, 0644))
}
