package backup

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kjk/ledger/atomicfile"
)

// DirTarget stores archives in a local directory
type DirTarget struct {
	Dir string
}

func (t *DirTarget) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(t.Dir, 0755); err != nil {
		return err
	}
	return atomicfile.WriteFile(filepath.Join(t.Dir, name), data, 0644)
}

func (t *DirTarget) String() string {
	return "dir '" + t.Dir + "'"
}
