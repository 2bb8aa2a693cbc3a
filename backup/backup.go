// Package backup archives the data and index files of a ledger account
// and ships the archive to a target: a local directory, an S3-compatible
// bucket, a server over SFTP or an HTTP endpoint.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kjk/ledger/atomicfile"
	"github.com/kjk/ledger/log"
	"github.com/kjk/ledger/u"
)

// Target stores a named blob
type Target interface {
	Put(ctx context.Context, name string, data []byte) error
	String() string
}

// ArchiveName returns e.g. "alice-20240115-093000.zip.zst"
func ArchiveName(account string, t time.Time, c u.Compression) string {
	return account + "-" + t.UTC().Format("20060102-150405") + ".zip" + c.Ext()
}

// CreateArchive reads files and creates a zip archive compressed with c.
// Files are stored under their base names.
func CreateArchive(paths []string, c u.Compression) ([]byte, error) {
	var names []string
	files := map[string][]byte{}
	for _, path := range paths {
		d, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		names = append(names, name)
		files[name] = d
	}
	zipData, err := u.ZipData(names, files)
	if err != nil {
		return nil, err
	}
	return u.Compress(zipData, c)
}

// Run archives paths and uploads the archive to target. Returns the name
// of the archive.
func Run(ctx context.Context, account string, paths []string, target Target, c u.Compression, now time.Time) (string, error) {
	timeStart := time.Now()
	d, err := CreateArchive(paths, c)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	name := ArchiveName(account, now, c)
	if err = target.Put(ctx, name, d); err != nil {
		return "", fmt.Errorf("failed to upload '%s' to %s: %w", name, target, err)
	}
	dur := time.Since(timeStart)
	log.Verbosef("backup: uploaded '%s' (%s) to %s in %s\n", name, u.FormatSize(int64(len(d))), target, dur)
	log.EventWithDuration("backup", dur, "account", account, "target", target.String(), "name", name, "size", len(d))
	return name, nil
}

// Restore extracts an archive created by CreateArchive into dir.
// Compression is deduced from file extension. Only files named
// <account>.dat and <account>.idx are extracted and both must be present.
func Restore(archivePath string, dir string, account string) error {
	d, err := os.ReadFile(archivePath)
	if err != nil {
		return err
	}
	zipData, err := u.Decompress(d, u.CompressionFromFileName(archivePath))
	if err != nil {
		return fmt.Errorf("failed to decompress '%s': %w", archivePath, err)
	}
	files, err := u.ReadZipData(zipData)
	if err != nil {
		return fmt.Errorf("failed to read archive '%s': %w", archivePath, err)
	}
	want := []string{account + ".dat", account + ".idx"}
	for _, name := range want {
		if _, ok := files[name]; !ok {
			var got []string
			for k := range files {
				got = append(got, k)
			}
			return fmt.Errorf("archive '%s' has no '%s' (has: %s)", archivePath, name, strings.Join(got, ", "))
		}
	}
	if err = os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, name := range want {
		if err = atomicfile.WriteFile(filepath.Join(dir, name), files[name], 0644); err != nil {
			return err
		}
	}
	log.Event("restore", "account", account, "archive", archivePath)
	return nil
}
