package backup

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert"
	"github.com/kjk/ledger/txstore"
	"github.com/kjk/ledger/u"
	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T, dir string) *txstore.Store {
	s := &txstore.Store{
		DataDir: dir,
		Account: "alice",
	}
	err := txstore.OpenStore(s)
	assert.NoError(t, err)
	return s
}

func TestArchiveName(t *testing.T) {
	tm := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "alice-20240115-093000.zip.zst", ArchiveName("alice", tm, u.CompressionZstd))
	assert.Equal(t, "alice-20240115-093000.zip.br", ArchiveName("alice", tm, u.CompressionBrotli))
	assert.Equal(t, "alice-20240115-093000.zip", ArchiveName("alice", tm, u.CompressionNone))
}

func TestBackupAndRestore(t *testing.T) {
	srcDir := t.TempDir()
	s := openTestStore(t, srcDir)
	tm := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	tx := txstore.NewTransaction(txstore.Income, txstore.Salary, decimal.RequireFromString("1200.50"), "pay", tm)
	assert.NoError(t, s.Add(tx))
	tx2 := txstore.NewTransaction(txstore.Expense, txstore.Food, decimal.RequireFromString("12.30"), "lunch", tm.Add(time.Hour))
	assert.NoError(t, s.Add(tx2))
	assert.NoError(t, s.Delete(tx2.ID.String()))

	for _, c := range []u.Compression{u.CompressionNone, u.CompressionZstd, u.CompressionBrotli} {
		backupDir := t.TempDir()
		target := &DirTarget{Dir: backupDir}
		dataPath, indexPath := s.Paths()
		name, err := Run(context.Background(), "alice", []string{dataPath, indexPath}, target, c, tm)
		assert.NoError(t, err)
		assert.Equal(t, ArchiveName("alice", tm, c), name)

		dstDir := t.TempDir()
		err = Restore(filepath.Join(backupDir, name), dstDir, "alice")
		assert.NoError(t, err)

		s2 := openTestStore(t, dstDir)
		assert.NoError(t, s2.Recovered())
		live := s2.List(false)
		assert.Equal(t, 1, len(live))
		assert.Equal(t, tx.ID, live[0].ID)
		assert.Equal(t, "1200.50", live[0].Amount.StringFixed(2))
		deleted := s2.List(true)
		assert.Equal(t, 1, len(deleted))
		assert.Equal(t, tx2.ID, deleted[0].ID)
	}
}

func TestRestoreMissingFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "alice.dat")
	assert.NoError(t, os.WriteFile(p, []byte("data"), 0644))
	d, err := CreateArchive([]string{p}, u.CompressionNone)
	assert.NoError(t, err)
	archivePath := filepath.Join(dir, "a.zip")
	assert.NoError(t, os.WriteFile(archivePath, d, 0644))

	dstDir := t.TempDir()
	err = Restore(archivePath, dstDir, "alice")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "alice.idx")
	assert.False(t, u.FileExists(filepath.Join(dstDir, "alice.dat")))
}

func TestHTTPTarget(t *testing.T) {
	var gotName, gotKey, gotMethod string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotName = r.URL.Query().Get("name")
		gotKey = r.Header.Get("X-Api-Key")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	target := &HTTPTarget{URL: srv.URL + "/upload", APIKey: "secret"}
	err := target.Put(context.Background(), "alice.zip", []byte("archive"))
	assert.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "alice.zip", gotName)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "archive", string(gotBody))
}

func TestHTTPTargetError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	target := &HTTPTarget{URL: srv.URL}
	_, err := Run(context.Background(), "alice", nil, target, u.CompressionNone, time.Now())
	assert.Error(t, err)
}

func TestTargetConfigValidation(t *testing.T) {
	_, err := NewMinioTarget(context.Background(), &MinioConfig{Bucket: "b"})
	assert.Error(t, err)
	_, err = NewSFTPTarget(&SFTPConfig{User: "u", Host: "h"})
	assert.Error(t, err)
	st, err := NewSFTPTarget(&SFTPConfig{User: "u", Host: "h", PrivateKeyPath: "k", Dir: "/backups"})
	assert.NoError(t, err)
	assert.Equal(t, "sftp 'u@h:/backups'", st.String())
}
