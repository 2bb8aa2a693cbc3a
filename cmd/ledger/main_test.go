package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kjk/ledger/require"
	"github.com/kjk/ledger/txstore"
)

var testNow = time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)

func runLedger(t *testing.T, dataDir string, sub string, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	a.loc = time.UTC
	a.now = func() time.Time { return testNow }
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	all := []string{sub, "--config", filepath.Join(dataDir, "missing.yaml"), "--data-dir", dataDir, "-U", "alice"}
	cmd.SetArgs(append(all, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dataDir string, sub string, args ...string) string {
	t.Helper()
	out, err := runLedger(t, dataDir, sub, args...)
	require.NoError(t, err, "ledger %s %s", sub, strings.Join(args, " "))
	return out
}

func addTx(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out := mustRun(t, dataDir, "add", args...)
	id := strings.TrimSpace(out)
	_, err := txstore.ParseID(id)
	require.NoError(t, err)
	return id
}

func listLine(id, date, kind, category, amount, desc string) string {
	return fmt.Sprintf("%-38s%-21s%-9s%-10s%-8s%s\n", id, date, kind, category, amount, desc)
}

func TestAddListBalance(t *testing.T) {
	dir := t.TempDir()
	idB := addTx(t, dir, "-t", "expense", "-c", "rent", "-a", "500", "-d", "rent", "--date", "2024-01-16 10:00")
	idA := addTx(t, dir, "-t", "INCOME", "-c", "food", "-a", "10.00", "-d", "lunch", "--date", "2024-01-15 09:30")

	out := mustRun(t, dir, "list")
	exp := listLine("ID", "DATE", "TYPE", "CATEGORY", "AMOUNT", "DESCRIPTION") +
		listLine(idA, "2024-01-15 09:30:00", "INCOME", "FOOD", "10.00", "lunch") +
		listLine(idB, "2024-01-16 10:00:00", "EXPENSE", "RENT", "500.00", "rent")
	require.Equal(t, exp, out)

	out = mustRun(t, dir, "balance")
	require.Equal(t, "-490.00\n", out)

	out = mustRun(t, dir, "verify")
	require.Equal(t, "ok, 2 records, data: 81 bytes, index: 52 bytes\n", out)
}

func TestAddDefaultsToNow(t *testing.T) {
	dir := t.TempDir()
	id := addTx(t, dir, "-t", "income", "-c", "salary", "-a", "1")
	out := mustRun(t, dir, "show", id)
	require.Contains(t, out, "date:        2024-02-20 12:00:00\n")
	require.Contains(t, out, "amount:      1.00\n")
}

func TestAddInvalid(t *testing.T) {
	dir := t.TempDir()
	_, err := runLedger(t, dir, "add", "-t", "gift", "-c", "food", "-a", "1")
	require.NotNil(t, err)
	_, err = runLedger(t, dir, "add", "-t", "income", "-c", "food", "-a", "1.234")
	require.NotNil(t, err)
	_, err = runLedger(t, dir, "add", "-t", "income", "-c", "food", "-a", "1", "--date", "yesterday")
	require.NotNil(t, err)
	_, err = runLedger(t, dir, "add", "-t", "income", "-c", "food")
	require.NotNil(t, err)
	out := mustRun(t, dir, "list")
	require.Equal(t, "ID  DATE  TYPE  CATEGORY  AMOUNT  DESCRIPTION\n", out)
}

func TestDeleteUpdateShow(t *testing.T) {
	dir := t.TempDir()
	idA := addTx(t, dir, "-t", "income", "-c", "food", "-a", "10", "-d", "lunch", "--date", "2024-01-15 09:30")
	idB := addTx(t, dir, "-t", "expense", "-c", "rent", "-a", "500", "-d", "rent", "--date", "2024-01-16 10:00")

	out := mustRun(t, dir, "delete", idA)
	require.Equal(t, "deleted "+idA+"\n", out)
	_, err := runLedger(t, dir, "show", idA)
	require.ErrorIs(t, err, txstore.ErrNotFound)
	out = mustRun(t, dir, "list", "--deleted")
	require.Contains(t, out, idA)
	require.False(t, strings.Contains(out, idB))

	out = mustRun(t, dir, "update", idB, "-d", "monthly rent")
	require.Contains(t, out, "description: monthly rent\n")
	out = mustRun(t, dir, "show", idB)
	exp := `id:          ` + idB + `
date:        2024-01-16 10:00:00
type:        EXPENSE
category:    RENT
amount:      500.00
description: monthly rent
`
	require.Equal(t, exp, out)

	_, err = runLedger(t, dir, "update", idB)
	require.NotNil(t, err)
	_, err = runLedger(t, dir, "update", "not-an-id", "-a", "5")
	require.ErrorIs(t, err, txstore.ErrMalformedID)

	out = mustRun(t, dir, "clear")
	require.Equal(t, "removed 1, kept 1\n", out)
	out = mustRun(t, dir, "list", "--deleted")
	require.False(t, strings.Contains(out, idA))

	out = mustRun(t, dir, "clear", "--all")
	require.Equal(t, "removed 1, kept 0\n", out)
	require.Equal(t, "0.00\n", mustRun(t, dir, "balance"))
}

func TestSummary(t *testing.T) {
	dir := t.TempDir()
	addTx(t, dir, "-t", "income", "-c", "salary", "-a", "3000", "--date", "2023-11-10 08:00")
	addTx(t, dir, "-t", "expense", "-c", "food", "-a", "45.55", "--date", "2024-02-10 12:00")
	out := mustRun(t, dir, "summary")
	exp := `Transactions:   2
Total income:   3000.00
Total expense:  45.55
Balance:        2954.45
First:          2023-11-10 08:00:00
Last:           2024-02-10 12:00:00
Since first:    0 years 3 months 10 days
Since last:     240h0m0s
`
	require.Equal(t, exp, out)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	id := addTx(t, dir, "-t", "income", "-c", "salary", "-a", "3000", "-d", "pay", "--date", "2023-11-10 08:00")

	out := mustRun(t, dir, "export")
	var v struct {
		Account      string                `json:"account"`
		Transactions []exportedTransaction `json:"transactions"`
	}
	err := json.Unmarshal([]byte(out), &v)
	require.NoError(t, err)
	require.Equal(t, "alice", v.Account)
	exp := []exportedTransaction{{
		ID:          id,
		Date:        "2023-11-10T08:00:00Z",
		Type:        "INCOME",
		Category:    "SALARY",
		Amount:      "3000.00",
		Description: "pay",
	}}
	require.Equal(t, exp, v.Transactions)
	// pretty printed
	require.Contains(t, out, "\n  \"account\": \"alice\",\n")

	out = mustRun(t, dir, "export", "-f", "toon")
	require.Contains(t, out, "alice")
	require.Contains(t, out, id)
	require.Contains(t, out, "3000.00")

	path := filepath.Join(dir, "export.json")
	out = mustRun(t, dir, "export", "-o", path)
	require.Equal(t, "", out)
	d, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(d), id)

	_, err = runLedger(t, dir, "export", "-f", "xml")
	require.NotNil(t, err)
}

func TestBackupRestore(t *testing.T) {
	dir := t.TempDir()
	backupDir := t.TempDir()
	t.Setenv("LEDGER_BACKUP_DIR", backupDir)
	id := addTx(t, dir, "-t", "income", "-c", "salary", "-a", "3000", "-d", "pay", "--date", "2023-11-10 08:00")

	out := mustRun(t, dir, "backup", "--target", "dir", "--compression", "brotli")
	require.Equal(t, "uploaded alice-20240220-120000.zip.br to dir '"+backupDir+"'\n", out)

	dir2 := t.TempDir()
	archive := filepath.Join(backupDir, "alice-20240220-120000.zip.br")
	out = mustRun(t, dir2, "restore", archive)
	require.Equal(t, "restored 1 records from "+archive+"\n", out)
	out = mustRun(t, dir2, "show", id)
	require.Contains(t, out, "description: pay\n")

	_, err := runLedger(t, dir, "backup", "--target", "ftp")
	require.NotNil(t, err)

	// restoring over existing data needs --force
	mustRun(t, dir, "delete", id)
	_, err = runLedger(t, dir, "restore", archive)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "--force")
	out = mustRun(t, dir, "restore", archive, "--force")
	require.Equal(t, "restored 1 records from "+archive+"\n", out)
	out = mustRun(t, dir, "show", id)
	require.Contains(t, out, "description: pay\n")
}

func TestDryRun(t *testing.T) {
	dir := t.TempDir()
	idA := addTx(t, dir, "-t", "income", "-c", "food", "-a", "10", "-d", "lunch", "--date", "2024-01-15 09:30")
	idB := addTx(t, dir, "-t", "expense", "-c", "rent", "-a", "500", "-d", "rent", "--date", "2024-01-16 10:00")
	mustRun(t, dir, "delete", idB)

	out := mustRun(t, dir, "clear", "--dry-run")
	require.Equal(t, "removed 1, kept 1\n", out)
	out = mustRun(t, dir, "update", idA, "-a", "20", "--dry-run")
	require.Contains(t, out, "amount:      20.00\n")
	out = mustRun(t, dir, "add", "-t", "income", "-c", "other", "-a", "1", "--dry-run")
	_, err := txstore.ParseID(strings.TrimSpace(out))
	require.NoError(t, err)

	// nothing was written
	out = mustRun(t, dir, "show", idA)
	require.Contains(t, out, "amount:      10.00\n")
	out = mustRun(t, dir, "list", "--deleted")
	require.Contains(t, out, idB)
	require.Equal(t, "10.00\n", mustRun(t, dir, "balance"))
	require.Equal(t, "ok, 2 records, data: 81 bytes, index: 52 bytes\n", mustRun(t, dir, "verify"))
}

func TestMissingAccount(t *testing.T) {
	a := newApp()
	cmd := newRootCmd(a)
	cmd.SetOut(&bytes.Buffer{})
	t.Setenv("LEDGER_ACCOUNT", "")
	cmd.SetArgs([]string{"list", "--config", "", "--data-dir", t.TempDir()})
	err := cmd.Execute()
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "account is not set")
}
