package txstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/kjk/ledger/require"
)

func genEntries(n int) []indexEntry {
	var res []indexEntry
	for i := 0; i < n; i++ {
		res = append(res, indexEntry{ID: uuid.New(), Offset: int64(i * 100)})
	}
	return res
}

func TestSerializeIndex(t *testing.T) {
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	d := serializeIndex([]indexEntry{{ID: id, Offset: 258}})
	exp := []byte{
		0, 0, 0, 1,
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
		0, 0, 0, 0, 0, 0, 1, 2,
	}
	require.Equal(t, exp, d)

	entries, missing, err := parseIndex(d)
	require.NoError(t, err)
	require.Equal(t, 0, missing)
	require.Equal(t, []indexEntry{{ID: id, Offset: 258}}, entries)

	require.Equal(t, []byte{0, 0, 0, 0}, serializeIndex(nil))
}

func TestParseIndexTruncated(t *testing.T) {
	entries := genEntries(5)
	d := serializeIndex(entries)

	got, missing, err := parseIndex(d[:len(d)-1])
	require.NoError(t, err)
	require.Equal(t, 1, missing)
	require.Equal(t, entries[:4], got)

	got, missing, err = parseIndex(d[:indexEntryPos(2)])
	require.NoError(t, err)
	require.Equal(t, 3, missing)
	require.Equal(t, entries[:2], got)

	got, missing, err = parseIndex(d[:2])
	require.NoError(t, err)
	require.Equal(t, 0, missing)
	require.Len(t, got, 0)

	bad := append([]byte{}, d...)
	bad[0] = 0xff
	_, _, err = parseIndex(bad)
	require.ErrorIs(t, err, ErrCorruptIndex)
}

func TestIndexFileAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.idx")
	f := &indexFile{path: path}

	entries, missing, err := f.load()
	require.NoError(t, err)
	require.Equal(t, 0, missing)
	require.Len(t, entries, 0)

	exp := genEntries(3)
	for i, e := range exp {
		err = f.appendEntry(i, e)
		require.NoError(t, err)
	}
	d, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, serializeIndex(exp), d)

	// simulate a partial entry left by a failed write
	partial := append(d, 1, 2, 3, 4, 5)
	err = os.WriteFile(path, partial, 0644)
	require.NoError(t, err)
	e := indexEntry{ID: uuid.New(), Offset: 1000}
	err = f.appendEntry(3, e)
	require.NoError(t, err)
	exp = append(exp, e)
	got, missing, err := f.load()
	require.NoError(t, err)
	require.Equal(t, 0, missing)
	require.Equal(t, exp, got)

	size, err := f.size()
	require.NoError(t, err)
	require.Equal(t, indexEntryPos(4), size)
}

func TestIndexFileRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.idx")
	f := &indexFile{path: path, syncWrite: true}
	entries := genEntries(10)
	err := f.rewrite(entries)
	require.NoError(t, err)
	err = f.rewrite(entries[:3])
	require.NoError(t, err)
	got, _, err := f.load()
	require.NoError(t, err)
	require.Equal(t, entries[:3], got)
}
