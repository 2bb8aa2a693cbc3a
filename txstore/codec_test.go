package txstore

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kjk/ledger/require"
	"github.com/shopspring/decimal"
)

var testTime = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func TestTwosComplement(t *testing.T) {
	tests := []struct {
		n   int64
		exp []byte
	}{
		{0, []byte{0}},
		{1, []byte{1}},
		{127, []byte{0x7f}},
		{128, []byte{0x00, 0x80}},
		{255, []byte{0x00, 0xff}},
		{256, []byte{0x01, 0x00}},
		{-1, []byte{0xff}},
		{-128, []byte{0x80}},
		{-129, []byte{0xff, 0x7f}},
		{-256, []byte{0xff, 0x00}},
		{120050, []byte{0x01, 0xd4, 0xf2}},
	}
	for _, test := range tests {
		got := twosComplementBytes(big.NewInt(test.n))
		require.Equal(t, test.exp, got, "encoding %d", test.n)
		back := bigIntFromTwosComplement(got)
		require.Equal(t, test.n, back.Int64(), "decoding %d", test.n)
	}
}

func TestEncodeLayout(t *testing.T) {
	tx := &Transaction{
		ID:          uuid.New(),
		Kind:        Income,
		Category:    Salary,
		Amount:      decimal.RequireFromString("1200.50"),
		Description: "pay",
		OccurredAt:  testTime,
	}
	got, err := encodeTransaction(tx)
	require.NoError(t, err)

	var exp bytes.Buffer
	exp.WriteByte(0)
	exp.Write([]byte{0, 6})
	exp.WriteString("INCOME")
	exp.Write([]byte{0, 6})
	exp.WriteString("SALARY")
	exp.Write([]byte{0, 0, 0, 2})
	exp.Write([]byte{0, 0, 0, 3, 0x01, 0xd4, 0xf2})
	exp.Write([]byte{0, 3})
	exp.WriteString("pay")
	binary.Write(&exp, binary.BigEndian, testTime.UnixMilli())
	require.Equal(t, exp.Bytes(), got)
}

func TestCodecRoundTrip(t *testing.T) {
	txs := []*Transaction{
		{Kind: Income, Category: Salary, Amount: decimal.RequireFromString("1200.50"), Description: "pay", OccurredAt: testTime},
		{Kind: Expense, Category: Food, Amount: decimal.RequireFromString("0.00"), Description: "", OccurredAt: testTime, Deleted: true},
		{Kind: Expense, Category: Rent, Amount: decimal.RequireFromString("-12.34"), Description: "zażółć gęślą jaźń", OccurredAt: time.UnixMilli(0).UTC()},
		{Kind: Income, Category: Other, Amount: decimal.RequireFromString("99999999999999999999.99"), Description: "big", OccurredAt: testTime.Add(time.Millisecond)},
	}
	var buf bytes.Buffer
	for _, tx := range txs {
		d, err := encodeTransaction(tx)
		require.NoError(t, err)
		buf.Write(d)
	}
	r := bytes.NewReader(buf.Bytes())
	for i, exp := range txs {
		got, err := decodeTransaction(r)
		require.NoError(t, err, "record %d", i)
		require.Equal(t, exp.Kind, got.Kind)
		require.Equal(t, exp.Category, got.Category)
		require.True(t, exp.Amount.Equal(got.Amount), "record %d: amount %s != %s", i, exp.Amount, got.Amount)
		require.Equal(t, exp.Amount.Exponent(), got.Amount.Exponent())
		require.Equal(t, exp.Description, got.Description)
		require.True(t, exp.OccurredAt.Equal(got.OccurredAt))
		require.Equal(t, exp.Deleted, got.Deleted)
	}
	require.Equal(t, 0, r.Len())
}

func TestDecodeCorrupt(t *testing.T) {
	tx := NewTransaction(Expense, Food, decimal.RequireFromString("10"), "lunch", testTime)
	d, err := encodeTransaction(tx)
	require.NoError(t, err)

	// every proper prefix is a truncated record
	for n := 0; n < len(d); n++ {
		_, err = decodeTransaction(bytes.NewReader(d[:n]))
		require.ErrorIs(t, err, ErrCorruptRecord, "prefix %d", n)
	}

	bad := append([]byte{}, d...)
	bad[0] = 7
	_, err = decodeTransaction(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrCorruptRecord)

	bad = append([]byte{}, d...)
	// "EXPENSE" => "EXPENZE"
	bad[3+5] = 'Z'
	_, err = decodeTransaction(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrCorruptRecord)
	require.Contains(t, err.Error(), "EXPENZE")
}

func TestEncodeInvalid(t *testing.T) {
	tx := NewTransaction(Kind(9), Food, decimal.RequireFromString("1"), "", testTime)
	_, err := encodeTransaction(tx)
	require.NotNil(t, err)

	tx = NewTransaction(Income, Food, decimal.RequireFromString("1"), string(make([]byte, maxStringLen+1)), testTime)
	_, err = encodeTransaction(tx)
	require.NotNil(t, err)
}
