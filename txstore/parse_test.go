package txstore

import (
	"testing"
	"time"

	"github.com/kjk/ledger/require"
)

func TestParseKindCategory(t *testing.T) {
	k, err := ParseKind("income")
	require.NoError(t, err)
	require.Equal(t, Income, k)
	k, err = ParseKind(" Expense ")
	require.NoError(t, err)
	require.Equal(t, Expense, k)
	_, err = ParseKind("gift")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "[INCOME, EXPENSE]")

	c, err := ParseCategory("entertainment")
	require.NoError(t, err)
	require.Equal(t, Entertainment, c)
	_, err = ParseCategory("")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "[FOOD, SALARY, RENT, TRANSPORT, ENTERTAINMENT, OTHER]")
}

func TestParseAmount(t *testing.T) {
	valid := map[string]string{
		"12":      "12.00",
		"12.5":    "12.50",
		"0.01":    "0.01",
		" 7.25 ":  "7.25",
		"1000000": "1000000.00",
	}
	for s, exp := range valid {
		d, err := ParseAmount(s)
		require.NoError(t, err, "'%s'", s)
		require.Equal(t, exp, d.StringFixed(2))
		require.Equal(t, int32(-2), d.Exponent())
	}
	for _, s := range []string{"", "-1", "1.234", "1,5", ".5", "1.", "abc", "1e3"} {
		_, err := ParseAmount(s)
		require.NotNil(t, err, "'%s' should be invalid", s)
	}
}

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	tm, err := ParseTime("2024-01-15 09:30", loc)
	require.NoError(t, err)
	require.True(t, tm.Equal(time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)))

	tm, err = ParseTime("2024-01-15 09:30:15", time.UTC)
	require.NoError(t, err)
	require.Equal(t, 15, tm.Second())

	for _, s := range []string{"2024-01-15", "15.01.2024 09:30", "2024-13-01 00:00"} {
		_, err = ParseTime(s, nil)
		require.NotNil(t, err, "'%s' should be invalid", s)
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("00112233-4455-6677-8899-aabbccddeeff")
	require.NoError(t, err)
	require.Equal(t, "00112233-4455-6677-8899-aabbccddeeff", id.String())
	_, err = ParseID("xyz")
	require.ErrorIs(t, err, ErrMalformedID)
}
