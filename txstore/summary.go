package txstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Balance returns sum of incomes minus sum of expenses
func Balance(txs []*Transaction) decimal.Decimal {
	res := decimal.Zero
	for _, tx := range txs {
		switch tx.Kind {
		case Income:
			res = res.Add(tx.Amount)
		case Expense:
			res = res.Sub(tx.Amount)
		}
	}
	return RoundAmount(res)
}

// Period is a calendar difference between two dates
type Period struct {
	Years  int
	Months int
	Days   int
}

type Summary struct {
	Count        int
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
	// zero if there are no transactions
	First time.Time
	Last  time.Time
	// calendar time from the day of first transaction to the day of now
	SinceFirst Period
	// 0 if there are no transactions
	SinceLast time.Duration
}

// Summarize calculates totals over txs. Dates are compared in loc.
func Summarize(txs []*Transaction, now time.Time, loc *time.Location) *Summary {
	if loc == nil {
		loc = time.Local
	}
	res := &Summary{
		Count:        len(txs),
		TotalIncome:  RoundAmount(decimal.Zero),
		TotalExpense: RoundAmount(decimal.Zero),
	}
	for _, tx := range txs {
		switch tx.Kind {
		case Income:
			res.TotalIncome = res.TotalIncome.Add(tx.Amount)
		case Expense:
			res.TotalExpense = res.TotalExpense.Add(tx.Amount)
		}
		if res.First.IsZero() || tx.OccurredAt.Before(res.First) {
			res.First = tx.OccurredAt
		}
		if res.Last.IsZero() || tx.OccurredAt.After(res.Last) {
			res.Last = tx.OccurredAt
		}
	}
	res.TotalIncome = RoundAmount(res.TotalIncome)
	res.TotalExpense = RoundAmount(res.TotalExpense)
	res.Balance = Balance(txs)
	if len(txs) > 0 {
		res.SinceFirst = PeriodBetween(res.First.In(loc), now.In(loc))
		res.SinceLast = now.Sub(res.Last)
	}
	return res
}

func (p Period) String() string {
	return fmt.Sprintf("%d years %d months %d days", p.Years, p.Months, p.Days)
}

// Rows returns label / value pairs for display. Times are shown in loc.
func (s *Summary) Rows(loc *time.Location) [][2]string {
	if loc == nil {
		loc = time.Local
	}
	fmtTime := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.In(loc).Format("2006-01-02 15:04:05")
	}
	since := "-"
	sinceLast := "-"
	if s.Count > 0 {
		since = s.SinceFirst.String()
		sinceLast = s.SinceLast.Truncate(time.Second).String()
	}
	return [][2]string{
		{"Transactions", strconv.Itoa(s.Count)},
		{"Total income", s.TotalIncome.StringFixed(AmountScale)},
		{"Total expense", s.TotalExpense.StringFixed(AmountScale)},
		{"Balance", s.Balance.StringFixed(AmountScale)},
		{"First", fmtTime(s.First)},
		{"Last", fmtTime(s.Last)},
		{"Since first", since},
		{"Since last", sinceLast},
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonths adds n months, clamping the day to the end of resulting month
// (Jan 31 + 1 month is Feb 28, not Mar 3)
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := y*12 + int(m) - 1 + n
	y, m = total/12, time.Month(total%12+1)
	d = min(d, daysIn(y, m))
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PeriodBetween returns years, months and days between calendar dates of
// from and to. Time of day is ignored.
func PeriodBetween(from, to time.Time) Period {
	start, end := dateOf(from), dateOf(to)
	months := (end.Year()*12 + int(end.Month())) - (start.Year()*12 + int(start.Month()))
	days := end.Day() - start.Day()
	if months > 0 && days < 0 {
		months--
		days = int(end.Sub(addMonths(start, months)).Hours() / 24)
	} else if months < 0 && days > 0 {
		months++
		days -= daysIn(end.Year(), end.Month())
	}
	return Period{
		Years:  months / 12,
		Months: months % 12,
		Days:   days,
	}
}
