package txstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits of every amount
const AmountScale = 2

type Kind uint8

const (
	Income Kind = iota + 1
	Expense
)

var kindNames = map[Kind]string{
	Income:  "INCOME",
	Expense: "EXPENSE",
}

// Kinds lists all valid kinds in display order
var Kinds = []Kind{Income, Expense}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

type Category uint8

const (
	Food Category = iota + 1
	Salary
	Rent
	Transport
	Entertainment
	Other
)

var categoryNames = map[Category]string{
	Food:          "FOOD",
	Salary:        "SALARY",
	Rent:          "RENT",
	Transport:     "TRANSPORT",
	Entertainment: "ENTERTAINMENT",
	Other:         "OTHER",
}

// Categories lists all valid categories in display order
var Categories = []Category{Food, Salary, Rent, Transport, Entertainment, Other}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// kindFromName and categoryFromName are exact-match, used when decoding
// persisted records
func kindFromName(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

func categoryFromName(s string) (Category, bool) {
	for c, name := range categoryNames {
		if name == s {
			return c, true
		}
	}
	return 0, false
}

type Transaction struct {
	ID       uuid.UUID
	Kind     Kind
	Category Category
	// always has exactly AmountScale fractional digits
	Amount      decimal.Decimal
	Description string
	// utc, millisecond precision
	OccurredAt time.Time
	Deleted    bool
}

// NewTransaction creates a transaction with a fresh random id
func NewTransaction(kind Kind, category Category, amount decimal.Decimal, description string, occurredAt time.Time) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		Kind:        kind,
		Category:    category,
		Amount:      RoundAmount(amount),
		Description: description,
		OccurredAt:  normalizeTime(occurredAt),
	}
}

// RoundAmount rounds half-up (away from zero) to AmountScale digits.
// The result always has exponent -AmountScale.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// on disk time is stored as unix milliseconds
func normalizeTime(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).UTC()
}

// Clone returns a copy that doesn't share state with tx
func (tx *Transaction) Clone() *Transaction {
	if tx == nil {
		return nil
	}
	res := *tx
	return &res
}

func (tx *Transaction) String() string {
	return fmt.Sprintf("%s %s %s %s %q %s", tx.ID, tx.Kind, tx.Category, tx.Amount.StringFixed(AmountScale), tx.Description, tx.OccurredAt.Format(time.RFC3339))
}

// Update is a partial update. nil fields are left unchanged.
type Update struct {
	Kind        *Kind
	Category    *Category
	Amount      *decimal.Decimal
	Description *string
	OccurredAt  *time.Time
}

func (u *Update) IsEmpty() bool {
	return u == nil || (u.Kind == nil && u.Category == nil && u.Amount == nil && u.Description == nil && u.OccurredAt == nil)
}

// apply merges u into a copy of tx
// a blank description doesn't overwrite the existing one
func (u *Update) apply(tx *Transaction) *Transaction {
	res := tx.Clone()
	if u == nil {
		return res
	}
	if u.Kind != nil {
		res.Kind = *u.Kind
	}
	if u.Category != nil {
		res.Category = *u.Category
	}
	if u.Amount != nil {
		res.Amount = RoundAmount(*u.Amount)
	}
	if u.Description != nil && strings.TrimSpace(*u.Description) != "" {
		res.Description = *u.Description
	}
	if u.OccurredAt != nil {
		res.OccurredAt = normalizeTime(*u.OccurredAt)
	}
	return res
}
