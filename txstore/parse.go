package txstore

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// parsing of user input

func kindNamesList() string {
	var a []string
	for _, k := range Kinds {
		a = append(a, k.String())
	}
	return "[" + strings.Join(a, ", ") + "]"
}

func categoryNamesList() string {
	var a []string
	for _, c := range Categories {
		a = append(a, c.String())
	}
	return "[" + strings.Join(a, ", ") + "]"
}

// ParseKind is case-insensitive
func ParseKind(s string) (Kind, error) {
	if k, ok := kindFromName(strings.ToUpper(strings.TrimSpace(s))); ok {
		return k, nil
	}
	return 0, fmt.Errorf("invalid transaction type '%s', must be one of %s", s, kindNamesList())
}

// ParseCategory is case-insensitive
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryFromName(strings.ToUpper(strings.TrimSpace(s))); ok {
		return c, nil
	}
	return 0, fmt.Errorf("invalid transaction category '%s', must be one of %s", s, categoryNamesList())
}

var amountRx = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// ParseAmount accepts non-negative amounts with at most 2 fractional digits
// e.g. "12", "12.5", "12.50"
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !amountRx.MatchString(s) {
		return decimal.Decimal{}, fmt.Errorf("invalid amount '%s', must be in format 00.00", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount '%s': %w", s, err)
	}
	return RoundAmount(d), nil
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime parses "yyyy-mm-dd hh:mm[:ss]" in loc (time.Local if nil)
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date '%s', use 'yyyy-MM-dd HH:mm' or 'yyyy-MM-dd HH:mm:ss'", s)
}
