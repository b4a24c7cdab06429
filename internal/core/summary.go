// Package core provides the expense domain model.
//
// This file aggregates a fetched record set into totals for display. Amounts
// are free text, so the total only covers the ones that parse as decimals.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

type (
	CategoryTotal struct {
		Name  string
		Total decimal.Decimal
	}

	Summary struct {
		Count      int
		Unparsed   int
		Total      decimal.Decimal
		ByCategory []CategoryTotal
	}
)

// ParseAmount parses amount text. Both dot (12.34) and comma (12,34)
// decimal separators are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Summarize totals the records. Categories keep first-seen order.
func Summarize(records []Expense) Summary {
	sum := Summary{Count: len(records), Total: decimal.Zero}
	index := map[string]int{}
	for _, r := range records {
		amt, err := ParseAmount(r.Amount)
		if err != nil {
			sum.Unparsed++
			continue
		}
		sum.Total = sum.Total.Add(amt)
		i, ok := index[r.Category]
		if !ok {
			i = len(sum.ByCategory)
			index[r.Category] = i
			sum.ByCategory = append(sum.ByCategory, CategoryTotal{Name: r.Category, Total: decimal.Zero})
		}
		sum.ByCategory[i].Total = sum.ByCategory[i].Total.Add(amt)
	}
	return sum
}
