package core

import (
	"sort"
	"time"
)

// DefaultRecentLimit is used by RecentTransactions when limit <= 0.
const DefaultRecentLimit = 5

// SeriesMonths is the number of months in the trend window.
const SeriesMonths = 6

// Summary holds all-time and current-month totals.
type Summary struct {
	TotalIncome      Money
	TotalExpenses    Money
	Balance          Money
	MonthlyIncome    Money
	MonthlyExpenses  Money
	MonthlyNet       Money
	TransactionCount int
}

// MonthlyPoint is one bar pair of the trend chart.
type MonthlyPoint struct {
	Label    string // "Jan 2024"
	Year     int
	Month    int // 1-12
	Expenses Money
	Income   Money
}

// CategoryShare is one row of a category breakdown.
type CategoryShare struct {
	Category   Category
	Amount     Money
	Percentage float64
}

// BreakdownOptions tunes CategoryBreakdown.
type BreakdownOptions struct {
	// OmitZero drops categories with no amount.
	OmitZero bool
}

// PieSlice is a chart segment. Start and End are cumulative percentages.
type PieSlice struct {
	Name  string
	Value float64
	Color string
	Start float64
	End   float64
}

// Summarize computes totals over txs. Monthly fields only count
// transactions dated in now's calendar month.
func Summarize(txs []Transaction, now time.Time) Summary {
	var s Summary
	year, month, _ := now.Date()
	for _, t := range txs {
		inMonth := t.Date.InMonth(year, month)
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
			if inMonth {
				s.MonthlyIncome = s.MonthlyIncome.Add(t.Amount)
			}
		case Expense:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
			if inMonth {
				s.MonthlyExpenses = s.MonthlyExpenses.Add(t.Amount)
			}
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	s.MonthlyNet = s.MonthlyIncome.Sub(s.MonthlyExpenses)
	s.TransactionCount = len(txs)
	return s
}

// MonthlySeries returns the current month and the five before it, oldest first.
func MonthlySeries(txs []Transaction, now time.Time) []MonthlyPoint {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]MonthlyPoint, SeriesMonths)
	index := make(map[[2]int]int, SeriesMonths)
	for i := 0; i < SeriesMonths; i++ {
		m := first.AddDate(0, i-(SeriesMonths-1), 0)
		points[i] = MonthlyPoint{
			Label: m.Format("Jan 2006"),
			Year:  m.Year(),
			Month: int(m.Month()),
		}
		index[[2]int{m.Year(), int(m.Month())}] = i
	}

	for _, t := range txs {
		i, ok := index[[2]int{t.Date.Year(), int(t.Date.Month())}]
		if !ok {
			continue
		}
		switch t.Type {
		case Income:
			points[i].Income = points[i].Income.Add(t.Amount)
		case Expense:
			points[i].Expenses = points[i].Expenses.Add(t.Amount)
		}
	}
	return points
}

// SeriesTotals sums income and expenses over the window.
func SeriesTotals(points []MonthlyPoint) (income, expenses Money) {
	for _, p := range points {
		income = income.Add(p.Income)
		expenses = expenses.Add(p.Expenses)
	}
	return income, expenses
}

// CategoryBreakdown groups transactions of type typ by category.
//
// Ids missing from the registry count towards "other", so the amounts
// always add up to the type total. The result is sorted by amount,
// descending; equal amounts keep registry order.
func CategoryBreakdown(txs []Transaction, typ TransactionType, opts BreakdownOptions) []CategoryShare {
	cats := Categories(typ)
	if len(cats) == 0 {
		return nil
	}
	pos := make(map[string]int, len(cats))
	shares := make([]CategoryShare, len(cats))
	for i, c := range cats {
		pos[c.ID] = i
		shares[i].Category = c
	}

	var total Money
	for _, t := range txs {
		if t.Type != typ {
			continue
		}
		i, ok := pos[t.Category]
		if !ok {
			i = pos[OtherCategoryID]
		}
		shares[i].Amount = shares[i].Amount.Add(t.Amount)
		total = total.Add(t.Amount)
	}

	out := shares[:0]
	for _, s := range shares {
		if opts.OmitZero && s.Amount.IsZero() {
			continue
		}
		s.Percentage = s.Amount.PercentOf(total)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cmp(out[j].Amount) > 0
	})
	return out
}

// PieSlices converts breakdown rows into chart segments.
func PieSlices(shares []CategoryShare) []PieSlice {
	slices := make([]PieSlice, 0, len(shares))
	var cursor float64
	for _, s := range shares {
		end := cursor + s.Percentage
		slices = append(slices, PieSlice{
			Name:  s.Category.Name,
			Value: s.Amount.Float64(),
			Color: s.Category.Color,
			Start: cursor,
			End:   end,
		})
		cursor = end
	}
	return slices
}

// TotalOf sums the amounts of transactions of type typ.
func TotalOf(txs []Transaction, typ TransactionType) Money {
	var total Money
	for _, t := range txs {
		if t.Type == typ {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// RecentTransactions returns up to limit transactions, newest createdAt first.
// The input slice is not modified.
func RecentTransactions(txs []Transaction, limit int) []Transaction {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	sorted := append([]Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// SortByDate returns a copy of txs ordered by date, then createdAt, newest first.
func SortByDate(txs []Transaction) []Transaction {
	sorted := append([]Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		return a.CreatedAt.After(b.CreatedAt.Time)
	})
	return sorted
}
