package core

import (
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

func tx(id string, typ TransactionType, category string, amount float64, date Date) Transaction {
	return Transaction{
		ID:          id,
		Amount:      MoneyFromFloat(amount),
		Date:        date,
		Description: id,
		Type:        typ,
		Category:    category,
	}
}

// fakeTransactions builds a reproducible random list, including unknown
// category ids and dates spread over two years.
func fakeTransactions(seed int64, n int) []Transaction {
	f := gofakeit.New(seed)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	out := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		typ := Expense
		if f.Bool() {
			typ = Income
		}
		ids := []string{"unknown", "legacy-id"}
		for _, c := range Categories(typ) {
			ids = append(ids, c.ID)
		}
		created := f.DateRange(start, end)
		out = append(out, Transaction{
			ID:          f.UUID(),
			Amount:      MoneyFromFloat(f.Price(0.01, 5000)),
			Date:        DateOf(f.DateRange(start, end)),
			Description: f.Sentence(3),
			Type:        typ,
			Category:    f.RandomString(ids),
			CreatedAt:   NewTimestamp(created),
			UpdatedAt:   NewTimestamp(created),
		})
	}
	return out
}

func TestSummarizeExample(t *testing.T) {
	txs := []Transaction{
		tx("a", Income, "salary", 100, NewDate(2024, 1, 15)),
		tx("b", Expense, "food", 40, NewDate(2024, 1, 20)),
		tx("c", Expense, "food", 10, NewDate(2024, 2, 1)),
	}
	now := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	s := Summarize(txs, now)

	checks := []struct {
		name string
		got  Money
		want float64
	}{
		{"total income", s.TotalIncome, 100},
		{"total expenses", s.TotalExpenses, 50},
		{"balance", s.Balance, 50},
		{"monthly income", s.MonthlyIncome, 0},
		{"monthly expenses", s.MonthlyExpenses, 10},
		{"monthly net", s.MonthlyNet, -10},
	}
	for _, c := range checks {
		if !c.got.Equal(MoneyFromFloat(c.want)) {
			t.Fatalf("%s: expected %v, got %s", c.name, c.want, c.got)
		}
	}
	if s.TransactionCount != 3 {
		t.Fatalf("expected 3 transactions, got %d", s.TransactionCount)
	}

	shares := CategoryBreakdown(txs, Expense, BreakdownOptions{OmitZero: true})
	if len(shares) != 1 || shares[0].Category.ID != "food" {
		t.Fatalf("unexpected breakdown %+v", shares)
	}
	if !shares[0].Amount.Equal(MoneyFromFloat(50)) || shares[0].Percentage != 100 {
		t.Fatalf("expected food 50 / 100%%, got %s / %v", shares[0].Amount, shares[0].Percentage)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, time.Now())
	if !s.Balance.IsZero() || !s.TotalIncome.IsZero() || s.TransactionCount != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestMonthlySeries(t *testing.T) {
	now := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx("a", Expense, "food", 20, NewDate(2024, 3, 1)),
		tx("b", Income, "salary", 1000, NewDate(2024, 3, 28)),
		tx("c", Expense, "bills", 5, NewDate(2023, 10, 5)),
		tx("d", Expense, "bills", 7, NewDate(2023, 9, 30)), // outside window
		tx("e", Income, "gift", 3, NewDate(2024, 4, 1)),    // future
	}
	points := MonthlySeries(txs, now)
	if len(points) != SeriesMonths {
		t.Fatalf("expected %d points, got %d", SeriesMonths, len(points))
	}
	labels := []string{"Oct 2023", "Nov 2023", "Dec 2023", "Jan 2024", "Feb 2024", "Mar 2024"}
	for i, p := range points {
		if p.Label != labels[i] {
			t.Fatalf("point %d: expected %s, got %s", i, labels[i], p.Label)
		}
	}
	if !points[0].Expenses.Equal(MoneyFromFloat(5)) {
		t.Fatalf("oct expenses: got %s", points[0].Expenses)
	}
	last := points[5]
	if !last.Expenses.Equal(MoneyFromFloat(20)) || !last.Income.Equal(MoneyFromFloat(1000)) {
		t.Fatalf("mar: got %s/%s", last.Expenses, last.Income)
	}
	for _, p := range points[1:5] {
		if !p.Expenses.IsZero() || !p.Income.IsZero() {
			t.Fatalf("expected empty month %s", p.Label)
		}
	}

	income, expenses := SeriesTotals(points)
	if !income.Equal(MoneyFromFloat(1000)) || !expenses.Equal(MoneyFromFloat(25)) {
		t.Fatalf("window totals: got %s/%s", income, expenses)
	}
}

func TestMonthlySeriesIsConsecutive(t *testing.T) {
	for _, now := range []time.Time{
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
	} {
		points := MonthlySeries(nil, now)
		if len(points) != SeriesMonths {
			t.Fatalf("expected %d points", SeriesMonths)
		}
		last := points[len(points)-1]
		if last.Year != now.Year() || last.Month != int(now.Month()) {
			t.Fatalf("series must end at %s, ends at %s", now.Format("Jan 2006"), last.Label)
		}
		for i := 1; i < len(points); i++ {
			prev := time.Date(points[i-1].Year, time.Month(points[i-1].Month), 1, 0, 0, 0, 0, time.UTC)
			cur := time.Date(points[i].Year, time.Month(points[i].Month), 1, 0, 0, 0, 0, time.UTC)
			if !prev.AddDate(0, 1, 0).Equal(cur) {
				t.Fatalf("non consecutive months %s -> %s", points[i-1].Label, points[i].Label)
			}
		}
	}
}

func TestCategoryBreakdownUnknownFoldsIntoOther(t *testing.T) {
	txs := []Transaction{
		tx("a", Expense, "food", 30, NewDate(2024, 1, 1)),
		tx("b", Expense, "crypto", 10, NewDate(2024, 1, 2)),
		tx("c", Expense, "salary", 10, NewDate(2024, 1, 3)), // income id on an expense
	}
	shares := CategoryBreakdown(txs, Expense, BreakdownOptions{OmitZero: true})
	if len(shares) != 2 {
		t.Fatalf("expected food and other, got %+v", shares)
	}
	if shares[0].Category.ID != "food" || shares[1].Category.ID != OtherCategoryID {
		t.Fatalf("unexpected order %s, %s", shares[0].Category.ID, shares[1].Category.ID)
	}
	if !shares[1].Amount.Equal(MoneyFromFloat(20)) || shares[1].Percentage != 40 {
		t.Fatalf("other: got %s / %v", shares[1].Amount, shares[1].Percentage)
	}
}

func TestCategoryBreakdownKeepsRegistryOrderOnTies(t *testing.T) {
	txs := []Transaction{
		tx("a", Income, "gift", 10, NewDate(2024, 1, 1)),
		tx("b", Income, "salary", 10, NewDate(2024, 1, 1)),
	}
	shares := CategoryBreakdown(txs, Income, BreakdownOptions{})
	if len(shares) != len(Categories(Income)) {
		t.Fatalf("expected every category, got %d", len(shares))
	}
	if shares[0].Category.ID != "salary" || shares[1].Category.ID != "gift" {
		t.Fatalf("ties must keep registry order, got %s, %s", shares[0].Category.ID, shares[1].Category.ID)
	}
	for _, s := range shares[2:] {
		if !s.Amount.IsZero() || s.Percentage != 0 {
			t.Fatalf("expected zero row for %s", s.Category.ID)
		}
	}
}

func TestCategoryBreakdownEmpty(t *testing.T) {
	shares := CategoryBreakdown(nil, Expense, BreakdownOptions{})
	for _, s := range shares {
		if s.Percentage != 0 {
			t.Fatalf("expected 0%% with zero total, got %v for %s", s.Percentage, s.Category.ID)
		}
	}
	if got := CategoryBreakdown(nil, Expense, BreakdownOptions{OmitZero: true}); len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}

func TestCategoryBreakdownProperties(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		txs := fakeTransactions(seed, int(seed)*4)
		for _, typ := range []TransactionType{Expense, Income} {
			shares := CategoryBreakdown(txs, typ, BreakdownOptions{})
			var sum Money
			var pct float64
			for i, s := range shares {
				sum = sum.Add(s.Amount)
				pct += s.Percentage
				if i > 0 && shares[i-1].Amount.Cmp(s.Amount) < 0 {
					t.Fatalf("seed %d: breakdown not sorted descending", seed)
				}
			}
			total := TotalOf(txs, typ)
			if !sum.Equal(total) {
				t.Fatalf("seed %d %s: breakdown sum %s != total %s", seed, typ, sum, total)
			}
			if total.IsZero() {
				if pct != 0 {
					t.Fatalf("seed %d %s: expected 0%%, got %v", seed, typ, pct)
				}
				continue
			}
			if math.Abs(pct-100) > 1e-6 {
				t.Fatalf("seed %d %s: percentages sum to %v", seed, typ, pct)
			}
		}
	}
}

func TestSummaryBalanceProperty(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		txs := fakeTransactions(seed, 50)
		s := Summarize(txs, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
		if !s.Balance.Equal(TotalOf(txs, Income).Sub(TotalOf(txs, Expense))) {
			t.Fatalf("seed %d: balance mismatch", seed)
		}
		if !s.MonthlyNet.Equal(s.MonthlyIncome.Sub(s.MonthlyExpenses)) {
			t.Fatalf("seed %d: monthly net mismatch", seed)
		}
	}
}

func TestPieSlices(t *testing.T) {
	txs := []Transaction{
		tx("a", Expense, "food", 75, NewDate(2024, 1, 1)),
		tx("b", Expense, "travel", 25, NewDate(2024, 1, 1)),
	}
	slices := PieSlices(CategoryBreakdown(txs, Expense, BreakdownOptions{OmitZero: true}))
	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	if slices[0].Name != "Food & Dining" || slices[0].Value != 75 || slices[0].Color != "#EF4444" {
		t.Fatalf("unexpected first slice %+v", slices[0])
	}
	if slices[0].Start != 0 || slices[0].End != 75 || slices[1].Start != 75 || slices[1].End != 100 {
		t.Fatalf("unexpected angles %+v", slices)
	}
}

func TestRecentTransactions(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var txs []Transaction
	for i := 0; i < 8; i++ {
		tr := tx(string(rune('a'+i)), Expense, "food", 1, NewDate(2024, 1, 1))
		tr.CreatedAt = NewTimestamp(base.Add(time.Duration(i) * time.Minute))
		txs = append(txs, tr)
	}
	// same createdAt as "h": storage order decides
	tie := tx("z", Expense, "food", 1, NewDate(2024, 1, 1))
	tie.CreatedAt = txs[7].CreatedAt
	txs = append(txs, tie)

	got := RecentTransactions(txs, 0)
	if len(got) != DefaultRecentLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultRecentLimit, len(got))
	}
	want := []string{"h", "z", "g", "f", "e"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if txs[0].ID != "a" {
		t.Fatalf("input slice was reordered")
	}
	if got := RecentTransactions(txs[:2], 10); len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
}

func TestSortByDate(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := tx("a", Expense, "food", 1, NewDate(2024, 1, 1))
	b := tx("b", Expense, "food", 1, NewDate(2024, 3, 1))
	c := tx("c", Expense, "food", 1, NewDate(2024, 3, 1))
	b.CreatedAt = NewTimestamp(base)
	c.CreatedAt = NewTimestamp(base.Add(time.Second))

	got := SortByDate([]Transaction{a, b, c})
	if got[0].ID != "c" || got[1].ID != "b" || got[2].ID != "a" {
		t.Fatalf("unexpected order %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
}
