package http

import (
	"fmt"
	"html/template"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/form"
)

const (
	viewCacheSize   = 64
	maxRecentLimit  = 50
	minVisibleBar   = 2 // percent, so tiny values still show
	recordedLayout  = "Jan 2, 03:04 PM"
	listDateLayout  = "Jan 2, 2006"
	monthNameLayout = "January 2006"
)

type summaryView struct {
	Balance       string
	BalanceClass  string
	TotalIncome   string
	TotalExpenses string
	MonthNet      string
	MonthClass    string
	MonthIncome   string
	MonthExpenses string
	MonthLabel    string
	Count         int
}

type barView struct {
	Label          string
	Income         string
	Expenses       string
	IncomeHeight   int
	ExpensesHeight int
}

type monthlyView struct {
	Bars          []barView
	TotalIncome   string
	TotalExpenses string
}

type legendItem struct {
	Name    string
	Icon    string
	Amount  string
	Percent string
	Swatch  template.CSS
}

type pieView struct {
	Type       core.TransactionType
	Title      string
	Total      string
	TotalClass string
	Gradient   template.CSS
	Legend     []legendItem
}

func (v pieView) Empty() bool { return len(v.Legend) == 0 }

type breakdownRow struct {
	Icon    string
	Name    string
	Amount  string
	Percent string
	Width   int
	Bar     template.CSS
}

type breakdownSection struct {
	Type  core.TransactionType
	Title string
	Class string
	Rows  []breakdownRow
}

type breakdownView struct {
	Sections []breakdownSection
}

type transactionRow struct {
	ID          string
	Date        string
	Description string
	Icon        string
	Category    string
	Type        core.TransactionType
	TypeLabel   string
	Amount      string
	Class       string
	Recorded    string
}

type typeOption struct {
	Value    core.TransactionType
	Label    string
	Selected bool
}

type categoryOption struct {
	ID       string
	Name     string
	Icon     string
	Selected bool
}

type formView struct {
	Edit        bool
	ID          string
	Action      string
	Submit      string
	Values      form.Values
	Errors      map[string]string
	Types       []typeOption
	Categories  []categoryOption
	CurrentType core.TransactionType
}

// viewCache memoizes derived views per list version and calendar month.
// A mutation bumps the version, so stale entries are never hit again and
// simply age out.
type viewCache struct {
	summary   *cache.LRUCache[summaryView]
	monthly   *cache.LRUCache[monthlyView]
	pie       *cache.LRUCache[pieView]
	breakdown *cache.LRUCache[breakdownView]
	rows      *cache.LRUCache[[]transactionRow]
}

func newViewCache(ttl time.Duration) *viewCache {
	return &viewCache{
		summary:   cache.NewLRUCache[summaryView](viewCacheSize, ttl),
		monthly:   cache.NewLRUCache[monthlyView](viewCacheSize, ttl),
		pie:       cache.NewLRUCache[pieView](viewCacheSize, ttl),
		breakdown: cache.NewLRUCache[breakdownView](viewCacheSize, ttl),
		rows:      cache.NewLRUCache[[]transactionRow](viewCacheSize, ttl),
	}
}

func (c *viewCache) register(m *cache.Manager) {
	m.Register(c.summary)
	m.Register(c.monthly)
	m.Register(c.pie)
	m.Register(c.breakdown)
	m.Register(c.rows)
}

func (c *viewCache) sizes() map[string]int {
	return map[string]int{
		"summary":   c.summary.Size(),
		"monthly":   c.monthly.Size(),
		"pie":       c.pie.Size(),
		"breakdown": c.breakdown.Size(),
		"rows":      c.rows.Size(),
	}
}

func (c *viewCache) stats() (hits, misses uint64) {
	add := func(h, m uint64) {
		hits += h
		misses += m
	}
	add(c.summary.Stats())
	add(c.monthly.Stats())
	add(c.pie.Stats())
	add(c.breakdown.Stats())
	add(c.rows.Stats())
	return hits, misses
}

func viewKey(version uint64, now time.Time, extra ...string) string {
	key := strconv.FormatUint(version, 10) + ":" + now.Format("2006-01")
	if len(extra) > 0 {
		key += ":" + strings.Join(extra, ":")
	}
	return key
}

func buildSummary(txs []core.Transaction, now time.Time) summaryView {
	s := core.Summarize(txs, now)
	return summaryView{
		Balance:       s.Balance.USD(),
		BalanceClass:  signClass(s.Balance),
		TotalIncome:   s.TotalIncome.USD(),
		TotalExpenses: s.TotalExpenses.USD(),
		MonthNet:      s.MonthlyNet.USD(),
		MonthClass:    signClass(s.MonthlyNet),
		MonthIncome:   s.MonthlyIncome.USD(),
		MonthExpenses: s.MonthlyExpenses.USD(),
		MonthLabel:    now.Format(monthNameLayout),
		Count:         s.TransactionCount,
	}
}

func buildMonthly(txs []core.Transaction, now time.Time) monthlyView {
	points := core.MonthlySeries(txs, now)
	income, expenses := core.SeriesTotals(points)

	var peak core.Money
	for _, p := range points {
		if p.Income.Cmp(peak) > 0 {
			peak = p.Income
		}
		if p.Expenses.Cmp(peak) > 0 {
			peak = p.Expenses
		}
	}

	v := monthlyView{
		Bars:          make([]barView, 0, len(points)),
		TotalIncome:   income.USD(),
		TotalExpenses: expenses.USD(),
	}
	for _, p := range points {
		v.Bars = append(v.Bars, barView{
			Label:          p.Label,
			Income:         p.Income.USD(),
			Expenses:       p.Expenses.USD(),
			IncomeHeight:   barHeight(p.Income, peak),
			ExpensesHeight: barHeight(p.Expenses, peak),
		})
	}
	return v
}

func barHeight(value, peak core.Money) int {
	if !value.IsPositive() || !peak.IsPositive() {
		return 0
	}
	h := int(math.Round(value.PercentOf(peak)))
	if h < minVisibleBar {
		h = minVisibleBar
	}
	if h > 100 {
		h = 100
	}
	return h
}

func buildPie(txs []core.Transaction, typ core.TransactionType) pieView {
	shares := core.CategoryBreakdown(txs, typ, core.BreakdownOptions{OmitZero: true})
	v := pieView{
		Type:       typ,
		Title:      typeLabel(typ) + " Categories",
		Total:      core.TotalOf(txs, typ).USD(),
		TotalClass: typeClass(typ),
	}
	if len(shares) == 0 {
		return v
	}

	slices := core.PieSlices(shares)
	stops := make([]string, 0, len(slices))
	for i, sl := range slices {
		end := sl.End
		if i == len(slices)-1 {
			end = 100
		}
		stops = append(stops, fmt.Sprintf("%s %.2f%% %.2f%%", sl.Color, sl.Start, end))
	}
	v.Gradient = template.CSS("background: conic-gradient(" + strings.Join(stops, ", ") + ")")

	for _, s := range shares {
		v.Legend = append(v.Legend, legendItem{
			Name:    s.Category.Name,
			Icon:    s.Category.Icon,
			Amount:  s.Amount.USD(),
			Percent: formatPercent(s.Percentage),
			Swatch:  template.CSS("background-color: " + s.Category.Color),
		})
	}
	return v
}

func buildBreakdown(txs []core.Transaction) breakdownView {
	var v breakdownView
	for _, typ := range []core.TransactionType{core.Expense, core.Income} {
		section := breakdownSection{
			Type:  typ,
			Title: typeLabel(typ) + " Breakdown",
			Class: typeClass(typ),
		}
		for _, s := range core.CategoryBreakdown(txs, typ, core.BreakdownOptions{OmitZero: true}) {
			width := int(math.Round(s.Percentage))
			if width < minVisibleBar {
				width = minVisibleBar
			}
			section.Rows = append(section.Rows, breakdownRow{
				Icon:    s.Category.Icon,
				Name:    s.Category.Name,
				Amount:  s.Amount.USD(),
				Percent: formatPercent(s.Percentage),
				Width:   width,
				Bar:     template.CSS(fmt.Sprintf("width: %d%%; background-color: %s", width, s.Category.Color)),
			})
		}
		v.Sections = append(v.Sections, section)
	}
	return v
}

// buildRows renders list rows. Recorded times are stored in UTC and shown
// in loc.
func buildRows(txs []core.Transaction, loc *time.Location) []transactionRow {
	rows := make([]transactionRow, 0, len(txs))
	for _, t := range txs {
		cat := t.CategoryInfo()
		rows = append(rows, transactionRow{
			ID:          t.ID,
			Date:        t.Date.Format(listDateLayout),
			Description: t.Description,
			Icon:        cat.Icon,
			Category:    cat.Name,
			Type:        t.Type,
			TypeLabel:   typeLabel(t.Type),
			Amount:      signedUSD(t),
			Class:       typeClass(t.Type),
			Recorded:    t.CreatedAt.In(loc).Format(recordedLayout),
		})
	}
	return rows
}

// formatPercent renders one decimal, e.g. "33.3%".
func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

func buildFormView(f *form.Form) formView {
	v := formView{
		Edit:        f.IsEdit(),
		ID:          f.ID(),
		Action:      "/transactions",
		Submit:      "Add Transaction",
		Values:      f.Values(),
		Errors:      f.Errors(),
		CurrentType: f.Values().Type,
	}
	if v.Edit {
		v.Action = "/transactions/update?id=" + url.QueryEscape(f.ID())
		v.Submit = "Update Transaction"
	}
	for _, t := range []core.TransactionType{core.Expense, core.Income} {
		v.Types = append(v.Types, typeOption{Value: t, Label: typeLabel(t), Selected: t == v.Values.Type})
	}
	for _, c := range f.Categories() {
		v.Categories = append(v.Categories, categoryOption{
			ID:       c.ID,
			Name:     c.Name,
			Icon:     c.Icon,
			Selected: c.ID == v.Values.Category,
		})
	}
	return v
}
