package http

import (
	"net/http"
	"strconv"

	"fintrack/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	txs, version, now := s.snapshot()
	v := s.views.summary.GetOrCompute(viewKey(version, now), func() summaryView {
		return buildSummary(txs, now)
	})
	s.render(w, r, "summary_cards", v)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	txs, version, now := s.snapshot()
	v := s.views.monthly.GetOrCompute(viewKey(version, now), func() monthlyView {
		return buildMonthly(txs, now)
	})
	s.render(w, r, "monthly_chart", v)
}

// handleCategories renders the pie for ?type=, expense when absent.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	typ := ParseTypeParam(r.URL.Query())
	txs, version, now := s.snapshot()
	v := s.views.pie.GetOrCompute(viewKey(version, now, typ.String()), func() pieView {
		return buildPie(txs, typ)
	})
	s.render(w, r, "category_pie", v)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	txs, version, now := s.snapshot()
	v := s.views.breakdown.GetOrCompute(viewKey(version, now), func() breakdownView {
		return buildBreakdown(txs)
	})
	s.render(w, r, "category_breakdown", v)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	limit := ParseLimit(r.URL.Query(), "limit", s.recentLimit, maxRecentLimit)
	txs, version, now := s.snapshot()
	rows := s.views.rows.GetOrCompute(viewKey(version, now, "recent", strconv.Itoa(limit)), func() []transactionRow {
		return buildRows(core.RecentTransactions(txs, limit), s.loc)
	})
	s.render(w, r, "recent_transactions", rows)
}

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	txs, version, now := s.snapshot()
	rows := s.views.rows.GetOrCompute(viewKey(version, now, "all"), func() []transactionRow {
		return buildRows(core.SortByDate(txs), s.loc)
	})
	s.render(w, r, "transaction_list", rows)
}
