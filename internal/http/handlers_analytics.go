package http

import (
	"net/http"
	"time"

	"finsight/internal/core"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.analytics.Dashboard(r.Context(), userID(r), s.now())
	if err != nil {
		writeError(w, r, err, "Error fetching dashboard analytics")
		return
	}
	writeSuccess(w, http.StatusOK, "", d)
}

// handleCategoryTotals defaults each missing bound to the current month.
func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "Error fetching category totals")
		return
	}
	monthStart, monthEnd := core.CurrentMonthRange(s.now())
	if rng.Start.IsZero() {
		rng.Start = monthStart
	}
	if rng.End.IsZero() {
		rng.End = monthEnd
	}
	totals, err := s.engine.CategoryTotals(r.Context(), userID(r), rng.Start, rng.End)
	if err != nil {
		writeError(w, r, err, "Error fetching category totals")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"categoryTotals": totals,
		"period": map[string]time.Time{
			"startDate": rng.Start,
			"endDate":   rng.End,
		},
	})
}

func (s *Server) handleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	months, err := ParseIntParam(r.URL.Query(), "months", defaultTrendMonths, 1, maxTrendMonths)
	if err != nil {
		writeError(w, r, err, "Error fetching monthly trend")
		return
	}
	trend, err := s.engine.MonthlyTrend(r.Context(), userID(r), months)
	if err != nil {
		writeError(w, r, err, "Error fetching monthly trend")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"monthlyTrend": trend})
}

func (s *Server) handleCategoryTrend(w http.ResponseWriter, r *http.Request) {
	months, err := ParseIntParam(r.URL.Query(), "months", defaultTrendMonths, 1, maxTrendMonths)
	if err != nil {
		writeError(w, r, err, "Error fetching category trend")
		return
	}
	trend, err := s.engine.CategoryMonthlyTrend(r.Context(), userID(r), months)
	if err != nil {
		writeError(w, r, err, "Error fetching category trend")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"categoryTrend": trend})
}

func (s *Server) handleYearlySummary(w http.ResponseWriter, r *http.Request) {
	year, err := ParseIntParam(r.URL.Query(), "year", s.now().UTC().Year(), core.MinYear, core.MaxYear)
	if err != nil {
		writeError(w, r, err, "Error fetching yearly summary")
		return
	}
	summary, err := s.engine.YearlySummary(r.Context(), userID(r), year)
	if err != nil {
		writeError(w, r, err, "Error fetching yearly summary")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"year": year, "summary": summary})
}

func (s *Server) handleOverspending(w http.ResponseWriter, r *http.Request) {
	month, over, err := s.budgets.Overspending(r.Context(), userID(r), s.now())
	if err != nil {
		writeError(w, r, err, "Error fetching overspending categories")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"month":                  month,
		"overspendingCategories": over,
		"count":                  len(over),
	})
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := ParseIntParam(query, "limit", defaultTopLimit, 1, len(core.Categories))
	if err != nil {
		writeError(w, r, err, "Error fetching top categories")
		return
	}
	rng, err := ParseDateRange(query)
	if err != nil {
		writeError(w, r, err, "Error fetching top categories")
		return
	}
	top, err := s.engine.TopCategories(r.Context(), userID(r), limit, rng.Start, rng.End)
	if err != nil {
		writeError(w, r, err, "Error fetching top categories")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"topCategories": top})
}
