package http

import (
	"context"
	"net/http"
	"time"

	"finsight/internal/core"
	"finsight/internal/insights"
	applog "finsight/internal/log"
)

type insightFunc func(ctx context.Context, userID string, forceRefresh bool) (insights.Result, error)

// serveInsight runs one insight kind and shapes its result. The text goes
// under textKey so each endpoint keeps its own field name.
func (s *Server) serveInsight(w http.ResponseWriter, r *http.Request, kind core.InsightType, textKey, failMsg, okMsg string, run insightFunc) {
	user := userID(r)
	res, err := run(r.Context(), user, ParseBool(r.URL.Query(), "forceRefresh"))
	if err != nil {
		writeError(w, r, err, failMsg)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogInsight(r.Context(), user, string(kind), res.Cached, res.Fallback)

	data := map[string]any{
		textKey:       res.Text,
		"cached":      res.Cached,
		"generatedAt": res.GeneratedAt.UTC().Format(time.RFC3339),
	}
	message := okMsg
	if res.Cached {
		message = "Retrieved cached insights"
	} else {
		data["fallback"] = res.Fallback
		data["dataUsed"] = res.DataUsed
	}
	writeSuccess(w, http.StatusOK, message, data)
}

func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	s.serveInsight(w, r, core.InsightSpendingAnalysis, "insights",
		"Error generating AI insights", "AI insights generated successfully", s.insights.GenerateInsights)
}

func (s *Server) handleSavingTips(w http.ResponseWriter, r *http.Request) {
	s.serveInsight(w, r, core.InsightBudgetOptimization, "tips",
		"Error generating saving tips", "Saving tips generated successfully", s.insights.SavingTips)
}

func (s *Server) handlePredictRisk(w http.ResponseWriter, r *http.Request) {
	s.serveInsight(w, r, core.InsightPrediction, "prediction",
		"Error predicting risk", "Risk prediction generated successfully", s.insights.PredictRisk)
}

func (s *Server) handleCachedInsights(w http.ResponseWriter, r *http.Request) {
	list, err := s.insights.Cached(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err, "Error fetching cached insights")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"insights": list})
}
