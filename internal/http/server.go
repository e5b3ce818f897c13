// Package http exposes the finsight JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/auth"
	"finsight/internal/insights"
	applog "finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/middleware/security"
	"finsight/internal/middleware/trace"
	"finsight/internal/services"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers orchestrate.
type Deps struct {
	Logger    *applog.Logger
	Auth      *auth.Service
	Expenses  *services.ExpenseService
	Budgets   *services.BudgetService
	Analytics *services.AnalyticsService
	Engine    *analytics.Engine
	Insights  *insights.Service
	DB        Pinger

	RateLimitPerMinute int
	TrustedProxies     []string
}

type Server struct {
	http.Server

	auth      *auth.Service
	expenses  *services.ExpenseService
	budgets   *services.BudgetService
	analytics *services.AnalyticsService
	engine    *analytics.Engine
	insights  *insights.Service
	db        Pinger

	logger  *applog.Logger
	limiter *ratelimit.Limiter
	trace   *trace.Middleware
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// Requests pass through tracing, security headers and rate limiting before
// reaching the mux; everything except registration, login, refresh and the
// probes also requires a bearer token.
func NewServer(addr string, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	clientIP := security.NewClientIP()
	for _, cidr := range deps.TrustedProxies {
		if err := clientIP.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("add trusted proxy %q: %w", cidr, err)
		}
	}

	limits := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = deps.RateLimitPerMinute
	}

	s := &Server{
		auth:      deps.Auth,
		expenses:  deps.Expenses,
		budgets:   deps.Budgets,
		analytics: deps.Analytics,
		engine:    deps.Engine,
		insights:  deps.Insights,
		db:        deps.DB,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		limiter:   ratelimit.NewLimiter(limits),
		trace:     trace.NewMiddleware(logger, clientIP.Extract),
		now:       time.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(clientIP.Extract, s.rateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.trace.Middleware(handler)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.Handle("POST /api/auth/logout", s.protected(s.handleLogout))
	mux.Handle("GET /api/auth/profile", s.protected(s.handleProfile))

	mux.Handle("POST /api/expenses", s.protected(s.handleCreateExpense))
	mux.Handle("GET /api/expenses", s.protected(s.handleListExpenses))
	mux.Handle("GET /api/expenses/summary", s.protected(s.handleExpenseSummary))
	mux.Handle("GET /api/expenses/{id}", s.protected(s.handleGetExpense))
	mux.Handle("PUT /api/expenses/{id}", s.protected(s.handleUpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", s.protected(s.handleDeleteExpense))

	mux.Handle("POST /api/budgets", s.protected(s.handleSetBudget))
	mux.Handle("GET /api/budgets", s.protected(s.handleListBudgets))
	mux.Handle("GET /api/budgets/current-month", s.protected(s.handleCurrentMonthBudgets))
	mux.Handle("PUT /api/budgets/{id}", s.protected(s.handleUpdateBudget))
	mux.Handle("DELETE /api/budgets/{id}", s.protected(s.handleDeleteBudget))

	mux.Handle("GET /api/analytics/dashboard", s.protected(s.handleDashboard))
	mux.Handle("GET /api/analytics/category-totals", s.protected(s.handleCategoryTotals))
	mux.Handle("GET /api/analytics/monthly-trend", s.protected(s.handleMonthlyTrend))
	mux.Handle("GET /api/analytics/category-trend", s.protected(s.handleCategoryTrend))
	mux.Handle("GET /api/analytics/yearly-summary", s.protected(s.handleYearlySummary))
	mux.Handle("GET /api/analytics/overspending", s.protected(s.handleOverspending))
	mux.Handle("GET /api/analytics/top-categories", s.protected(s.handleTopCategories))

	mux.Handle("POST /api/ai/generate-insights", s.protected(s.handleGenerateInsights))
	mux.Handle("GET /api/ai/saving-tips", s.protected(s.handleSavingTips))
	mux.Handle("GET /api/ai/predict-risk", s.protected(s.handlePredictRisk))
	mux.Handle("GET /api/ai/cached", s.protected(s.handleCachedInsights))

	mux.Handle("GET /api/export/csv", s.protected(s.handleExportCSV))
	mux.Handle("GET /api/export/xlsx", s.protected(s.handleExportXLSX))

	mux.HandleFunc("/", s.handleNotFound)
}

func (s *Server) protected(h http.HandlerFunc) http.Handler {
	return s.auth.Tokens().Middleware(s.unauthorized)(h)
}

// Shutdown stops the rate limiter cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"status":  "ok",
		"metrics": s.trace.GetMetrics(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			writeFailure(w, http.StatusServiceUnavailable, "Database unavailable", "")
			return
		}
	}
	writeSuccess(w, http.StatusOK, "", map[string]string{"status": "ready"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusNotFound, "Route not found", "")
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Rejected unauthenticated request",
		applog.FieldPath, r.URL.Path,
		applog.FieldError, err)
	writeFailure(w, http.StatusUnauthorized, "Authentication required", "")
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldPath, r.URL.Path)
	writeFailure(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", "")
}
