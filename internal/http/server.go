// Package http exposes the ledger as a JSON API. Handlers are thin:
// method check, parse, call the service, map the error. Authentication
// happens upstream; an auth proxy injects the resolved actor via
// X-Actor-* headers.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pennywise/internal/cache"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/middleware/trace"
	"pennywise/internal/services"
)

type Server struct {
	http.Server

	ledger  *services.LedgerService
	goals   *services.GoalService
	family  *services.FamilyService
	reports *services.ReportService
	logger  *log.Logger

	// Read-through caches on the hot read endpoints. Writes do not
	// invalidate; staleness is bounded by the TTL.
	summaryCache  *cache.LRUCache[core.ParentSummaryReport]
	overviewCache *cache.LRUCache[core.MoneyOverview]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// Deps carries the server's collaborators.
type Deps struct {
	Ledger  *services.LedgerService
	Goals   *services.GoalService
	Family  *services.FamilyService
	Reports *services.ReportService
	Logger  *log.Logger

	CacheTTL     time.Duration
	CacheMaxSize int
}

// NewServer configures routes and caches, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		ledger:        deps.Ledger,
		goals:         deps.Goals,
		family:        deps.Family,
		reports:       deps.Reports,
		logger:        deps.Logger.WithComponent(log.ComponentHTTP),
		summaryCache:  cache.NewLRUCache[core.ParentSummaryReport](deps.CacheMaxSize, deps.CacheTTL),
		overviewCache: cache.NewLRUCache[core.MoneyOverview](deps.CacheMaxSize, deps.CacheTTL),
		cacheManager:  cache.NewManager(),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/allowances", s.handleAllowances)
	mux.HandleFunc("/spendings", s.handleSpendings)
	mux.HandleFunc("/goals", s.handleGoals)
	mux.HandleFunc("/goals/status", s.handleGoalStatus)
	mux.HandleFunc("/places", s.handlePlaces)
	mux.HandleFunc("/money-overview", s.handleMoneyOverview)
	mux.HandleFunc("/reports/parent-summary", s.handleParentSummary)
	mux.HandleFunc("/reports/child", s.handleChildReport)
	mux.HandleFunc("/reports/categories", s.handleCategoryBreakdown)
	mux.HandleFunc("/reports/challenges", s.handleChallengeRates)
	mux.HandleFunc("/notes", s.handleNotes)
	mux.HandleFunc("/challenges", s.handleChallenges)
	mux.HandleFunc("/challenges/status", s.handleChallengeStatus)

	traced := trace.NewMiddleware(trace.ExtractClientIP)
	s.Server = http.Server{
		Addr:    addr,
		Handler: traced.Middleware(mux),
	}
	return s
}

// Shutdown stops the cache cleanup goroutine and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
