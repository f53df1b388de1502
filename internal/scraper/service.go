// Package scraper drives a real browser through the X.com login, search, and
// channel flows and turns the rendered pages into normalized post records.
package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/rroethle7474/timehealer-api/internal/cache"
	"github.com/rroethle7474/timehealer-api/internal/config"
	"github.com/rroethle7474/timehealer-api/internal/monitoring"
	"github.com/rroethle7474/timehealer-api/internal/session"
	"github.com/rroethle7474/timehealer-api/pkg/types"
)

// BrowserSession is the slice of a managed session the orchestrator needs.
type BrowserSession interface {
	Context() context.Context
}

// SessionPool hands out exclusively-owned browser sessions.
type SessionPool interface {
	Acquire(ctx context.Context) (BrowserSession, error)
	Release(s BrowserSession)
}

// managerPool adapts the session manager to the pool interface.
type managerPool struct {
	m *session.Manager
}

func (p managerPool) Acquire(ctx context.Context) (BrowserSession, error) {
	sess, err := p.m.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (p managerPool) Release(s BrowserSession) {
	if sess, ok := s.(*session.Session); ok {
		p.m.Release(sess)
	}
}

// Service orchestrates scraping operations end to end: one browser session
// per operation, login, a pass over each query, extraction, and caching.
type Service struct {
	sessions SessionPool
	cache    *cache.ResultCache
	metrics  *monitoring.Monitor
	cfg      *config.Config
	logger   *logrus.Logger

	// Browser-touching steps, replaceable in tests.
	prepare func(ctx context.Context, entryURL string) error
	run     func(ctx context.Context, op types.OperationType, query string) ([]types.PostRecord, error)
}

func NewService(cfg *config.Config, sessions *session.Manager, resultCache *cache.ResultCache, metrics *monitoring.Monitor, logger *logrus.Logger) *Service {
	s := &Service{
		sessions: managerPool{m: sessions},
		cache:    resultCache,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
	}
	s.prepare = s.prepareSession
	s.run = s.runQuery
	return s
}

// PerformOperation runs one scraping operation over the given queries. It
// returns whatever results were gathered alongside per-query error messages;
// one bad query never discards the others. A fatal setup failure (browser
// launch, login) returns nil results and a single error message.
func (s *Service) PerformOperation(ctx context.Context, op types.OperationType, targetURL string, queries []string, isDefault bool) (types.ResultSet, []string) {
	start := time.Now()

	key := cache.Fingerprint(op, targetURL, queries, isDefault)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Infof("Cache hit for %s operation with %d queries", op, len(queries))
		return cached, nil
	}

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		initErr := &DriverInitError{Err: err}
		s.logger.Errorf("Browser session setup failed: %v", initErr)
		return nil, []string{initErr.Error()}
	}
	defer s.sessions.Release(sess)

	opTimeout := time.Duration(s.cfg.Scraper.OperationTimeout) * time.Second
	bctx, cancel := context.WithTimeout(sess.Context(), opTimeout)
	defer cancel()

	entryURL := targetURL
	if entryURL == "" {
		entryURL = s.cfg.Twitter.BaseURL + "/i/flow/login"
	}
	if err := s.prepare(bctx, entryURL); err != nil {
		s.logger.Errorf("Session setup failed: %v", err)
		return nil, []string{err.Error()}
	}

	results := make(types.ResultSet)
	var errs []string
	for _, query := range queries {
		posts, err := s.run(bctx, op, query)
		if err != nil {
			s.logger.Errorf("Query %q failed: %v", query, err)
			errs = append(errs, fmt.Sprintf("error processing query '%s': %v", query, err))
			continue
		}
		results[query] = posts
	}

	if len(results) > 0 {
		s.cache.Set(key, results)
	}
	s.metrics.RecordOperation(op, len(queries), countPosts(results), len(errs), time.Since(start))
	return results, errs
}

// prepareSession opens the entry page and completes the login flow.
func (s *Service) prepareSession(ctx context.Context, entryURL string) error {
	if err := chromedp.Run(ctx, chromedp.Navigate(entryURL)); err != nil {
		return &DriverInitError{Err: fmt.Errorf("failed to open %s: %w", entryURL, err)}
	}
	return s.login(ctx)
}

// runQuery executes a single query in the already-authenticated session and
// extracts its posts.
func (s *Service) runQuery(ctx context.Context, op types.OperationType, query string) ([]types.PostRecord, error) {
	switch op {
	case types.OperationChannel:
		if err := s.runChannelQuery(ctx, query); err != nil {
			return nil, err
		}
	case types.OperationSearch:
		if err := s.runSearchQuery(ctx, query); err != nil {
			return nil, err
		}
	default:
		return nil, &QueryError{Query: query, Reason: fmt.Sprintf("unknown operation type %q", op)}
	}
	return s.extractPosts(ctx, s.cfg.Scraper.MaxPosts)
}

func countPosts(results types.ResultSet) int {
	total := 0
	for _, posts := range results {
		total += len(posts)
	}
	return total
}
