// Package insights caches, generates and serves natural-language commentary
// about a user's spending.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"finsight/internal/core"

	"github.com/google/uuid"
)

// Store persists insights. LatestInsight returns core.ErrNotFound when nothing
// matches.
type Store interface {
	CreateInsight(ctx context.Context, in core.Insight) error
	LatestInsight(ctx context.Context, userID string, t core.InsightType, createdSince, now time.Time) (core.Insight, error)
	ListActiveInsights(ctx context.Context, userID string, now time.Time, limit int) ([]core.Insight, error)
	PurgeExpiredInsights(ctx context.Context, now time.Time) (int64, error)
}

// Policy holds the two independent windows of an insight type: MaxAge decides
// whether an entry may still be served, TTL decides when it disappears.
type Policy struct {
	MaxAge time.Duration
	TTL    time.Duration
}

type Policies map[core.InsightType]Policy

func DefaultPolicies() Policies {
	return Policies{
		core.InsightSpendingAnalysis:   {MaxAge: 24 * time.Hour, TTL: 24 * time.Hour},
		core.InsightBudgetOptimization: {MaxAge: 48 * time.Hour, TTL: 48 * time.Hour},
		core.InsightPrediction:         {MaxAge: 6 * time.Hour, TTL: 6 * time.Hour},
		core.InsightGeneral:            {MaxAge: 24 * time.Hour, TTL: 24 * time.Hour},
	}
}

func (p Policies) For(t core.InsightType) Policy {
	if policy, ok := p[t]; ok {
		return policy
	}
	return DefaultPolicies()[core.InsightGeneral]
}

type Cache struct {
	store    Store
	policies Policies
	now      func() time.Time
}

type CacheOption func(*Cache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

func NewCache(store Store, policies Policies, opts ...CacheOption) *Cache {
	if policies == nil {
		policies = DefaultPolicies()
	}
	c := &Cache{store: store, policies: policies, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Policy(t core.InsightType) Policy {
	return c.policies.For(t)
}

func (c *Cache) Now() time.Time {
	return c.now().UTC()
}

// FindRecent returns the newest entry of type t that was created no earlier
// than now-maxAge and has not yet expired. Reads never delete anything.
// A zero maxAge only matches entries stamped at the current instant, so with
// the wall clock a FindRecent right after Put usually misses.
func (c *Cache) FindRecent(ctx context.Context, userID string, t core.InsightType, maxAge time.Duration) (core.Insight, bool, error) {
	now := c.Now()
	in, err := c.store.LatestInsight(ctx, userID, t, now.Add(-maxAge), now)
	if errors.Is(err, core.ErrNotFound) {
		return core.Insight{}, false, nil
	}
	if err != nil {
		return core.Insight{}, false, fmt.Errorf("find recent insight: %w", err)
	}
	return in, true, nil
}

// Lookup is FindRecent with the configured max age of t.
func (c *Cache) Lookup(ctx context.Context, userID string, t core.InsightType) (core.Insight, bool, error) {
	return c.FindRecent(ctx, userID, t, c.Policy(t).MaxAge)
}

// Put records a new entry expiring ttl from now. Older entries of the same
// type are left alone until they expire.
func (c *Cache) Put(ctx context.Context, userID string, t core.InsightType, snapshot any, response string, ttl time.Duration) (core.Insight, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return core.Insight{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	now := c.Now()
	in := core.Insight{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         t,
		DataSnapshot: raw,
		Response:     Truncate(response),
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := in.Validate(); err != nil {
		return core.Insight{}, err
	}
	if err := c.store.CreateInsight(ctx, in); err != nil {
		return core.Insight{}, fmt.Errorf("store insight: %w", err)
	}
	return in, nil
}

// Save is Put with the configured TTL of t.
func (c *Cache) Save(ctx context.Context, userID string, t core.InsightType, snapshot any, response string) (core.Insight, error) {
	return c.Put(ctx, userID, t, snapshot, response, c.Policy(t).TTL)
}

// Active lists unexpired entries of every type, newest first.
func (c *Cache) Active(ctx context.Context, userID string, limit int) ([]core.Insight, error) {
	list, err := c.store.ListActiveInsights(ctx, userID, c.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("list active insights: %w", err)
	}
	return list, nil
}

// Purge removes every entry past its expiry and reports how many went away.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	return c.store.PurgeExpiredInsights(ctx, c.Now())
}

// Reaper adapts the cache to cache.Cleaner so expiry runs on a schedule,
// independently of reads.
type Reaper struct {
	cache   *Cache
	timeout time.Duration
}

func NewReaper(c *Cache) *Reaper {
	return &Reaper{cache: c, timeout: 30 * time.Second}
}

func (r *Reaper) CleanExpired() int {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	n, err := r.cache.Purge(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to purge expired insights", "error", err)
		return 0
	}
	if n > 0 {
		slog.InfoContext(ctx, "Purged expired insights", "count", n)
	}
	return int(n)
}

// Truncate cuts s to the maximum stored response length, counted in runes.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= core.MaxInsightResponseLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:core.MaxInsightResponseLength])
}
