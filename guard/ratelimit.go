package guard

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimitRule defines the limit for a single endpoint path.
type RateLimitRule struct {
	MaxRequests   int
	WindowSeconds int
	Enabled       bool
}

type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// RateLimiter enforces per-IP, per-endpoint request limits. Rules live in a
// SQLite rate_limits table so operators can tune them without a redeploy;
// they are reloaded periodically and expired buckets garbage collected.
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS rate_limits (
//	    endpoint TEXT PRIMARY KEY,
//	    max_requests INTEGER NOT NULL DEFAULT 120,
//	    window_seconds INTEGER NOT NULL DEFAULT 60,
//	    enabled INTEGER NOT NULL DEFAULT 1
//	);
type RateLimiter struct {
	db      *sql.DB
	mu      sync.RWMutex
	rules   map[string]RateLimitRule
	buckets sync.Map
	exclude []string
}

// RateLimitSchema creates the rules table. Pass it to dbopen.WithSchema.
const RateLimitSchema = `
CREATE TABLE IF NOT EXISTS rate_limits (
    endpoint TEXT PRIMARY KEY,
    max_requests INTEGER NOT NULL DEFAULT 120,
    window_seconds INTEGER NOT NULL DEFAULT 60,
    enabled INTEGER NOT NULL DEFAULT 1
);`

// NewRateLimiter creates a limiter reading rules from db. Paths matching an
// exclude prefix bypass limiting entirely (health checks, static assets).
func NewRateLimiter(db *sql.DB, excludePrefixes ...string) *RateLimiter {
	rl := &RateLimiter{
		db:      db,
		rules:   make(map[string]RateLimitRule),
		exclude: excludePrefixes,
	}
	rl.reload()
	return rl
}

// StartReloader refreshes rules every minute and garbage-collects expired
// buckets every five, until done is closed.
func (rl *RateLimiter) StartReloader(done <-chan struct{}) {
	go func() {
		reloadTick := time.NewTicker(time.Minute)
		gcTick := time.NewTicker(5 * time.Minute)
		defer reloadTick.Stop()
		defer gcTick.Stop()
		for {
			select {
			case <-done:
				return
			case <-reloadTick.C:
				rl.reload()
			case <-gcTick.C:
				rl.gc()
			}
		}
	}()
}

func (rl *RateLimiter) reload() {
	rows, err := rl.db.Query(`SELECT endpoint, max_requests, window_seconds, enabled FROM rate_limits`)
	if err != nil {
		slog.Warn("ratelimit: reload failed", "error", err)
		return
	}
	defer rows.Close()

	rules := make(map[string]RateLimitRule)
	for rows.Next() {
		var endpoint string
		var rule RateLimitRule
		var enabled int
		if err := rows.Scan(&endpoint, &rule.MaxRequests, &rule.WindowSeconds, &enabled); err != nil {
			continue
		}
		rule.Enabled = enabled == 1
		rules[endpoint] = rule
	}

	rl.mu.Lock()
	rl.rules = rules
	rl.mu.Unlock()
}

func (rl *RateLimiter) gc() {
	now := time.Now()
	rl.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		expired := now.After(b.resetAt)
		b.mu.Unlock()
		if expired {
			rl.buckets.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) allow(ip, endpoint string) bool {
	rl.mu.RLock()
	rule, ok := rl.rules[endpoint]
	rl.mu.RUnlock()
	if !ok || !rule.Enabled {
		return true
	}

	window := time.Duration(rule.WindowSeconds) * time.Second
	now := time.Now()
	val, loaded := rl.buckets.LoadOrStore(ip+":"+endpoint, &bucket{count: 1, resetAt: now.Add(window)})
	if !loaded {
		return true
	}

	b := val.(*bucket)
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.After(b.resetAt) {
		b.count = 1
		b.resetAt = now.Add(window)
		return true
	}
	b.count++
	return b.count <= rule.MaxRequests
}

// Middleware enforces the limits, answering 429 with a JSON body when an
// endpoint's budget is spent.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range rl.exclude {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !rl.allow(ip, r.URL.Path) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
