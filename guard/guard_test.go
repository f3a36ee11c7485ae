package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kmkamyk/Ansible-Facts-Explorer/dbopen"
	_ "modernc.org/sqlite"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultHeaders())(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/facts", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if seen == "" {
		t.Fatal("no request ID in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("header %q != context %q", got, seen)
	}
}

func TestRateLimiter(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(RateLimitSchema))
	if _, err := db.Exec(`INSERT INTO rate_limits (endpoint, max_requests, window_seconds, enabled) VALUES ('/api/nl-filter', 2, 60, 1)`); err != nil {
		t.Fatal(err)
	}

	rl := NewRateLimiter(db, "/healthz")
	h := rl.Middleware(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/nl-filter", nil)
		req.RemoteAddr = "10.1.2.3:4000"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: code %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/nl-filter", nil)
	req.RemoteAddr = "10.1.2.3:4000"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("third request: code %d, want 429", rec.Code)
	}

	// A different IP has its own bucket.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/nl-filter", nil)
	req.RemoteAddr = "10.9.9.9:4000"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other IP: code %d, want 200", rec.Code)
	}

	// Unconfigured endpoints pass freely.
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/facts", nil)
		req.RemoteAddr = "10.1.2.3:4000"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("unlimited endpoint throttled on request %d", i)
		}
	}
}
