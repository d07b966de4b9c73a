// Package testserver is a local HTTP target for exercising volleys: fixed
// statuses, slow responses, periodic failures and per-key quotas that start
// answering "rate limited" after N requests.
package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQuota is the limit used by the quota endpoints when ?limit= is absent.
const DefaultQuota = 10

// Server holds the endpoint state. Each Server counts independently.
type Server struct {
	mux      *http.ServeMux
	requests atomic.Int64

	mu     sync.Mutex
	quotas map[string]int
}

// NewServer creates a Server with every endpoint registered.
func NewServer() *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		quotas: make(map[string]int),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/status/", s.handleStatus)
	s.mux.HandleFunc("/delay/", s.handleDelay)
	s.mux.HandleFunc("/fail-every", s.handleFailEvery)
	s.mux.HandleFunc("/quota", s.handleQuota)
	s.mux.HandleFunc("/quota-json", s.handleQuotaJSON)
	s.mux.HandleFunc("/quota/reset", s.handleQuotaReset)
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleStatus answers GET /status/{code} with that status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, ok := pathInt(r, "/status/")
	if !ok || code < 100 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, "%d %s", code, http.StatusText(code))
}

// handleDelay answers GET /delay/{ms} after ms milliseconds, or earlier if
// the client goes away.
func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	ms, ok := pathInt(r, "/delay/")
	if !ok || ms < 0 {
		http.Error(w, "invalid delay", http.StatusBadRequest)
		return
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-r.Context().Done():
		return
	}
	fmt.Fprintf(w, "delayed %dms", ms)
}

// handleFailEvery answers 500 to every n-th request it receives (?n=, default 2).
// The sequence is shared by all callers, so failures are deterministic in
// count regardless of arrival order.
func (s *Server) handleFailEvery(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n < 1 {
		n = 2
	}
	seq := s.requests.Add(1)
	if seq%int64(n) == 0 {
		http.Error(w, "scheduled failure", http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, "request %d ok", seq)
}

// take consumes one request from the named quota.
func (s *Server) take(key string, limit int) (used int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotas[key]++
	used = s.quotas[key]
	return used, used <= limit
}

func quotaParams(r *http.Request) (key string, limit int) {
	key = r.URL.Query().Get("key")
	if key == "" {
		key = "default"
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		limit = DefaultQuota
	}
	return key, limit
}

// handleQuota accepts limit requests per key, then answers 429.
// Example: GET /quota?limit=5&key=otp
func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	key, limit := quotaParams(r)
	used, ok := s.take(key, limit)
	if !ok {
		w.Header().Set("Retry-After", "60")
		http.Error(w, "quota exhausted", http.StatusTooManyRequests)
		return
	}
	fmt.Fprintf(w, "accepted %d/%d", used, limit)
}

// handleQuotaJSON is like handleQuota but always answers 200 and reports
// exhaustion in the body as {"error":{"code":"rate_limited"}}.
func (s *Server) handleQuotaJSON(w http.ResponseWriter, r *http.Request) {
	key, limit := quotaParams(r)
	used, ok := s.take(key, limit)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"error": map[string]any{"code": "rate_limited"}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accepted": used, "limit": limit})
}

// handleQuotaReset clears one quota (?key=) or all of them.
func (s *Server) handleQuotaReset(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	s.mu.Lock()
	if key == "" {
		clear(s.quotas)
	} else {
		delete(s.quotas, key)
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func pathInt(r *http.Request, prefix string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, prefix))
	return n, err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // client gone
}
