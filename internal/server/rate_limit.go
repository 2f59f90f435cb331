package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter grants each client a fixed number of requests per window.
// Clients are keyed by IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type clientWindow struct {
	used  int
	start time.Time
}

// RateLimiterConfig configures a RateLimiter. Zero fields take defaults.
type RateLimiterConfig struct {
	// RequestsPerWindow defaults to 30; factorisations are expensive.
	RequestsPerWindow int
	// Window defaults to one minute.
	Window time.Duration
	// CleanupInterval defaults to five minutes.
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig returns the defaults.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{RequestsPerWindow: 30, Window: time.Minute, CleanupInterval: 5 * time.Minute}
}

// NewRateLimiter starts a limiter and its cleanup goroutine; call Stop to
// end it.
//
// Parameters:
//   - config: Requests allowed per window and the window length; zero values select the defaults.
//
// Returns:
//   - *RateLimiter: A limiter with its eviction goroutine running; call Stop.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	def := DefaultRateLimiterConfig()
	if config.RequestsPerWindow <= 0 {
		config.RequestsPerWindow = def.RequestsPerWindow
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	rl := &RateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   config.RequestsPerWindow,
		window:  config.Window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop(config.CleanupInterval)
	return rl
}

// Allow consumes one request for client and returns whether it was
// granted along with the requests left in the current window.
func (rl *RateLimiter) Allow(client string) (ok bool, remaining int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cw, exists := rl.clients[client]
	if !exists || now.Sub(cw.start) >= rl.window {
		cw = &clientWindow{start: now}
		rl.clients[client] = cw
	}
	if cw.used >= rl.limit {
		return false, 0
	}
	cw.used++
	return true, rl.limit - cw.used
}

// Clients is the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) evictExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, cw := range rl.clients {
		if now.Sub(cw.start) > 2*rl.window {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictExpired()
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// RateLimitMiddleware answers 429 once a client used its window.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, remaining := rl.Allow(getClientIP(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too Many Requests","message":"Rate limit exceeded. Please try again later."}`))
			return
		}
		next(w, r)
	}
}

// getClientIP prefers the first X-Forwarded-For entry, then X-Real-IP,
// then the connection address without its port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.Trim(r.RemoteAddr, "[]")
	}
	return host
}
