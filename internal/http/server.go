package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/trace"
	"spendlog/internal/rates"
	"spendlog/internal/records"
)

// Options tunes the server surface. Zero values fall back to the
// package defaults.
type Options struct {
	RateLimitPerMinute int
	PageSizeDefault    int
	PageSizeMax        int
}

type Server struct {
	http.Server

	store records.Store
	rates *rates.Client

	pageSizeDefault int
	pageSizeMax     int

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// Write methods are rate limited per client IP; every request is traced.
func NewServer(addr string, store records.Store, ratesClient *rates.Client, opts Options) *Server {
	if opts.PageSizeDefault <= 0 {
		opts.PageSizeDefault = core.DefaultPageSize
	}
	if opts.PageSizeMax <= 0 {
		opts.PageSizeMax = core.MaxPageSize
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
	})

	s := &Server{
		store:           store,
		rates:           ratesClient,
		pageSizeDefault: opts.PageSizeDefault,
		pageSizeMax:     opts.PageSizeMax,
		limiter:         limiter,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/rates", s.handleRates)
	mux.HandleFunc("/expenses", s.handleExpenses)
	mux.HandleFunc("/expenses/", s.handleExpenseByID)

	tracer := trace.NewMiddleware(clientIP)
	limit := limiter.Middleware(clientIP, http.MethodPost, http.MethodPut, http.MethodDelete)

	s.Server = http.Server{
		Addr:    addr,
		Handler: tracer.Middleware(limit(mux)),
	}

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and drains the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// clientIP resolves the originating address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
