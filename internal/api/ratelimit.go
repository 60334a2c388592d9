package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/readnest/readnest/internal/errors"
)

// rateLimitScan rejects scan uploads from clients over their budget.
func (s *Server) rateLimitScan(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx)
	if !s.scanLimiter.Allow(key) {
		s.logger.Warn("rate limit exceeded", "ip", key, "path", ctx.URL().Path)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many scans, try again shortly",
			domainerrors.RateLimited("too many scans, try again shortly"))
		return
	}
	next(ctx)
}

// clientIP extracts the client IP. middleware.RealIP has already folded
// X-Forwarded-For and X-Real-IP into RemoteAddr.
func clientIP(ctx huma.Context) string {
	addr := ctx.RemoteAddr()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.TrimSpace(addr)
}
