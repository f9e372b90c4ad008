package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/portfolio/internal/telemetry/metrics"
	"github.com/2beens/portfolio/pkg"

	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
)

const TooManyRequestsMessage = "Too many requests from this IP, please try again later."

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// NewWindowLimit allows requests requests per window, all of which may be spent at once.
func NewWindowLimit(requests int, window time.Duration) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   requests,
		Burst:  requests,
		Period: window,
	}
}

// RateLimit caps requests per client IP. Proxy headers only count for connections coming
// from trustedProxies. When the limiter itself fails the request is let through and the
// failure logged, so a redis outage does not take the API down.
func RateLimit(
	rateLimiter RequestRateLimiter,
	keyPrefix string,
	limit redis_rate.Limit,
	trustedProxies []*net.IPNet,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, err := pkg.ReadUserIP(r, trustedProxies)
			if err != nil {
				log.Debugf("rate limit: cannot read client ip: %s", err)
				ip = "unknown"
			}

			res, err := rateLimiter.Allow(r.Context(), keyPrefix+ip, limit)
			if err != nil {
				log.Errorf("rate limit [%s]: %s", ip, err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("RateLimit-Limit", strconv.Itoa(limit.Rate))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			log.Warnf("rate limit: too many requests from [%s], retry after %ds", ip, retryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			pkg.WriteError(w, http.StatusTooManyRequests, TooManyRequestsMessage)
		})
	}
}
