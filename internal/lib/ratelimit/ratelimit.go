package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/linemk/qris-shop/internal/jwt-new/jwtmiddleware"
	"golang.org/x/time/rate"
)

const (
	cleanupEvery = 5 * time.Minute
	idleTTL      = 30 * time.Minute
)

type entry struct {
	limiter *rate.Limiter
	last    time.Time
}

// PerUser ограничитель частоты запросов на покупателя
type PerUser struct {
	mu      sync.Mutex
	entries map[int64]*entry
	rps     rate.Limit
	burst   int
}

func NewPerUser(rps float64, burst int) *PerUser {
	return &PerUser{
		entries: make(map[int64]*entry),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Allow расходует один токен покупателя userID
func (p *PerUser) Allow(userID int64) bool {
	p.mu.Lock()
	e, ok := p.entries[userID]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.entries[userID] = e
	}
	e.last = time.Now()
	p.mu.Unlock()

	return e.limiter.Allow()
}

// Run удаляет давно неактивных покупателей до отмены контекста
func (p *PerUser) Run(ctx context.Context) {
	t := time.NewTicker(cleanupEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			p.cleanup(now)
		}
	}
}

func (p *PerUser) cleanup(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, e := range p.entries {
		if now.Sub(e.last) > idleTTL {
			delete(p.entries, id)
		}
	}
}

// Middleware работает после jwtmiddleware: без userID в контексте запрос пропускается
func (p *PerUser) Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := jwtmiddleware.FromContext(r.Context())
			if ok && !p.Allow(userID) {
				log.Warn("rate limit exceeded", slog.Int64("user_id", userID))
				w.Header().Set("Retry-After", strconv.Itoa(p.retryAfter()))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p *PerUser) retryAfter() int {
	if p.rps <= 0 {
		return 60
	}
	sec := int(1 / float64(p.rps))
	if sec < 1 {
		sec = 1
	}
	return sec
}
