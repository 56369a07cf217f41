package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const dayLayout = "2006-01-02"

// PeriodKey returns the quota period t falls into (UTC day)
func PeriodKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// QuotaStore counts audits per key within the current period.
// All counters reset when the period key changes.
type QuotaStore struct {
	mu     sync.Mutex
	limit  int
	period string
	counts map[string]int
	now    func() time.Time
}

// NewQuotaStore creates a store allowing limit uses per key per day. A limit of 0 disables it.
func NewQuotaStore(limit int, now func() time.Time) *QuotaStore {
	if now == nil {
		now = time.Now
	}
	return &QuotaStore{
		limit:  limit,
		counts: make(map[string]int),
		now:    now,
	}
}

// Take consumes one use for key. It returns the remaining uses and whether the use was allowed.
func (q *QuotaStore) Take(key string) (int, bool) {
	if q.limit <= 0 {
		return -1, true
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if period := PeriodKey(q.now()); period != q.period {
		q.period = period
		q.counts = make(map[string]int)
	}
	if q.counts[key] >= q.limit {
		return 0, false
	}
	q.counts[key]++
	return q.limit - q.counts[key], true
}

// untilReset is the time left in the current period
func (q *QuotaStore) untilReset() time.Duration {
	now := q.now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(now)
}

// Quota is the gin middleware, keyed by client IP
func (q *QuotaStore) Quota() gin.HandlerFunc {
	return func(c *gin.Context) {
		remaining, ok := q.Take(c.ClientIP())
		if remaining >= 0 {
			c.Header("X-Quota-Remaining", strconv.Itoa(remaining))
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(q.untilReset().Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Daily audit quota exceeded.",
			})
			return
		}
		c.Next()
	}
}
