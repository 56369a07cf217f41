package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/auditor/stats"
)

// Stats counts handled requests and server-side failures
func Stats(storage *stats.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		delta := stats.MonthlyStats{Requests: 1}
		if c.Writer.Status() >= 500 {
			delta.Errors = 1
		}
		storage.IncrementStats(delta)
	}
}
