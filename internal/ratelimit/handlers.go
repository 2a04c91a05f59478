package ratelimit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusResponse describes the limits that apply to the caller
type StatusResponse struct {
	IP           string                 `json:"ip"`
	PerMinute    int                    `json:"per_minute"`
	PredictLimit int                    `json:"predict_per_minute"`
	Backend      string                 `json:"backend"`
	Stats        map[string]interface{} `json:"stats"`
	Timestamp    string                 `json:"timestamp"`
}

// HandleRateLimitStatus returns the limits that apply to the requesting IP
func (rl *RateLimiter) HandleRateLimitStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, StatusResponse{
			IP:           c.ClientIP(),
			PerMinute:    rl.config.IPLimitPerMin,
			PredictLimit: rl.config.PredictLimitPerMin,
			Backend:      rl.Backend(),
			Stats:        rl.GetStats(),
			Timestamp:    time.Now().Format(time.RFC3339),
		})
	}
}
