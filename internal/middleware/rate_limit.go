package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolhub/internal/app/models/dto"
	"github.com/yigit/schoolhub/internal/pkg/metrics"
	"github.com/yigit/schoolhub/internal/pkg/ratelimit"
)

// MsgTooManyRequests is returned once a client exhausts its budget
const MsgTooManyRequests = "Too many requests, please try again later."

// RateLimit throttles each client IP with limiter
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			metrics.IncRateLimited()
			detail := dto.NewErrorDetail(dto.ErrorCodeTooManyRequests, MsgTooManyRequests).WithSeverity(dto.ErrorSeverityWarning)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(detail))
			return
		}
		c.Next()
	}
}
