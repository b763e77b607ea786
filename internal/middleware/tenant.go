package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
	"github.com/noah-isme/exam-engine-api/pkg/response"
)

// Context keys for the tenant scope lifted from request headers.
const (
	ContextTenantKey = "tenantID"
	ContextBranchKey = "branchID"
)

// TenantScope lifts the X-Tenant-ID and optional X-Branch-ID headers into
// the request context. Every data-plane route requires a tenant.
func TenantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "X-Tenant-ID header is required"))
			c.Abort()
			return
		}
		c.Set(ContextTenantKey, tenantID)
		if branchID := c.GetHeader("X-Branch-ID"); branchID != "" {
			c.Set(ContextBranchKey, branchID)
		}
		c.Next()
	}
}
