package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-engine-api/internal/middleware"
	"github.com/noah-isme/exam-engine-api/internal/models"
)

func actorFromContext(c *gin.Context) *models.ActorClaims {
	value, exists := c.Get(middleware.ContextActorKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.ActorClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorID(c *gin.Context) *string {
	claims := actorFromContext(c)
	if claims == nil || claims.UserID == "" {
		return nil
	}
	id := claims.UserID
	return &id
}

func tenantFromContext(c *gin.Context) string {
	return c.GetString(middleware.ContextTenantKey)
}

func branchFromContext(c *gin.Context) *string {
	branch := c.GetString(middleware.ContextBranchKey)
	if branch == "" {
		return nil
	}
	return &branch
}
