package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers Auth routes
func RegisterRoutes(rg *gin.RouterGroup, handler *Handler) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", handler.Login)
		authGroup.GET("/me", handler.RequireAdmin(), func(c *gin.Context) {
			claims, _ := c.Get(claimsKey)
			c.JSON(200, gin.H{"authenticated": true, "claims": claims})
		})
	}
}
