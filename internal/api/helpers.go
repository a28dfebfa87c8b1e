package api

import (
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// currentUserID pulls the authenticated user id the JWT middleware stored
// in the context.
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID") // Get userID from context
	if !exists {
		return 0, false // Not authenticated
	}
	id, ok := v.(uint) // Stored as uint by the middleware
	return id, ok
}

// redisFrom returns the request-scoped Redis client, or nil when caching
// is not wired (tests run without Redis).
func redisFrom(c *gin.Context) *redis.Client {
	v, exists := c.Get("redisClient") // Injected by the route group
	if !exists {
		return nil
	}
	rdb, _ := v.(*redis.Client)
	return rdb
}
