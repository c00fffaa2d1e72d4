package helper

import "github.com/gin-gonic/gin"

// ExtractSessionFromCookies returns the raw Cookie header of the incoming
// request so collaborators receive the caller's own session credentials.
// Empty means the request is unauthenticated.
func ExtractSessionFromCookies(c *gin.Context) string {
	return c.GetHeader("Cookie")
}
