package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/auth"
)

// BearerAuth verifies the bearer token once per request and stashes the
// verified identity in the gin context. WebSocket clients that cannot
// set headers pass the token as a query parameter instead.
func BearerAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		user, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("auth rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "not_authenticated",
				"message": "not authenticated",
			})
			return
		}
		c.Set("user_id", string(user.ID))
		c.Set("user_name", user.Name)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}
