package middlewares

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorHeader names the operator recorded in the payment state history.
const ActorHeader = "X-Actor"

// ActorMiddleware stores the X-Actor header in the request context.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor := strings.TrimSpace(c.GetHeader(ActorHeader)); actor != "" {
			ctx := context.WithValue(c.Request.Context(), actorKey, actor)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// ActorFromContext returns the actor stored by ActorMiddleware, or "".
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey).(string)
	return actor
}

// ResolveActor prefers an explicit actor from the request body.
func ResolveActor(c *gin.Context, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	return ActorFromContext(c.Request.Context())
}
