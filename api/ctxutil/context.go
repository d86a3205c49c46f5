package ctxutil

import (
	"context"

	"ecommerce/api/response"
	"ecommerce/infrastructure/persistence"

	"github.com/gin-gonic/gin"
)

// WithRequestID returns the request context tagged with the request id, so
// that repository and workflow logs carry it.
func WithRequestID(ctx *gin.Context) context.Context {
	requestID := response.GetRequestID(ctx)
	return persistence.ContextWithRequestID(ctx.Request.Context(), requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	return persistence.RequestIDFromContext(ctx)
}
