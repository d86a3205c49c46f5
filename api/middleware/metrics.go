package middleware

import (
	"fmt"
	"time"

	"ecommerce/infrastructure/observability"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// HTTPObserver is satisfied by observability.Metrics.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// MetricsMiddleware 记录请求耗时并为每个请求开一个 span。
// route 使用注册时的模板（/orders/:id），避免标签基数爆炸
func MetricsMiddleware(observer HTTPObserver, tracer *observability.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		if tracer != nil {
			ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
			)
			c.Request = c.Request.WithContext(ctx)
			defer func() {
				status := c.Writer.Status()
				span.SetAttributes(attribute.Int("http.status_code", status))
				var err error
				if status >= 500 {
					err = fmt.Errorf("http status %d", status)
				}
				observability.End(span, err)
			}()
		}

		c.Next()

		if observer != nil {
			observer.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
		}
	}
}
