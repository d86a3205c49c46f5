package middleware

import (
	"bytes"
	"context"
	"net/http"

	"ecommerce/api/response"
	"ecommerce/infrastructure/idempotency"
	apperrors "ecommerce/pkg/errors"
	"ecommerce/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
)

// bodyRecorder 在写给客户端的同时保留一份响应体
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency 对带 Idempotency-Key 的请求：
//   - 首次请求执行 handler，2xx 响应被记住，其它响应释放 key 允许重试
//   - 已完成的 key 直接回放原响应
//   - 仍在处理中的 key 返回 409
//
// key 按调用方和路由隔离。存储不可用时放行请求。
func Idempotency(store idempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(IdempotencyKeyHeader)
		if header == "" || store == nil {
			c.Next()
			return
		}

		key := scopedKey(c, header)
		ctx := c.Request.Context()
		log := logger.FromContext(ctx).With(zap.String("idempotency_key", header))

		existing, acquired, err := store.Begin(ctx, key)
		if err != nil {
			log.Warn("Idempotency store unavailable, proceeding without it", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			if existing != nil && existing.State == idempotency.StateCompleted {
				log.Info("Replaying idempotent response")
				c.Header(ReplayedHeader, "true")
				c.Data(existing.StatusCode, existing.ContentType, existing.Body)
				c.Abort()
				return
			}
			response.Abort(c, apperrors.Conflict("a request with this idempotency key is still in progress"))
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		completed := false
		defer func() {
			// handler panic 或非 2xx：释放 key
			if completed {
				return
			}
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}()

		c.Next()

		status := rec.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}
		entry := idempotency.Entry{
			State:       idempotency.StateCompleted,
			StatusCode:  status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		if err := store.Complete(context.WithoutCancel(ctx), key, entry); err != nil {
			log.Warn("Failed to record idempotent response", zap.Error(err))
			return
		}
		completed = true
	}
}

// scopedKey uses the concrete path, so one key reused on two orders' resources
// is two distinct requests.
func scopedKey(c *gin.Context, header string) string {
	owner := "anonymous"
	if actor, ok := ActorFrom(c); ok {
		owner = actor.UserID
	}
	return owner + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + header
}
