package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ecommerce/api"
	"ecommerce/config"
	"ecommerce/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用程序：HTTP server 及其持有的连接
type App struct {
	config *config.Config
	router *api.Router
	server *http.Server
	db     *gorm.DB
	redis  *redis.Client
}

// Run 阻塞直到 ctx 取消，然后在 shutdown_timeout 内优雅关闭
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", a.server.Addr),
			zap.String("health", "/api/v1/health"))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.Close()
	logger.Info("Server stopped")
	return nil
}

// Close releases the database and redis connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("Failed to close database", zap.Error(err))
			}
		}
	}
}

// Handler 获取 HTTP handler（用于测试）
func (a *App) Handler() http.Handler {
	return a.router.GetEngine()
}
