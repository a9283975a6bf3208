package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/clusterfolio/internal/api"
	"github.com/wonny/clusterfolio/internal/api/handlers"
	"github.com/wonny/clusterfolio/pkg/logger"
	"github.com/wonny/clusterfolio/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작 (+ 스케줄러)",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 포트폴리오 구성 / 최신 결과 조회 엔드포인트 제공
- SCHEDULER_ENABLED=true 이고 DATABASE_URL 이 있으면 장 마감 후 자동 구성

Endpoints:
  GET  /health                   - Health check
  POST /api/portfolio/construct  - 패널 전송 → 포트폴리오 구성
  GET  /api/portfolio/latest     - 최근 스케줄 결과
  GET  /metrics                  - Prometheus (METRICS_ENABLED)

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Shared services (DB 는 스케줄러가 켜진 경우에만)
	rt, err := newRuntime(ctx, cfg, cfg.Portfolio.SchedulerEnabled, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	// 4. Router + server
	portfolioHandler := handlers.NewPortfolioHandler(rt.constructor, rt.store, rt.profile.Params(), log).
		WithMaxStocks(cfg.API.MaxStocks)
	limiter := redis.NewRateLimiter(rt.redis, "clusterfolio")
	router := api.NewRouter(portfolioHandler, cfg, limiter, log)
	server := api.New(cfg, log, router)

	// 5. Scheduler (선택)
	if cfg.Portfolio.SchedulerEnabled {
		sched, err := rt.newScheduler(cfg, log)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// 6. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	out := cmd.OutOrStdout()
	PrintSuccess(out, fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
	PrintInfo(out, "Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
