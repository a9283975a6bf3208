package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/clusterfolio/internal/portfolio"
	"github.com/wonny/clusterfolio/pkg/redis"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "캐시 정리 도구",
	Long: `캐시된 결과를 정리합니다.

Example:
  quant cleanup latest`,
}

var cleanupLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "최신 포트폴리오 캐시 삭제",
	Long: `Redis 에 캐시된 최신 스케줄 결과를 삭제합니다.

잘못된 프로필로 만들어진 결과가 /api/portfolio/latest 로
계속 제공되는 경우, 다음 스케줄 실행 전까지 응답을 404 로 돌립니다.
(실행 중인 API 프로세스의 메모리 사본은 재시작 시 사라짐)

Example:
  quant cleanup latest`,
	RunE: runCleanupLatest,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.AddCommand(cleanupLatestCmd)
}

func runCleanupLatest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Redis.Enabled {
		PrintInfo(out, "Redis disabled (REDIS_ENABLED=false): nothing to clean up")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer client.Close()

	repo := portfolio.NewRepository(redis.NewCache(client, "clusterfolio"), cfg.Redis.ResultTTL, newCLILogger(cfg))
	if err := repo.ClearLatest(ctx); err != nil {
		return err
	}

	PrintSuccess(out, "Latest portfolio cache cleared")
	return nil
}
