package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/clusterfolio/internal/s0_data"
	"github.com/wonny/clusterfolio/internal/s0_data/quality"
	"github.com/wonny/clusterfolio/internal/strategyconfig"
	"github.com/wonny/clusterfolio/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "PostgreSQL 연결 + 패널 가용성 테스트",
	Long: `데이터베이스 연결을 테스트하고 구성 가능한 거래일 수를 표시합니다.

이 명령어는:
- config에서 DATABASE_URL 로드
- Ping / Health Check
- Connection Pool 통계 표시
- data.daily_prices 의 오늘 이전 거래일 수 확인

Example:
  go run ./cmd/quant test-db
  go run ./cmd/quant test-db --env production`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	PrintHeader(out, "Database Connection Test")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	PrintSuccess(out, fmt.Sprintf("Config loaded (ENV: %s)", cfg.Env))
	PrintKeyValue(out, "Database URL", maskPassword(cfg.Database.URL), 14)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		PrintError(out, "Failed to connect to database")
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	PrintSuccess(out, "Database connection established")

	status, err := db.HealthCheck(ctx)
	if err != nil {
		PrintError(out, "Health check failed")
		return fmt.Errorf("health check: %w", err)
	}
	PrintKeyValue(out, "Response Time", status.ResponseTime.String(), 14)
	PrintKeyValue(out, "Max Conns", fmt.Sprint(status.Stats.MaxConns), 14)
	PrintKeyValue(out, "Total Conns", fmt.Sprint(status.Stats.TotalConns), 14)
	PrintKeyValue(out, "Idle Conns", fmt.Sprint(status.Stats.IdleConns), 14)

	days, err := s0_data.NewPanelRepository(db.Pool, newCLILogger(cfg)).AvailableDays(ctx, time.Now())
	if err != nil {
		PrintError(out, "Failed to read data.daily_prices")
		return fmt.Errorf("count trading days: %w", err)
	}
	PrintKeyValue(out, "Trading Days", fmt.Sprint(days), 14)

	if days < 3 {
		PrintWarning(out, "Fewer than 3 trading days stored: construction will fail with WINDOW_EXCEEDS_DATA")
	}

	// 활성 프로필 기준 창 커버리지
	profile, _, err := strategyconfig.LoadOrDefault(cfg.Portfolio.StrategyProfile)
	if err != nil {
		return fmt.Errorf("load strategy profile: %w", err)
	}
	gateCfg := quality.DefaultConfig()
	gateCfg.MinCoverage = profile.Source.MinCoverage
	snapshot, err := quality.NewGate(db.Pool, gateCfg).Check(ctx, profile.PanelQuery(time.Now()))
	if err != nil {
		return fmt.Errorf("check coverage: %w", err)
	}
	PrintKeyValue(out, "Window Days", fmt.Sprintf("%d / %d", snapshot.FoundDays, snapshot.RequestedDays), 14)
	PrintKeyValue(out, "Stocks", fmt.Sprintf("%d complete / %d total", snapshot.CompleteStocks, snapshot.TotalStocks), 14)
	PrintKeyValue(out, "Coverage", fmt.Sprintf("%.1f%%", snapshot.Coverage*100), 14)
	PrintKeyValue(out, "Latest Day", fmt.Sprintf("%s (expected %s)",
		snapshot.LatestDate.Format("2006-01-02"), snapshot.ExpectedDate.Format("2006-01-02")), 14)
	if !snapshot.Passed {
		PrintWarning(out, "Coverage gate would block the scheduled job: "+snapshot.Reason)
	}

	PrintSuccess(out, "All checks passed")
	return nil
}

// maskPassword hides the password of a database URL for display
func maskPassword(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}
