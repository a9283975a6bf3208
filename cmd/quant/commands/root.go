package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/clusterfolio/pkg/config"
	"github.com/wonny/clusterfolio/pkg/logger"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "clusterfolio - 상관관계 커뮤니티 기반 포트폴리오 구성",
	Long: `clusterfolio Unified CLI

일별 종목 관측값 패널에서 상관 그래프를 만들고
Leiden 커뮤니티마다 평균값 상위 종목을 선정합니다.

파이프라인:
  S0 패널 → S1 검증 → S2 정렬 → S3 상관 → S4 그래프 → S5 커뮤니티 → S6 선정

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant construct --input prices.csv --best 3
  go run ./cmd/quant construct --from-db --profile configs/strategy/default.yaml
  go run ./cmd/quant profile validate configs/strategy/default.yaml
  go run ./cmd/quant api
  go run ./cmd/quant test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads config and applies the global flags
// --env 는 명시한 경우에만 ENV 를 덮어씀
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("env") {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newCLILogger writes logs to stderr so stdout stays machine readable
func newCLILogger(cfg *config.Config) *logger.Logger {
	return logger.NewWithWriter(os.Stderr, cfg)
}
