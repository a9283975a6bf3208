package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/internal/portfolio"
	"github.com/wonny/clusterfolio/internal/s0_data"
	"github.com/wonny/clusterfolio/internal/s3_correlation"
	"github.com/wonny/clusterfolio/internal/strategyconfig"
	"github.com/wonny/clusterfolio/pkg/config"
	"github.com/wonny/clusterfolio/pkg/database"
	"github.com/wonny/clusterfolio/pkg/logger"
)

// constructCmd represents the construct command
var constructCmd = &cobra.Command{
	Use:   "construct",
	Short: "포트폴리오 구성 (S0 → S6)",
	Long: `패널을 읽어 커뮤니티별 선정 종목을 출력합니다.

입력 (둘 중 하나):
  --input   CSV / XLSX / JSON 파일 (ticker,value 또는 date,ticker,value)
  --from-db PostgreSQL data.daily_prices

파라미터 우선순위: 기본값 < --profile (또는 STRATEGY_PROFILE) < 개별 플래그

Example:
  go run ./cmd/quant construct --input prices.csv
  go run ./cmd/quant construct --input prices.xlsx --days 20 --best 3 --measure spearman
  go run ./cmd/quant construct --from-db --before 2024-03-05 --codes 005930,000660 --json`,
	RunE: runConstruct,
}

var (
	constructInput      string
	constructFromDB     bool
	constructBefore     string
	constructCodes      []string
	constructProfile    string
	constructDays       int
	constructBest       int
	constructResolution float64
	constructMeasure    string
	constructIterations int
	constructQuality    string
	constructJSON       bool
)

func init() {
	rootCmd.AddCommand(constructCmd)

	f := constructCmd.Flags()
	f.StringVarP(&constructInput, "input", "i", "", "panel file (.csv, .xlsx, .json)")
	f.BoolVar(&constructFromDB, "from-db", false, "load the panel from PostgreSQL")
	f.StringVar(&constructBefore, "before", "", "only trading days before this date (YYYY-MM-DD, default: through today)")
	f.StringSliceVar(&constructCodes, "codes", nil, "stock codes to include (default: profile codes or all)")
	f.StringVar(&constructProfile, "profile", "", "strategy profile YAML")
	f.IntVar(&constructDays, "days", 0, "n_trading_days_back")
	f.IntVar(&constructBest, "best", 0, "n_best_performing")
	f.Float64Var(&constructResolution, "resolution", 0, "resolution_parameter")
	f.StringVar(&constructMeasure, "measure", "", "correlation_measure (pearson|spearman)")
	f.IntVar(&constructIterations, "iterations", 0, "number_of_iterations (negative = until converged)")
	f.StringVar(&constructQuality, "quality", "", "quality_function (modularity|cpm)")
	f.BoolVar(&constructJSON, "json", false, "print the result as JSON")

	constructCmd.MarkFlagsMutuallyExclusive("input", "from-db")
	constructCmd.MarkFlagsOneRequired("input", "from-db")
}

func runConstruct(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newCLILogger(cfg)
	out := cmd.OutOrStdout()

	profilePath := constructProfile
	if profilePath == "" {
		profilePath = cfg.Portfolio.StrategyProfile
	}
	profile, _, err := strategyconfig.LoadOrDefault(profilePath)
	if err != nil {
		return fmt.Errorf("load strategy profile: %w", err)
	}
	params := applyParamFlags(cmd, profile.Params())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var panel *contracts.Panel
	if constructFromDB {
		panel, err = loadPanelFromDB(ctx, cfg, profile, params, log)
	} else {
		panel, err = s0_data.LoadFile(constructInput)
	}
	if err != nil {
		return err
	}

	constructor := portfolio.NewConstructor(s3_correlation.NewEngine(cfg.Portfolio.Workers), log)
	result, err := constructor.Construct(ctx, panel, params)
	if err != nil {
		var ve *contracts.ValidationError
		if errors.As(err, &ve) && !constructJSON {
			PrintError(cmd.ErrOrStderr(), fmt.Sprintf("[%s] %s", ve.Kind, ve.Error()))
		}
		return err
	}

	if constructJSON {
		return writeJSON(out, result)
	}

	PrintHeader(out, "Portfolio Construction")
	PrintResultSummary(out, result)
	PrintSeparator(out)
	PrintPortfolios(out, result)
	return nil
}

// applyParamFlags overrides params with the flags the user set explicitly
func applyParamFlags(cmd *cobra.Command, params contracts.ConstructParams) contracts.ConstructParams {
	f := cmd.Flags()
	if f.Changed("days") {
		params.NTradingDaysBack = constructDays
	}
	if f.Changed("best") {
		params.NBestPerforming = constructBest
	}
	if f.Changed("resolution") {
		params.ResolutionParameter = constructResolution
	}
	if f.Changed("measure") {
		params.CorrelationMeasure = contracts.CorrelationMeasure(constructMeasure)
	}
	if f.Changed("iterations") {
		params.NumberOfIterations = constructIterations
	}
	if f.Changed("quality") {
		params.QualityFunction = contracts.QualityFunction(constructQuality)
	}
	return params
}

func loadPanelFromDB(ctx context.Context, cfg *config.Config, profile *strategyconfig.Config, params contracts.ConstructParams, log *logger.Logger) (*contracts.Panel, error) {
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	before, err := parseBefore(constructBefore, profile.Location(), time.Now())
	if err != nil {
		return nil, err
	}

	query := profile.PanelQuery(before)
	if len(constructCodes) > 0 {
		query.Codes = constructCodes
	}
	// --days 가 프로필 조회 범위보다 크면 조회 범위도 넓힘
	if query.Days < params.NTradingDaysBack {
		query.Days = params.NTradingDaysBack
	}

	return s0_data.NewPanelRepository(db.Pool, log).Load(ctx, query)
}

// parseBefore returns the exclusive cutoff; empty means through today
func parseBefore(value string, loc *time.Location, now time.Time) (time.Time, error) {
	if value == "" {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day()+1, 0, 0, 0, 0, loc), nil
	}

	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --before %q (expected YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
