package strategyconfig

import (
	"fmt"
	"math"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/internal/s1_validation"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// cronParser 스케줄러와 동일한 초 포함 6필드 문법
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if cfg.Meta.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
			return ValidationError{"meta.timezone", err.Error()}
		}
	}

	// === Construction ===
	c := cfg.Construction
	if c.NTradingDaysBack <= s1_validation.MinTradingDays {
		return ValidationError{"construction.n_trading_days_back", fmt.Sprintf("must be > %d", s1_validation.MinTradingDays)}
	}
	if c.NBestPerforming < 1 {
		return ValidationError{"construction.n_best_performing", "must be >= 1"}
	}
	if math.IsNaN(c.ResolutionParameter) || math.IsInf(c.ResolutionParameter, 0) || c.ResolutionParameter < 0 {
		return ValidationError{"construction.resolution_parameter", "must be finite and >= 0"}
	}
	if !contracts.CorrelationMeasure(c.CorrelationMeasure).IsValid() {
		return ValidationError{"construction.correlation_measure", "must be pearson or spearman"}
	}
	if !contracts.QualityFunction(c.QualityFunction).IsValid() {
		return ValidationError{"construction.quality_function", "must be modularity or cpm"}
	}

	// === Source ===
	if !contracts.ValueField(cfg.Source.Value).IsValid() {
		return ValidationError{"source.value", "must be return or close"}
	}
	if cfg.Source.Days < 0 {
		return ValidationError{"source.days", "must be >= 0"}
	}
	if cfg.Source.Days > 0 && cfg.Source.Days < c.NTradingDaysBack {
		return ValidationError{"source.days", "must cover n_trading_days_back"}
	}
	if math.IsNaN(cfg.Source.MinCoverage) || cfg.Source.MinCoverage < 0 || cfg.Source.MinCoverage > 1 {
		return ValidationError{"source.min_coverage", "must be within [0, 1]"}
	}
	seen := make(map[string]bool, len(cfg.Source.Codes))
	for _, code := range cfg.Source.Codes {
		if code == "" {
			return ValidationError{"source.codes", "must not contain empty codes"}
		}
		if seen[code] {
			return ValidationError{"source.codes", fmt.Sprintf("duplicate code %s", code)}
		}
		seen[code] = true
	}

	// === Schedule ===
	if cfg.Schedule.Enabled {
		if _, err := cronParser.Parse(cfg.Schedule.Cron); err != nil {
			return ValidationError{"schedule.cron", err.Error()}
		}
	}

	return nil
}

// Warnings returns recommended-practice violations
func Warnings(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Construction.ResolutionParameter > 2 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_RESOLUTION",
			Message: "resolution > 2: 대부분 단일 종목 커뮤니티가 될 수 있음",
		})
	}

	if cfg.Construction.NumberOfIterations > 0 && cfg.Construction.NumberOfIterations < 2 {
		warnings = append(warnings, Warning{
			Code:    "SINGLE_ROUND",
			Message: "number_of_iterations = 1: 수렴 전 파티션일 수 있음",
		})
	}

	if cfg.Construction.NTradingDaysBack < 10 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_WINDOW",
			Message: "거래일 10일 미만: 상관계수 추정이 불안정",
		})
	}

	if cfg.Source.Value == string(contracts.ValueClose) {
		warnings = append(warnings, Warning{
			Code:    "PRICE_LEVEL",
			Message: "close 가격 수준 상관은 추세에 지배됨, return 권장",
		})
	}

	return warnings
}
