package strategyconfig

import (
	"time"

	"github.com/wonny/clusterfolio/internal/contracts"
)

// Config는 포트폴리오 구성 전략 프로필 전체 설정
type Config struct {
	Meta         Meta         `yaml:"meta" json:"meta"`
	Construction Construction `yaml:"construction" json:"construction"`
	Source       Source       `yaml:"source" json:"source"`
	Schedule     Schedule     `yaml:"schedule" json:"schedule"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id"`
	Version     string `yaml:"version" json:"version"`
	Timezone    string `yaml:"timezone" json:"timezone"`
	Description string `yaml:"description" json:"description"`
}

// Construction S1~S6 파라미터
type Construction struct {
	NTradingDaysBack    int     `yaml:"n_trading_days_back" json:"n_trading_days_back"`
	NBestPerforming     int     `yaml:"n_best_performing" json:"n_best_performing"`
	ResolutionParameter float64 `yaml:"resolution_parameter" json:"resolution_parameter"`
	CorrelationMeasure  string  `yaml:"correlation_measure" json:"correlation_measure"` // pearson | spearman
	NumberOfIterations  int     `yaml:"number_of_iterations" json:"number_of_iterations"` // 음수 = 수렴까지
	QualityFunction     string  `yaml:"quality_function" json:"quality_function"`         // modularity | cpm
}

// Source S0: DB 패널 조회 설정
type Source struct {
	Value string   `yaml:"value" json:"value"` // return | close
	Codes []string `yaml:"codes,omitempty" json:"codes"` // 비어 있으면 전체 종목
	Days  int      `yaml:"days" json:"days"`   // 조회 거래일 수 (0 = n_trading_days_back)

	// MinCoverage 스케줄 실행 전 데이터 완전성 하한 (0 = 검사 안 함)
	MinCoverage float64 `yaml:"min_coverage" json:"min_coverage"`
}

// Schedule 스케줄 작업 설정
type Schedule struct {
	Cron    string `yaml:"cron" json:"cron"` // 초 포함 6필드
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// Default returns the profile used when no file is given
// 파일 로드는 이 값 위에 덮어쓰므로 생략된 필드는 기본값 유지
func Default() *Config {
	p := contracts.DefaultConstructParams()
	return &Config{
		Meta: Meta{
			StrategyID: "clusterfolio_default",
			Version:    "1",
			Timezone:   "Asia/Seoul",
		},
		Construction: Construction{
			NTradingDaysBack:    p.NTradingDaysBack,
			NBestPerforming:     p.NBestPerforming,
			ResolutionParameter: p.ResolutionParameter,
			CorrelationMeasure:  string(p.CorrelationMeasure),
			NumberOfIterations:  p.NumberOfIterations,
			QualityFunction:     string(p.QualityFunction),
		},
		Source: Source{
			Value:       string(contracts.ValueReturn),
			MinCoverage: 0.8,
		},
		Schedule: Schedule{
			Cron:    "0 30 18 * * 1-5",
			Enabled: true,
		},
	}
}

// Params converts the construction section into pipeline parameters
func (c *Config) Params() contracts.ConstructParams {
	return contracts.ConstructParams{
		NTradingDaysBack:    c.Construction.NTradingDaysBack,
		NBestPerforming:     c.Construction.NBestPerforming,
		ResolutionParameter: c.Construction.ResolutionParameter,
		CorrelationMeasure:  contracts.CorrelationMeasure(c.Construction.CorrelationMeasure),
		NumberOfIterations:  c.Construction.NumberOfIterations,
		QualityFunction:     contracts.QualityFunction(c.Construction.QualityFunction),
	}
}

// PanelQuery builds the S0 query for trading days strictly before `before`
func (c *Config) PanelQuery(before time.Time) contracts.PanelQuery {
	days := c.Source.Days
	if days <= 0 {
		days = c.Construction.NTradingDaysBack
	}
	return contracts.PanelQuery{
		Before: before,
		Days:   days,
		Codes:  c.Source.Codes,
		Value:  contracts.ValueField(c.Source.Value),
	}
}

// Location returns the profile timezone (UTC when unset)
func (c *Config) Location() *time.Location {
	if c.Meta.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Meta.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RunSnapshot 실행 시점 프로필 스냅샷 (재현성용)
type RunSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml,omitempty"`
	StrategyID string    `json:"strategy_id"`
	Version    string    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
}
