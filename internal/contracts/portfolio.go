package contracts

import (
	"strings"
	"time"
)

// CorrelationMeasure selects the similarity measure of S3
type CorrelationMeasure string

const (
	MeasurePearson  CorrelationMeasure = "pearson"
	MeasureSpearman CorrelationMeasure = "spearman"

	// measureSpearmanAlias 원본 프로시저 호출부 호환 ("spearmanr")
	measureSpearmanAlias CorrelationMeasure = "spearmanr"
)

// Normalize maps aliases onto the canonical measure name
func (m CorrelationMeasure) Normalize() CorrelationMeasure {
	if m == measureSpearmanAlias {
		return MeasureSpearman
	}
	return m
}

// IsValid reports whether m (after alias normalization) is supported
func (m CorrelationMeasure) IsValid() bool {
	switch m.Normalize() {
	case MeasurePearson, MeasureSpearman:
		return true
	}
	return false
}

// QualityFunction selects the community detection objective of S5
type QualityFunction string

const (
	QualityModularity QualityFunction = "modularity"
	QualityCPM        QualityFunction = "cpm"
)

// IsValid reports whether q is supported
func (q QualityFunction) IsValid() bool {
	return q == QualityModularity || q == QualityCPM
}

// ConstructParams holds the tunable parameters of one construction run
type ConstructParams struct {
	NTradingDaysBack    int                `json:"n_trading_days_back" yaml:"n_trading_days_back"`
	NBestPerforming     int                `json:"n_best_performing" yaml:"n_best_performing"`
	ResolutionParameter float64            `json:"resolution_parameter" yaml:"resolution_parameter"`
	CorrelationMeasure  CorrelationMeasure `json:"correlation_measure" yaml:"correlation_measure"`
	NumberOfIterations  int                `json:"number_of_iterations" yaml:"number_of_iterations"` // 음수 = 수렴까지
	QualityFunction     QualityFunction    `json:"quality_function" yaml:"quality_function"`
}

// DefaultConstructParams returns the procedure defaults
func DefaultConstructParams() ConstructParams {
	return ConstructParams{
		NTradingDaysBack:    3,
		NBestPerforming:     5,
		ResolutionParameter: 0.6,
		CorrelationMeasure:  MeasurePearson,
		NumberOfIterations:  -1,
		QualityFunction:     QualityModularity,
	}
}

// Portfolio is one output record per detected community
// ⭐ SSOT: S6 → 호출자 결과 레코드
type Portfolio struct {
	CommunityIndex int      `json:"community_index"`
	Community      string   `json:"community"` // ", " 로 연결된 선정 종목
	Tickers        []string `json:"tickers"`   // 평균값 오름차순
	Size           int      `json:"size"`      // 선정 전 커뮤니티 크기
}

// NewPortfolio builds the record and its joined community string
func NewPortfolio(index int, tickers []string, size int) Portfolio {
	return Portfolio{
		CommunityIndex: index,
		Community:      strings.Join(tickers, ", "),
		Tickers:        tickers,
		Size:           size,
	}
}

// ConstructResult is the full output of one construction run
type ConstructResult struct {
	RunID          string          `json:"run_id"`
	Params         ConstructParams `json:"params"`
	Portfolios     []Portfolio     `json:"portfolios"`
	NumStocks      int             `json:"num_stocks"`
	NumCommunities int             `json:"num_communities"`
	Quality        float64         `json:"quality"`    // 선택된 목적함수 값
	Modularity     float64         `json:"modularity"` // resolution 적용 modularity
	DurationMs     int64           `json:"duration_ms"`
	CreatedAt      time.Time       `json:"created_at"`

	// Profile 스케줄 실행에 사용된 전략 프로필 (API 요청이면 nil)
	Profile *ProfileRef `json:"profile,omitempty"`
}

// ProfileRef identifies the strategy profile a run was built from
type ProfileRef struct {
	StrategyID string `json:"strategy_id"`
	Version    string `json:"version"`
	ConfigHash string `json:"config_hash"`
}

// Count returns the number of portfolio records
func (r *ConstructResult) Count() int {
	return len(r.Portfolios)
}

// SelectedTickers returns every selected ticker across communities in record order
func (r *ConstructResult) SelectedTickers() []string {
	var out []string
	for _, p := range r.Portfolios {
		out = append(out, p.Tickers...)
	}
	return out
}

// GetPortfolio finds the record for a community index
func (r *ConstructResult) GetPortfolio(communityIndex int) (*Portfolio, bool) {
	for i := range r.Portfolios {
		if r.Portfolios[i].CommunityIndex == communityIndex {
			return &r.Portfolios[i], true
		}
	}
	return nil, false
}
