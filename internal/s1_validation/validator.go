package s1_validation

import (
	"math"

	"github.com/wonny/clusterfolio/internal/contracts"
)

// MinTradingDays 상관계수 계산을 위한 최소 거래일 (초과해야 함)
const MinTradingDays = 2

// minObservationsPerStock 종목당 최소 관측치 (nTradingDaysBack 과 무관한 하한)
const minObservationsPerStock = 3

// Validate checks parameter combinations before any numeric work
// ⭐ SSOT: S1 입력 검증 (순수 함수, 부수효과 없음)
// 검사 순서: window → measure → data → selection → length → resolution → quality
func Validate(panel *contracts.Panel, params contracts.ConstructParams) error {
	if params.NTradingDaysBack <= MinTradingDays {
		return contracts.NewValidationError(contracts.KindInvalidWindow, "n_trading_days_back",
			"must be greater than %d, got %d", MinTradingDays, params.NTradingDaysBack)
	}

	if !params.CorrelationMeasure.IsValid() {
		return contracts.NewValidationError(contracts.KindInvalidMeasure, "correlation_measure",
			"must be one of pearson, spearman, got %q", params.CorrelationMeasure)
	}

	numStocks := contracts.NewTickerSet(panel.Tickers).Len()
	if len(panel.Values) == 0 || len(panel.Values) < numStocks*minObservationsPerStock {
		return contracts.NewValidationError(contracts.KindInsufficientData, "values",
			"need at least %d entries for %d stocks, got %d",
			numStocks*minObservationsPerStock, numStocks, len(panel.Values))
	}

	if params.NBestPerforming < 1 {
		return contracts.NewValidationError(contracts.KindInvalidSelectionCount, "n_best_performing",
			"must be at least 1, got %d", params.NBestPerforming)
	}

	if len(panel.Tickers) != len(panel.Values) {
		return contracts.NewValidationError(contracts.KindLengthMismatch, "tickers",
			"%d tickers for %d values", len(panel.Tickers), len(panel.Values))
	}

	r := params.ResolutionParameter
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
		return contracts.NewValidationError(contracts.KindInvalidResolution, "resolution_parameter",
			"must be finite and >= 0, got %v", r)
	}

	if !params.QualityFunction.IsValid() {
		return contracts.NewValidationError(contracts.KindInvalidQuality, "quality_function",
			"must be one of modularity, cpm, got %q", params.QualityFunction)
	}

	return nil
}
