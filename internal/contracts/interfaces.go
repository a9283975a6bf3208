package contracts

import (
	"context"
	"time"
)

// PanelSource supplies the flat observation stream (S0)
// ⭐ SSOT: S0 패널 공급 인터페이스
type PanelSource interface {
	Load(ctx context.Context, query PanelQuery) (*Panel, error)
}

// PanelQuery describes which window of stored prices to turn into a panel
type PanelQuery struct {
	Before time.Time  // 이 날짜 이전 거래일만 (exclusive)
	Days   int        // 최근 거래일 수
	Codes  []string   // 비어 있으면 전체 종목
	Value  ValueField // 관측값 정의
}

// ValueField selects the observation derived from a daily price row
type ValueField string

const (
	ValueReturn ValueField = "return" // close - open
	ValueClose  ValueField = "close"
)

// IsValid reports whether v is supported
func (v ValueField) IsValid() bool {
	return v == ValueReturn || v == ValueClose
}

// PortfolioConstructor runs the full pipeline S1 → S6
// ⭐ SSOT: 포트폴리오 구성 인터페이스
type PortfolioConstructor interface {
	Construct(ctx context.Context, panel *Panel, params ConstructParams) (*ConstructResult, error)
}

// ResultStore keeps the most recent scheduled result and recent runs for the API
type ResultStore interface {
	SaveLatest(ctx context.Context, result *ConstructResult) error
	SaveRun(ctx context.Context, result *ConstructResult) error
	Latest(ctx context.Context) (*ConstructResult, bool, error)
	ByRunID(ctx context.Context, runID string) (*ConstructResult, bool, error)
}
