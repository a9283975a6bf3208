package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/internal/s0_data/quality"
	"github.com/wonny/clusterfolio/internal/strategyconfig"
	"github.com/wonny/clusterfolio/pkg/logger"
)

// CoverageGate checks the price window before construction
type CoverageGate interface {
	Check(ctx context.Context, query contracts.PanelQuery) (*quality.Snapshot, error)
}

// PortfolioJob constructs the portfolio from stored prices after market close
// ⭐ SSOT: 포트폴리오 구성 스케줄은 이 Job에서만
type PortfolioJob struct {
	source      contracts.PanelSource
	gate        CoverageGate
	constructor contracts.PortfolioConstructor
	store       contracts.ResultStore
	profile     *strategyconfig.Config
	snapshot    *strategyconfig.RunSnapshot
	schedule    string
	logger      *logger.Logger
	now         func() time.Time
}

// NewPortfolioJob creates a new portfolio job
// profileYAML 은 프로필 원문 (스냅샷 보관용, nil 가능)
func NewPortfolioJob(
	source contracts.PanelSource,
	constructor contracts.PortfolioConstructor,
	store contracts.ResultStore,
	profile *strategyconfig.Config,
	profileYAML []byte,
	schedule string,
	log *logger.Logger,
) (*PortfolioJob, error) {
	snapshot, err := strategyconfig.NewRunSnapshot(profile, profileYAML)
	if err != nil {
		return nil, fmt.Errorf("snapshot strategy profile: %w", err)
	}

	return &PortfolioJob{
		source:      source,
		constructor: constructor,
		store:       store,
		profile:     profile,
		snapshot:    snapshot,
		schedule:    schedule,
		logger:      log,
		now:         time.Now,
	}, nil
}

// WithGate enables the data completeness check (nil 이면 검사 안 함)
func (j *PortfolioJob) WithGate(gate CoverageGate) *PortfolioJob {
	j.gate = gate
	return j
}

// Name returns the job name
func (j *PortfolioJob) Name() string {
	return "portfolio_construction"
}

// Schedule returns the cron schedule (평일 장 마감 후)
func (j *PortfolioJob) Schedule() string {
	return j.schedule
}

// Run loads the panel, constructs the portfolio and stores it as latest
func (j *PortfolioJob) Run(ctx context.Context) error {
	before := j.cutoff()
	log := j.logger.WithFields(map[string]interface{}{
		"strategy_id":  j.profile.Meta.StrategyID,
		"profile_hash": j.snapshot.ConfigHash[:12],
		"before":       before.Format("2006-01-02"),
	})
	log.Info("Starting scheduled portfolio construction")

	query := j.profile.PanelQuery(before)

	// 당일 가격 적재가 끝나지 않았으면 실패 → 스케줄러 재시도
	if j.gate != nil {
		snapshot, err := j.gate.Check(ctx, query)
		if err != nil {
			return fmt.Errorf("check panel coverage: %w", err)
		}
		if !snapshot.Passed {
			return fmt.Errorf("%w: %s", quality.ErrBelowThreshold, snapshot.Reason)
		}
		log.WithFields(map[string]interface{}{
			"complete_stocks": snapshot.CompleteStocks,
			"coverage":        snapshot.Coverage,
		}).Debug("Panel coverage check passed")
	}

	panel, err := j.source.Load(ctx, query)
	if err != nil {
		return fmt.Errorf("load panel: %w", err)
	}

	result, err := j.constructor.Construct(ctx, panel, j.profile.Params())
	if err != nil {
		return fmt.Errorf("construct portfolio: %w", err)
	}
	result.Profile = &contracts.ProfileRef{
		StrategyID: j.snapshot.StrategyID,
		Version:    j.snapshot.Version,
		ConfigHash: j.snapshot.ConfigHash,
	}

	if err := j.store.SaveLatest(ctx, result); err != nil {
		// 메모리 사본은 이미 저장됨: 캐시 실패는 작업 실패로 보지 않음
		log.WithError(err).Warn("Failed to cache latest portfolio")
	}

	log.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"stocks":      result.NumStocks,
		"communities": result.NumCommunities,
		"selected":    len(result.SelectedTickers()),
	}).Info("Scheduled portfolio construction completed")

	return nil
}

// cutoff returns the exclusive upper bound of the price window
// 장 마감 후 실행되므로 당일 거래일을 포함 (다음날 0시, 프로필 시간대 기준)
func (j *PortfolioJob) cutoff() time.Time {
	now := j.now().In(j.profile.Location())
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
