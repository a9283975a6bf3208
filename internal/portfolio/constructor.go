package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/clusterfolio/internal/community"
	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/internal/graph"
	"github.com/wonny/clusterfolio/internal/s1_validation"
	"github.com/wonny/clusterfolio/internal/s2_alignment"
	"github.com/wonny/clusterfolio/internal/s3_correlation"
	"github.com/wonny/clusterfolio/internal/selection"
	"github.com/wonny/clusterfolio/pkg/logger"
)

// Constructor runs the full pipeline S1 → S6
// ⭐ SSOT: 포트폴리오 구성 진입점은 여기서만
//
// 호출마다 새 값을 만들고 공유 상태가 없으므로 동시 호출 안전
type Constructor struct {
	engine *s3_correlation.Engine
	ranker *selection.Ranker
	logger *logger.Logger
	now    func() time.Time
}

var _ contracts.PortfolioConstructor = (*Constructor)(nil)

// NewConstructor creates a new portfolio constructor
func NewConstructor(engine *s3_correlation.Engine, logger *logger.Logger) *Constructor {
	return &Constructor{
		engine: engine,
		ranker: selection.NewRanker(logger),
		logger: logger,
		now:    time.Now,
	}
}

// Construct returns one portfolio record per detected community
// 전제조건 위반은 *contracts.ValidationError, 부분 결과 없음
func (c *Constructor) Construct(ctx context.Context, panel *contracts.Panel, params contracts.ConstructParams) (*contracts.ConstructResult, error) {
	result, err := c.construct(ctx, panel, params)
	communities := 0
	if result != nil {
		communities = result.NumCommunities
	}
	recordOutcome(err, communities)
	return result, err
}

func (c *Constructor) construct(ctx context.Context, panel *contracts.Panel, params contracts.ConstructParams) (*contracts.ConstructResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if panel == nil {
		panel = &contracts.Panel{}
	}

	started := c.now()
	runID := uuid.NewString()
	log := c.logger.WithRunID(runID)

	// S1: 입력 검증
	stageStart := time.Now()
	if err := s1_validation.Validate(panel, params); err != nil {
		log.WithStage(contracts.StageValidation.ShortName()).WithError(err).Warn("Construction rejected")
		return nil, err
	}
	observeStage(contracts.StageValidation, stageStart)
	params.CorrelationMeasure = params.CorrelationMeasure.Normalize()

	// S2: day 블록 → 종목×일 행렬
	stageStart = time.Now()
	aligned, err := s2_alignment.Align(panel, params.NTradingDaysBack)
	if err != nil {
		log.WithStage(contracts.StageAlignment.ShortName()).WithError(err).Warn("Alignment failed")
		return nil, err
	}
	observeStage(contracts.StageAlignment, stageStart)
	log.WithStage(contracts.StageAlignment.ShortName()).WithFields(map[string]interface{}{
		"num_stocks": aligned.NumStocks(),
		"num_days":   aligned.NumDays(),
	}).Debug("Panel aligned")

	// S3: |상관계수| 행렬
	stageStart = time.Now()
	corr, err := c.engine.Compute(ctx, aligned, params.CorrelationMeasure)
	if err != nil {
		return nil, fmt.Errorf("compute correlation: %w", err)
	}
	observeStage(contracts.StageCorrelation, stageStart)

	// S4: 그래프
	stageStart = time.Now()
	g := graph.Build(corr)
	stats := graph.Describe(g)
	observeStage(contracts.StageGraph, stageStart)
	log.WithStage(contracts.StageGraph.ShortName()).WithFields(map[string]interface{}{
		"nodes":        stats.Nodes,
		"edges":        stats.Edges,
		"total_weight": stats.TotalWeight,
	}).Debug("Graph built")

	// S5: Leiden
	stageStart = time.Now()
	partition, err := community.Detect(g, community.Options{
		Resolution: params.ResolutionParameter,
		Iterations: params.NumberOfIterations,
		Quality:    params.QualityFunction,
	})
	if err != nil {
		return nil, fmt.Errorf("detect communities: %w", err)
	}
	observeStage(contracts.StageCommunity, stageStart)
	log.WithStage(contracts.StageCommunity.ShortName()).WithFields(map[string]interface{}{
		"communities": partition.Size(),
		"quality":     partition.Quality,
		"rounds":      partition.Rounds,
	}).Debug("Communities detected")

	// S6: 커뮤니티별 상위 종목
	stageStart = time.Now()
	portfolios := c.ranker.Rank(aligned, partition.Communities, params.NBestPerforming)
	observeStage(contracts.StageSelection, stageStart)

	result := &contracts.ConstructResult{
		RunID:          runID,
		Params:         params,
		Portfolios:     portfolios,
		NumStocks:      aligned.NumStocks(),
		NumCommunities: partition.Size(),
		Quality:        partition.Quality,
		Modularity:     partition.Modularity,
		DurationMs:     c.now().Sub(started).Milliseconds(),
		CreatedAt:      started,
	}

	log.WithFields(map[string]interface{}{
		"num_stocks":  result.NumStocks,
		"communities": result.NumCommunities,
		"selected":    len(result.SelectedTickers()),
		"duration_ms": result.DurationMs,
	}).Info("Portfolio constructed")

	return result, nil
}
