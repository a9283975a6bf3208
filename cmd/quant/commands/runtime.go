package commands

import (
	"context"
	"fmt"

	"github.com/wonny/clusterfolio/internal/portfolio"
	"github.com/wonny/clusterfolio/internal/s0_data"
	"github.com/wonny/clusterfolio/internal/s0_data/quality"
	"github.com/wonny/clusterfolio/internal/s3_correlation"
	"github.com/wonny/clusterfolio/internal/scheduler"
	"github.com/wonny/clusterfolio/internal/scheduler/jobs"
	"github.com/wonny/clusterfolio/internal/strategyconfig"
	"github.com/wonny/clusterfolio/pkg/config"
	"github.com/wonny/clusterfolio/pkg/database"
	"github.com/wonny/clusterfolio/pkg/logger"
	"github.com/wonny/clusterfolio/pkg/redis"
)

// runtime holds the long-lived services shared by api and scheduler commands
type runtime struct {
	profile     *strategyconfig.Config
	profileYAML []byte
	redis       *redis.Client
	db          *database.DB // withDB 가 false 면 nil
	store       *portfolio.Repository
	constructor *portfolio.Constructor
}

// newRuntime loads the strategy profile and connects Redis (and PostgreSQL when withDB)
func newRuntime(ctx context.Context, cfg *config.Config, withDB bool, log *logger.Logger) (*runtime, error) {
	profile, profileYAML, err := strategyconfig.LoadOrDefault(cfg.Portfolio.StrategyProfile)
	if err != nil {
		return nil, fmt.Errorf("load strategy profile: %w", err)
	}
	for _, w := range strategyconfig.Warnings(profile) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	rt := &runtime{profile: profile, profileYAML: profileYAML, redis: redis.Disabled()}

	if cfg.Redis.Enabled {
		rt.redis, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.WithField("addr", cfg.Redis.Addr()).Info("Connected to redis")
	}

	if withDB {
		rt.db, err = database.New(ctx, cfg.Database)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Info("Connected to database")
	}

	rt.store = portfolio.NewRepository(redis.NewCache(rt.redis, "clusterfolio"), cfg.Redis.ResultTTL, log)
	rt.constructor = portfolio.NewConstructor(s3_correlation.NewEngine(cfg.Portfolio.Workers), log)
	return rt, nil
}

// Close releases connections
func (rt *runtime) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
	_ = rt.redis.Close()
}

// newScheduler registers the portfolio and health check jobs (DB 필요)
func (rt *runtime) newScheduler(cfg *config.Config, log *logger.Logger) (*scheduler.Scheduler, error) {
	if rt.db == nil {
		return nil, fmt.Errorf("scheduler requires a database connection")
	}
	sched := scheduler.New(log)

	if schedule, ok := portfolioSchedule(cfg, rt.profile); ok {
		job, err := jobs.NewPortfolioJob(
			s0_data.NewPanelRepository(rt.db.Pool, log), rt.constructor, rt.store, rt.profile, rt.profileYAML, schedule, log)
		if err != nil {
			return nil, err
		}
		if minCoverage := rt.profile.Source.MinCoverage; minCoverage > 0 {
			gateCfg := quality.DefaultConfig()
			gateCfg.MinCoverage = minCoverage
			job.WithGate(quality.NewGate(rt.db.Pool, gateCfg))
		}
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	} else {
		log.Info("Portfolio job disabled by strategy profile")
	}

	deps := map[string]jobs.Pinger{"postgres": rt.db}
	if rt.redis.Enabled() {
		deps["redis"] = rt.redis
	}
	if err := sched.AddJob(jobs.NewHealthCheckJob(deps, log)); err != nil {
		return nil, err
	}

	return sched, nil
}

// portfolioSchedule picks the cron expression of the portfolio job
// 프로필 파일의 schedule.cron 이 PORTFOLIO_SCHEDULE 보다 우선, enabled=false 면 등록 안 함
func portfolioSchedule(cfg *config.Config, profile *strategyconfig.Config) (string, bool) {
	if !profile.Schedule.Enabled {
		return "", false
	}
	if cfg.Portfolio.StrategyProfile != "" && profile.Schedule.Cron != "" {
		return profile.Schedule.Cron, true
	}
	return cfg.Portfolio.Schedule, true
}
