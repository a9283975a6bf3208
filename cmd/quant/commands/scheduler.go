package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/clusterfolio/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `API 서버 없이 스케줄러를 실행하거나 작업을 관리합니다.

등록되는 작업:
- portfolio_construction: 평일 장 마감 후 (PORTFOLIO_SCHEDULE 또는 프로필 schedule.cron)
- dependency_health: 5분마다 (PostgreSQL / Redis ping)

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run portfolio_construction`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작 (Ctrl+C 로 종료)",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행 (재시도 포함, 완료까지 대기)",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, true, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := rt.newScheduler(cfg, log)
	if err != nil {
		return err
	}
	sched.Start()
	PrintSuccess(cmd.OutOrStdout(), "Scheduler running, press Ctrl+C to stop")

	<-ctx.Done()
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newCLILogger(cfg)

	rt, err := newRuntime(cmd.Context(), cfg, true, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := rt.newScheduler(cfg, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	widths := []int{24, 20}
	PrintTableHeader(out, []string{"job", "schedule"}, widths)
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		PrintTableRow(out, []string{name, stats[name].Schedule}, widths)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newCLILogger(cfg)

	rt, err := newRuntime(cmd.Context(), cfg, true, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := rt.newScheduler(cfg, log)
	if err != nil {
		return err
	}

	result, err := sched.RunJobNow(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	PrintKeyValue(out, "Job", result.JobName, 9)
	PrintKeyValue(out, "Attempts", strconv.Itoa(result.Attempts), 9)
	PrintKeyValue(out, "Duration", result.Duration.String(), 9)
	if !result.Success {
		PrintError(out, result.Error)
		return fmt.Errorf("job %s failed", result.JobName)
	}
	PrintSuccess(out, "Job completed")
	return nil
}
