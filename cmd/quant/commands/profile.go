package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/clusterfolio/internal/strategyconfig"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "전략 프로필 (YAML) 관리",
	Long: `포트폴리오 구성 전략 프로필을 검증하거나 기본 프로필을 출력합니다.

Example:
  go run ./cmd/quant profile validate configs/strategy/default.yaml
  go run ./cmd/quant profile default > my_profile.yaml`,
}

var (
	profileValidateCmd = &cobra.Command{
		Use:   "validate <file>",
		Short: "프로필 로드 + 검증, SHA-256 해시 출력",
		Args:  cobra.ExactArgs(1),
		RunE:  runProfileValidate,
	}

	profileDefaultCmd = &cobra.Command{
		Use:   "default",
		Short: "기본 프로필 YAML 출력",
		Args:  cobra.NoArgs,
		RunE:  runProfileDefault,
	}
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileValidateCmd)
	profileCmd.AddCommand(profileDefaultCmd)
}

func runProfileValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, _, err := strategyconfig.Load(args[0])
	if err != nil {
		PrintError(out, err.Error())
		return fmt.Errorf("invalid profile %s: %w", args[0], err)
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return fmt.Errorf("hash profile: %w", err)
	}

	PrintSuccess(out, fmt.Sprintf("Profile %s is valid", args[0]))
	PrintKeyValue(out, "Strategy", cfg.Meta.StrategyID, 10)
	PrintKeyValue(out, "Version", cfg.Meta.Version, 10)
	PrintKeyValue(out, "SHA-256", hash, 10)

	for _, w := range strategyconfig.Warnings(cfg) {
		PrintWarning(out, fmt.Sprintf("%s: %s", w.Code, w.Message))
	}
	return nil
}

func runProfileDefault(cmd *cobra.Command, args []string) error {
	_, data, err := strategyconfig.LoadOrDefault("")
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
