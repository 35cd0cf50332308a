package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtxerr/clickdq/internal/errors"
	"github.com/xtxerr/clickdq/internal/sla"
)

var slaCmd = &cobra.Command{
	Use:   "sla",
	Short: "Evaluate one month's summary against the previous month",
	Long: `Sla compares a month's quality summary against the immediately
preceding month using configurable thresholds and emits a structured
verdict. The first-ever month is reported as insufficient_baseline,
neither a pass nor a fail.`,
	Example: `  clickdq sla --month 2025-09
  clickdq sla --month 2025-09 --volume-drop 0.2 --fail-on-breach`,
	RunE: func(cmd *cobra.Command, args []string) error {
		month, _ := cmd.Flags().GetString("month")
		if month == "" {
			return fmt.Errorf("--month is required")
		}

		thresholds := sla.FromConfig(cfg.SLA)
		if v, _ := cmd.Flags().GetFloat64("volume-drop"); v > 0 {
			thresholds.VolumeDrop = v
		}
		if v, _ := cmd.Flags().GetFloat64("null-rate-delta"); v > 0 {
			thresholds.NullRateDelta = v
		}
		if v, _ := cmd.Flags().GetInt64("min-rows"); v >= 0 && cmd.Flags().Changed("min-rows") {
			thresholds.MinRows = v
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		evaluator := sla.New(st)
		verdict, err := evaluator.EvaluateMonth(cmd.Context(), month, thresholds)
		if errors.Is(err, errors.ErrBaselineMissing) {
			err = nil
		}
		if err != nil {
			return err
		}

		out, jsonErr := json.MarshalIndent(verdict, "", "  ")
		if jsonErr != nil {
			return jsonErr
		}
		fmt.Println(string(out))

		// insufficient_baseline is neither a pass nor a fail. Returning
		// an error (instead of exiting here) lets the deferred store
		// close run; main maps it to a non-zero exit.
		if failOn, _ := cmd.Flags().GetBool("fail-on-breach"); failOn && verdict.Outcome == sla.OutcomeFail {
			return fmt.Errorf("sla breach: month %s failed against %s", month, verdict.PriorMonth)
		}
		return nil
	},
}

func init() {
	slaCmd.Flags().String("month", "", "month to evaluate (YYYY-MM), required")
	slaCmd.Flags().Float64("volume-drop", 0, "volume drop threshold (overrides config)")
	slaCmd.Flags().Float64("null-rate-delta", 0, "null-rate delta threshold (overrides config)")
	slaCmd.Flags().Int64("min-rows", 0, "minimum expected row count (overrides config)")
	slaCmd.Flags().Bool("fail-on-breach", false, "exit non-zero when the verdict is a fail")

	rootCmd.AddCommand(slaCmd)
}
