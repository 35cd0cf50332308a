package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtxerr/clickdq/internal/dq"
	"github.com/xtxerr/clickdq/internal/errors"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compute data-quality metrics for one month",
	Long: `Validate scans a month's partition, computes its quality metrics, and
upserts the derived summary. Validation is read-only against the partition
and deterministic: repeated runs without re-ingesting yield identical
metrics.`,
	Example: `  clickdq validate --month 2025-09`,
	RunE: func(cmd *cobra.Command, args []string) error {
		month, _ := cmd.Flags().GetString("month")
		if month == "" {
			return fmt.Errorf("--month is required")
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		validator := dq.New(st, cfg.DQ)
		report, err := validator.Validate(cmd.Context(), month)
		if errors.Is(err, errors.ErrPartitionEmpty) {
			// A zero-volume month is reported, not crashed on; the SLA
			// stage decides whether it is acceptable.
			fmt.Printf("month=%s row_count=0 schema_valid=false (partition empty)\n", month)
			return nil
		}
		if err != nil {
			return err
		}

		s := report.Summary
		fmt.Printf("month=%s row_count=%d null_rate=%.4f duplicate_rate=%.4f range_error_rate=%.4f schema_valid=%v\n",
			s.LoadMonth, s.RowCount, s.NullRate, s.DuplicateRate, s.RangeErrorRate, s.SchemaValid)
		fmt.Printf("  count quantiles: p50=%.0f p95=%.0f p99=%.0f\n",
			report.CountP50, report.CountP95, report.CountP99)
		return nil
	},
}

func init() {
	validateCmd.Flags().String("month", "", "partition month (YYYY-MM), required")

	rootCmd.AddCommand(validateCmd)
}
