package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtxerr/clickdq/internal/ingest"
	"github.com/xtxerr/clickdq/internal/record"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load one monthly source file into its partition",
	Long: `Ingest reads a tab-delimited source file (optionally gzip-compressed)
in bounded chunks and atomically replaces the month's partition. Re-running
for the same month always yields exactly the latest run's records.`,
	Example: `  clickdq ingest --month 2025-09 --source data/raw/clickstream-enwiki-2025-09.tsv
  clickdq ingest --month 2025-09 --source extract.tsv.gz --chunk-rows 100000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		month, _ := cmd.Flags().GetString("month")
		source, _ := cmd.Flags().GetString("source")

		if month == "" {
			return fmt.Errorf("--month is required")
		}
		if source == "" {
			return fmt.Errorf("--source is required")
		}

		if v, _ := cmd.Flags().GetInt("chunk-rows"); v > 0 {
			cfg.Ingest.ChunkRows = v
		}
		if v, _ := cmd.Flags().GetBool("allow-partial"); v {
			cfg.Ingest.AllowPartial = true
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		engine := ingest.New(st, cfg.Ingest)
		result, err := engine.Ingest(cmd.Context(), source, month)
		if err != nil {
			return err
		}

		entry := result.Audit
		fmt.Printf("status=%s month=%s inserted=%d skipped=%d duration=%s\n",
			entry.Status, entry.LoadMonth, entry.InsertedRows, entry.SkippedLines,
			entry.EndedAt.Sub(entry.StartedAt).Round(time.Millisecond))
		for _, reason := range record.Reasons() {
			if n := result.Rejections[reason]; n > 0 {
				fmt.Printf("  rejected %s=%d\n", reason, n)
			}
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("month", "", "partition month (YYYY-MM), required")
	ingestCmd.Flags().String("source", "", "source file path, required")
	ingestCmd.Flags().Int("chunk-rows", 0, "rows per chunk (overrides config)")
	ingestCmd.Flags().Bool("allow-partial", false, "commit surviving chunks when some fail")

	rootCmd.AddCommand(ingestCmd)
}
