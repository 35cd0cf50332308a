package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:     "audit",
	Short:   "List ingestion audit entries for one month",
	Example: `  clickdq audit --month 2025-09 --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		month, _ := cmd.Flags().GetString("month")
		if month == "" {
			return fmt.Errorf("--month is required")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.ListAudit(cmd.Context(), month, limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Printf("no audit entries for month=%s\n", month)
			return nil
		}

		for _, e := range entries {
			fmt.Printf("id=%d status=%-7s source=%s inserted=%d skipped=%d started=%s duration=%s\n",
				e.ID, e.Status, e.SourceFile, e.InsertedRows, e.SkippedLines,
				e.StartedAt.Format("2006-01-02T15:04:05Z"),
				e.EndedAt.Sub(e.StartedAt).Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().String("month", "", "partition month (YYYY-MM), required")
	auditCmd.Flags().Int("limit", 0, "maximum entries to list (0 = all)")

	rootCmd.AddCommand(auditCmd)
}
