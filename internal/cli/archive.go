package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtxerr/clickdq/internal/archive"
)

var archiveCmd = &cobra.Command{
	Use:     "archive",
	Short:   "Export one month's partition to a Parquet file",
	Example: `  clickdq archive --month 2025-09 --dir data/archive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		month, _ := cmd.Flags().GetString("month")
		if month == "" {
			return fmt.Errorf("--month is required")
		}

		if v, _ := cmd.Flags().GetString("dir"); v != "" {
			cfg.Archive.Dir = v
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		archiver := archive.New(st, cfg.Archive)
		path, rows, err := archiver.Export(cmd.Context(), month)
		if err != nil {
			return err
		}

		fmt.Printf("archived month=%s rows=%d path=%s\n", month, rows, path)
		return nil
	},
}

func init() {
	archiveCmd.Flags().String("month", "", "partition month (YYYY-MM), required")
	archiveCmd.Flags().String("dir", "", "export directory (overrides config)")

	rootCmd.AddCommand(archiveCmd)
}
