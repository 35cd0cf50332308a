package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xtxerr/clickdq/internal/store"
)

func seedSummaries(t *testing.T, dbPath string) {
	t.Helper()

	cfg := store.DefaultConfig()
	cfg.Path = dbPath

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	summaries := []*store.Summary{
		{LoadMonth: "2025-08", RowCount: 1000000, SchemaValid: true},
		{LoadMonth: "2025-09", RowCount: 600000, SchemaValid: true},
	}
	for _, sum := range summaries {
		if err := s.UpsertSummary(ctx, sum); err != nil {
			t.Fatalf("UpsertSummary: %v", err)
		}
	}
}

func TestSlaFailOnBreachReturnsError(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "clickstream.db")
	seedSummaries(t, dbPath)

	// A breached month under --fail-on-breach surfaces as a command error
	// (mapped to a non-zero exit by main), not a process exit from inside
	// the command - deferred cleanup still runs.
	rootCmd.SetArgs([]string{"sla", "--month", "2025-09", "--db", dbPath, "--fail-on-breach"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("breached month with --fail-on-breach should return an error")
	}
	if !strings.Contains(err.Error(), "sla breach") {
		t.Errorf("error = %v, want an sla breach error", err)
	}

	// Without the flag the breach is reported, not fatal.
	rootCmd.SetArgs([]string{"sla", "--month", "2025-09", "--db", dbPath, "--fail-on-breach=false"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}
