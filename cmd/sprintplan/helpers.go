// Shared helpers for sprintplan CLI commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwdebruin/sprintplan/internal/boltstore"
	"github.com/jwdebruin/sprintplan/internal/memory"
	"github.com/jwdebruin/sprintplan/internal/sqlite"
	"github.com/jwdebruin/sprintplan/pkg/types"
)

// openStore resolves the data directory and backend, constructs the matching
// store, and opens it. The caller must defer store.Close().
func openStore(ctx context.Context) (types.Store, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend: resolveBackend(),
		DataDir: dataDir,
	}

	var store types.Store
	switch cfg.Backend {
	case types.BackendSQLite:
		store = sqlite.New()
	case types.BackendBolt:
		store = boltstore.New()
	case types.BackendMemory:
		store = memory.New()
	default:
		return nil, fmt.Errorf("%w: %q (valid: sqlite, bolt, memory)", types.ErrBackendUnknown, cfg.Backend)
	}

	if err := store.Open(ctx, cfg); err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return store, nil
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// formatTriState renders the achieved flag for table output.
func formatTriState(t types.TriState) string {
	switch t {
	case types.TriTrue:
		return "yes"
	case types.TriFalse:
		return "no"
	default:
		return "-"
	}
}

// formatHours renders optional hours for table output.
func formatHours(h *float64) string {
	if h == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *h)
}
