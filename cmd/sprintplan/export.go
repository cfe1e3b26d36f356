// Export and import commands for the sprintplan CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwdebruin/sprintplan/pkg/transfer"
)

var (
	flagExportSprint string
	flagExportOut    string
	flagImportWrite  bool
	flagImportClear  bool
)

func init() {
	exportCmd.Flags().StringVar(&flagExportSprint, "sprint", "", "export only this sprint id")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "write to file instead of stdout")
	importCmd.Flags().BoolVar(&flagImportWrite, "overwrite", false, "replace sprints whose id already exists")
	importCmd.Flags().BoolVar(&flagImportClear, "replace", false, "clear the store before importing")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sprints as a JSON document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		svc := transfer.NewService(store)
		var doc *transfer.Document
		if flagExportSprint != "" {
			doc, err = svc.ExportSprint(cmd.Context(), flagExportSprint)
			if err == nil && doc == nil {
				return fmt.Errorf("sprint %s not found", flagExportSprint)
			}
		} else {
			doc, err = svc.ExportAll(cmd.Context())
		}
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		data = append(data, '\n')

		if flagExportOut != "" {
			if err := os.WriteFile(flagExportOut, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", flagExportOut, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sprint(s) to %s\n", len(doc.Sprints), flagExportOut)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON document",
	Long: `Import a previously exported JSON document. The document is validated
as a whole first; any structural problem fails the import with nothing
persisted. Sprints whose id already exists are skipped unless --overwrite is
given. With --replace the store is emptied before importing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		if flagImportClear {
			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear store: %w", err)
			}
		}

		result, err := transfer.NewService(store).Import(cmd.Context(), data, flagImportWrite)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, result)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %d sprint(s), %d goal(s), %d criteria; %d skipped\n",
			result.SprintsImported, result.GoalsImported, result.CriteriaImported, result.Skipped)
		for _, w := range result.Warnings {
			fmt.Fprintln(out, "warning:", w)
		}
		for _, e := range result.Errors {
			fmt.Fprintln(cmd.ErrOrStderr(), "error:", e)
		}
		if len(result.Errors) > 0 {
			os.Exit(exitUserError)
		}
		return nil
	},
}
