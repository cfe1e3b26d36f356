// Criterion commands for the sprintplan CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwdebruin/sprintplan/pkg/service"
)

var criterionCmd = &cobra.Command{
	Use:     "criterion",
	Aliases: []string{"crit"},
	Short:   "Manage success criteria",
}

func init() {
	criterionCmd.AddCommand(criterionAddCmd)
	criterionCmd.AddCommand(criterionListCmd)
	criterionCmd.AddCommand(criterionToggleCmd)
	criterionCmd.AddCommand(criterionProgressCmd)
	criterionCmd.AddCommand(criterionDeleteCmd)
}

var criterionAddCmd = &cobra.Command{
	Use:   "add <goal-id> <description>...",
	Short: "Add success criteria to a goal",
	Long: `Add one or more success criteria to a goal. Multiple descriptions are
created as a single batch: when any of them is invalid, none are created.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		criteria, err := service.NewCriterionService(store).CreateBatch(cmd.Context(), args[0], args[1:])
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, criteria)
		}
		for _, crit := range criteria {
			fmt.Fprintf(cmd.OutOrStdout(), "Created criterion %q\n  id: %s\n", crit.Description, crit.ID)
		}
		return nil
	},
}

var criterionListCmd = &cobra.Command{
	Use:   "list <goal-id>",
	Short: "List a goal's criteria",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		criteria, err := service.NewCriterionService(store).ListByGoal(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, criteria)
		}
		for _, crit := range criteria {
			mark := "[ ]"
			if crit.Done {
				mark = "[x]"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", mark, crit.Description, crit.ID)
		}
		return nil
	},
}

var criterionToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a criterion's done flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		crit, err := service.NewCriterionService(store).Toggle(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, crit)
		}
		state := "not done"
		if crit.Done {
			state = "done"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Criterion %q is now %s\n", crit.Description, state)
		return nil
	},
}

var criterionProgressCmd = &cobra.Command{
	Use:   "progress <goal-id>",
	Short: "Show a goal's completion progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		progress, err := service.NewCriterionService(store).ProgressByGoal(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, progress)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d/%d criteria complete (%d%%)\n",
			progress.Completed, progress.Total, progress.Percentage)
		return nil
	},
}

var criterionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a criterion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		deleted, err := service.NewCriterionService(store).Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Fprintln(cmd.OutOrStdout(), "Criterion not found, nothing deleted")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Criterion deleted")
		return nil
	},
}
