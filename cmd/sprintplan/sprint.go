// Sprint commands for the sprintplan CLI.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jwdebruin/sprintplan/pkg/service"
)

var (
	flagSprintSeq   int
	flagSprintStart string
	flagSprintEnd   string
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Manage sprints",
}

func init() {
	sprintAddCmd.Flags().IntVar(&flagSprintSeq, "seq", 0, "sequence number (default: next available)")
	sprintAddCmd.Flags().StringVar(&flagSprintStart, "start", "", "start date YYYY-MM-DD (default: suggested)")
	sprintAddCmd.Flags().StringVar(&flagSprintEnd, "end", "", "end date YYYY-MM-DD (default: suggested)")

	sprintCmd.AddCommand(sprintAddCmd)
	sprintCmd.AddCommand(sprintListCmd)
	sprintCmd.AddCommand(sprintShowCmd)
	sprintCmd.AddCommand(sprintCurrentCmd)
	sprintCmd.AddCommand(sprintDeleteCmd)
}

var sprintAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a sprint",
	Long: `Create a sprint. Without flags the next sequence number and suggested
dates are used: the day after the latest sprint's end, or the first working
day on or after today when no sprints exist.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		sprint, err := service.NewSprintService(store).Create(cmd.Context(), service.NewSprint{
			SequenceNumber: flagSprintSeq,
			StartDate:      flagSprintStart,
			EndDate:        flagSprintEnd,
		})
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, sprint)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created sprint #%d (%s to %s)\n  id: %s\n",
			sprint.SequenceNumber, sprint.StartDate, sprint.EndDate, sprint.ID)
		return nil
	},
}

var sprintListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sprints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		sprints, err := service.NewSprintService(store).List(cmd.Context())
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, sprints)
		}
		for _, sprint := range sprints {
			fmt.Fprintf(cmd.OutOrStdout(), "#%d\t%s to %s\t%s\n",
				sprint.SequenceNumber, sprint.StartDate, sprint.EndDate, sprint.ID)
		}
		return nil
	},
}

var sprintShowCmd = &cobra.Command{
	Use:   "show <sequence>",
	Short: "Show one sprint with its goal statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid sequence number %q", args[0])
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		sprint, err := service.NewSprintService(store).BySequence(cmd.Context(), seq)
		if err != nil {
			return err
		}
		stats, err := service.NewGoalService(store).Stats(cmd.Context(), sprint.ID)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, map[string]any{"sprint": sprint, "stats": stats})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sprint #%d\t%s to %s\n", sprint.SequenceNumber, sprint.StartDate, sprint.EndDate)
		fmt.Fprintf(out, "  id:        %s\n", sprint.ID)
		fmt.Fprintf(out, "  goals:     %d (%d achieved)\n", stats.TotalGoals, stats.AchievedGoals)
		fmt.Fprintf(out, "  estimated: %.2f hours\n", stats.EstimatedHours)
		fmt.Fprintf(out, "  actual:    %.2f hours\n", stats.ActualHours)
		return nil
	},
}

var sprintCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the sprint containing today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		sprint, err := service.NewSprintService(store).Current(cmd.Context())
		if err != nil {
			return err
		}
		if sprint == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No current sprint")
			return nil
		}

		if flagJSON {
			return printJSON(cmd, sprint)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "#%d\t%s to %s\t%s\n",
			sprint.SequenceNumber, sprint.StartDate, sprint.EndDate, sprint.ID)
		return nil
	},
}

var sprintDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a sprint and everything under it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		deleted, err := service.NewSprintService(store).Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Fprintln(cmd.OutOrStdout(), "Sprint not found, nothing deleted")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Sprint deleted")
		return nil
	},
}
