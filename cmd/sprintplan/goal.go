// Goal commands for the sprintplan CLI.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jwdebruin/sprintplan/pkg/service"
	"github.com/jwdebruin/sprintplan/pkg/types"
)

var (
	flagGoalSprint  string
	flagGoalTitle   string
	flagGoalDesc    string
	flagGoalOwner   string
	flagGoalHours   float64
	flagGoalNote    string
	flagGoalLessons string
	flagGoalByOwner string
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage goals",
}

func init() {
	goalAddCmd.Flags().StringVar(&flagGoalSprint, "sprint", "", "owning sprint id (default: current sprint)")
	goalAddCmd.Flags().StringVar(&flagGoalTitle, "title", "", "goal title (required)")
	goalAddCmd.Flags().StringVar(&flagGoalDesc, "desc", "", "goal description")
	goalAddCmd.Flags().StringVar(&flagGoalOwner, "owner", "", "goal owner (required)")
	goalAddCmd.Flags().Float64Var(&flagGoalHours, "hours", 0, "estimated hours in 0.25 increments")
	goalAddCmd.MarkFlagRequired("title")
	goalAddCmd.MarkFlagRequired("owner")

	goalListCmd.Flags().StringVar(&flagGoalSprint, "sprint", "", "list goals of this sprint id")
	goalListCmd.Flags().StringVar(&flagGoalByOwner, "owner", "", "list goals of this owner")

	goalAchieveCmd.Flags().StringVar(&flagGoalNote, "note", "", "completion note")
	goalMissCmd.Flags().StringVar(&flagGoalLessons, "lessons", "", "lessons learned")

	goalCmd.AddCommand(goalAddCmd)
	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalAchieveCmd)
	goalCmd.AddCommand(goalMissCmd)
	goalCmd.AddCommand(goalHoursCmd)
	goalCmd.AddCommand(goalDeleteCmd)
}

var goalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a goal in a sprint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		sprintID := flagGoalSprint
		if sprintID == "" {
			current, err := service.NewSprintService(store).Current(cmd.Context())
			if err != nil {
				return err
			}
			if current == nil {
				return fmt.Errorf("no current sprint; pass --sprint")
			}
			sprintID = current.ID
		}

		goal, err := service.NewGoalService(store).Create(cmd.Context(), service.NewGoal{
			SprintID:       sprintID,
			Title:          flagGoalTitle,
			Description:    flagGoalDesc,
			Owner:          flagGoalOwner,
			EstimatedHours: flagGoalHours,
		})
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, goal)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created goal %q for %s\n  id: %s\n", goal.Title, goal.Owner, goal.ID)
		return nil
	},
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals by sprint or by owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (flagGoalSprint == "") == (flagGoalByOwner == "") {
			return fmt.Errorf("pass exactly one of --sprint or --owner")
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		goals := service.NewGoalService(store)
		var list []*types.Goal
		if flagGoalSprint != "" {
			list, err = goals.ListBySprint(cmd.Context(), flagGoalSprint)
		} else {
			list, err = goals.ListByOwner(cmd.Context(), flagGoalByOwner)
		}
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, list)
		}
		for _, goal := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\test %.2f\tactual %s\tachieved %s\n",
				goal.ID, goal.Title, goal.Owner, goal.EstimatedHours,
				formatHours(goal.ActualHours), formatTriState(goal.Achieved))
		}
		return nil
	},
}

var goalAchieveCmd = &cobra.Command{
	Use:   "achieve <id>",
	Short: "Mark a goal achieved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		var note *string
		if cmd.Flags().Changed("note") {
			note = &flagGoalNote
		}
		goal, err := service.NewGoalService(store).MarkAchieved(cmd.Context(), args[0], note)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, goal)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Goal %q marked achieved\n", goal.Title)
		return nil
	},
}

var goalMissCmd = &cobra.Command{
	Use:   "miss <id>",
	Short: "Mark a goal not achieved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		var lessons *string
		if cmd.Flags().Changed("lessons") {
			lessons = &flagGoalLessons
		}
		goal, err := service.NewGoalService(store).MarkNotAchieved(cmd.Context(), args[0], lessons)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, goal)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Goal %q marked not achieved\n", goal.Title)
		return nil
	},
}

var goalHoursCmd = &cobra.Command{
	Use:   "hours <id> <hours>",
	Short: "Log actual hours on a goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid hours %q", args[1])
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		goal, err := service.NewGoalService(store).LogHours(cmd.Context(), args[0], hours)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, goal)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged %.2f hours on %q\n", hours, goal.Title)
		return nil
	},
}

var goalDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a goal and its criteria",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		deleted, err := service.NewGoalService(store).Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Fprintln(cmd.OutOrStdout(), "Goal not found, nothing deleted")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Goal deleted")
		return nil
	},
}
