// Version command for the sprintplan CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwdebruin/sprintplan/pkg/sprintplan"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sprintplan version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "sprintplan", sprintplan.Version)
	},
}
