package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timesolver/cmd/cli/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "timesolver",
		Short: "Weekly timetable solver",
		Long:  `Compiles scheduling requests into a constraint model, solves them, and prints or exports the resulting timetable.`,
	}

	rootCmd.AddCommand(
		commands.SolveCmd(),
		commands.ValidateCmd(),
		commands.ServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
