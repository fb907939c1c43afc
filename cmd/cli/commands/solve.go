package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timesolver/internal/engine"
	"timesolver/internal/export"
	"timesolver/internal/schema"
)

// SolveCmd creates the solve command
func SolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a scheduling request from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			out, _ := cmd.Flags().GetString("out")
			csvPath, _ := cmd.Flags().GetString("csv")
			timeLimit, _ := cmd.Flags().GetInt("time-limit")
			workers, _ := cmd.Flags().GetInt("workers")
			if file == "" {
				return fmt.Errorf("an input file must be specified")
			}

			request, err := schema.RequestFromJSON(file)
			if err != nil {
				return err
			}
			if timeLimit > 0 {
				request.Config.TimeLimitSeconds = timeLimit
			}
			if workers > 0 {
				request.Config.Workers = workers
			}

			result, err := engine.New(nil, nil).Solve(context.Background(), request)
			if err != nil {
				return err
			}

			if result.Status != schema.StatusOptimal && result.Status != schema.StatusFeasible {
				fmt.Printf("Status: %s\n%s\n", result.Status, result.Message)
				return nil
			}

			best := result.Solutions[result.BestSolutionIndex]
			printTimetable(best)

			if csvPath != "" {
				if err := export.WriteCSV(csvPath, best.Events); err != nil {
					return err
				}
				fmt.Printf("CSV written to %s\n", csvPath)
			}
			if out != "" {
				payload, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, payload, 0666); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringP("file", "f", "", "Path to the input file")
	cmd.Flags().String("out", "", "Path to write the full result JSON")
	cmd.Flags().String("csv", "", "Path to write the timetable as CSV")
	cmd.Flags().Int("time-limit", 0, "Override the time limit in seconds")
	cmd.Flags().Int("workers", 0, "Override the worker count")

	return cmd
}

func printTimetable(solution schema.Solution) {
	fmt.Printf("Score: %.3f  Soft penalty: %d\n", solution.Score, solution.Violations["soft"])
	currentDay := schema.Day("")
	for _, event := range solution.Events {
		if event.Day != currentDay {
			currentDay = event.Day
			fmt.Printf("\n%s\n", currentDay)
		}
		fixed := ""
		if event.Fixed {
			fixed = " [fixed]"
		}
		fmt.Printf("  slot %d: %s  %s  (%s, %s)%s\n",
			event.Slot,
			firstOf(event.GroupCode, event.GroupID),
			firstOf(event.SubjectCode, event.SubjectID),
			firstOf(event.InstructorName, event.InstructorID),
			firstOf(event.RoomCode, event.RoomID),
			fixed,
		)
	}
	fmt.Println()
}

func firstOf(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}
