package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"timesolver/internal/schema"
)

// ValidateCmd creates the validate command
func ValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scheduling request without solving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return fmt.Errorf("an input file must be specified")
			}

			request, err := schema.RequestFromJSON(file)
			if err != nil {
				return err
			}
			request.ApplyDefaults()

			diagnostics := schema.Diagnostics{Valid: true}
			if err := request.Validate(); err != nil {
				diagnostics = schema.Diagnostics{Valid: false, Issues: []string{err.Error()}}
			} else {
				diagnostics = schema.Diagnose(request)
			}

			payload, err := json.MarshalIndent(diagnostics, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		},
	}

	cmd.Flags().StringP("file", "f", "", "Path to the input file")
	return cmd
}
