package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/mapper-cli/internal/model"
)

var (
	automapFields  string
	automapSession string
	automapName    string
	automapJSON    bool
)

var automapCmd = &cobra.Command{
	Use:   "automap",
	Short: "Map unmapped source fields by name similarity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, automapSession, automapFields, automapName)
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Proc.AutoMap("automap")
		if err := printResult(cmd, res, automapJSON); err != nil {
			return err
		}
		return env.save(ctx)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Recompute and list mapping conflicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, validateSession, "", "")
		if err != nil {
			return err
		}
		defer env.Close()

		conflicts := env.Proc.Store().Validate()
		if err := printConflicts(cmd, conflicts); err != nil {
			return err
		}
		return env.save(ctx)
	},
}

var validateSession string

func printConflicts(cmd *cobra.Command, conflicts []model.Conflict) error {
	if len(conflicts) == 0 {
		cmd.Println("No conflicts.")
		return nil
	}
	for _, c := range conflicts {
		cmd.Printf("%s [%s] %s\n", c.ID, c.Type, c.Description)
		if c.SuggestedResolution != "" {
			cmd.Printf("  suggestion: %s\n", c.SuggestedResolution)
		}
		for _, id := range c.AffectedMappings {
			cmd.Printf("  - %s\n", id)
		}
	}
	return nil
}

func init() {
	automapCmd.Flags().StringVar(&automapFields, "fields", "", "path to a YAML vocabulary file (for a new session)")
	automapCmd.Flags().StringVar(&automapSession, "session", "", "id of an existing session to continue")
	automapCmd.Flags().StringVar(&automapName, "name", "", "name for a new session")
	automapCmd.Flags().BoolVar(&automapJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(automapCmd)

	validateCmd.Flags().StringVar(&validateSession, "session", "", "id of the session to validate")
	validateCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(validateCmd)
}
