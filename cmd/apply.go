package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mapper-cli/internal/model"
)

var (
	applyFields      string
	applySession     string
	applyName        string
	applyInteractive bool
	applyJSON        bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [instruction]",
	Short: "Apply a plain-language mapping instruction",
	Long:  `Applies an instruction such as "map customer_name to full_name" against the session's mappings and saves the result.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, applySession, applyFields, applyName)
		if err != nil {
			return err
		}
		defer env.Close()

		if applyInteractive {
			return runInteractive(cmd, env)
		}

		if len(args) == 0 {
			return eris.New("an instruction is required unless --interactive is set")
		}

		res := env.Proc.Process(args[0])
		if err := printResult(cmd, res, applyJSON); err != nil {
			return err
		}
		return env.save(ctx)
	},
}

func runInteractive(cmd *cobra.Command, env *mapperEnv) error {
	ctx := cmd.Context()
	fmt.Fprintln(cmd.OutOrStdout(), `Enter instructions, one per line ("quit" to exit):`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(cmd.OutOrStdout(), "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		res := env.Proc.Process(line)
		if err := printResult(cmd, res, applyJSON); err != nil {
			return err
		}
		if err := env.save(ctx); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func printResult(cmd *cobra.Command, res model.ProcessingResult, asJSON bool) error {
	out := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintln(out, res.Message)
	for _, ch := range res.AppliedChanges {
		fmt.Fprintf(out, "  [%s] %s -> %s", ch.Type, ch.SourceField, ch.TargetField)
		if ch.Details != "" {
			fmt.Fprintf(out, " (%s)", ch.Details)
		}
		fmt.Fprintln(out)
	}
	if res.NeedsClarification && res.ClarificationQuestion != "" {
		fmt.Fprintln(out, res.ClarificationQuestion)
	}
	for _, s := range res.Suggestions {
		fmt.Fprintf(out, "  - %s\n", s)
	}
	return nil
}

func init() {
	applyCmd.Flags().StringVar(&applyFields, "fields", "", "path to a YAML vocabulary file (for a new session)")
	applyCmd.Flags().StringVar(&applySession, "session", "", "id of an existing session to continue")
	applyCmd.Flags().StringVar(&applyName, "name", "", "name for a new session")
	applyCmd.Flags().BoolVarP(&applyInteractive, "interactive", "i", false, "read instructions from stdin")
	applyCmd.Flags().BoolVar(&applyJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(applyCmd)
}
