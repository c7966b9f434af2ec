package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/mapper-cli/internal/store"
)

var (
	sessionsName  string
	sessionsLimit int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved mapping sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		snapshots, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer snapshots.Close()
		if err := snapshots.Migrate(ctx); err != nil {
			return err
		}

		sessions, err := snapshots.ListSessions(ctx, storeFilter())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			cmd.Println("No sessions.")
			return nil
		}
		for _, s := range sessions {
			cmd.Printf("%s  %-24s  %d mappings, %d conflicts  (updated %s)\n",
				s.ID, s.Name, len(s.Mappings), len(s.Conflicts),
				s.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		snapshots, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer snapshots.Close()
		if err := snapshots.Migrate(ctx); err != nil {
			return err
		}

		if err := snapshots.DeleteSession(ctx, args[0]); err != nil {
			return err
		}
		cmd.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func storeFilter() store.SessionFilter {
	return store.SessionFilter{Name: sessionsName, Limit: sessionsLimit}
}

func init() {
	sessionsListCmd.Flags().StringVar(&sessionsName, "name", "", "filter by session name")
	sessionsListCmd.Flags().IntVar(&sessionsLimit, "limit", 0, "maximum sessions to list")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}
