package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mapper-cli/internal/mapping"
	"github.com/sells-group/mapper-cli/internal/model"
)

var (
	resolveSession   string
	resolveAction    string
	resolveTarget    string
	resolveTransform string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <conflict-id>",
	Short: "Resolve a mapping conflict",
	Long: `Resolves a conflict by accepting the flagged mapping, rejecting it
(disabling the mapping), or modifying it with --target / --transform.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, resolveSession, "", "")
		if err != nil {
			return err
		}
		defer env.Close()

		resolution := mapping.Resolution(resolveAction)
		var patch *model.MappingPatch
		if resolution == mapping.ResolutionModify {
			patch = &model.MappingPatch{}
			if resolveTarget != "" {
				patch.TargetField = model.Ptr(resolveTarget)
			}
			if resolveTransform != "" {
				tt := model.TransformationType(resolveTransform)
				if !model.ValidTransformationType(tt) {
					return eris.Errorf("unknown transformation type: %s", resolveTransform)
				}
				patch.TransformationType = &tt
			}
		}

		if err := env.Proc.Store().ResolveConflict(args[0], resolution, patch); err != nil {
			return err
		}
		cmd.Printf("Conflict %s resolved (%s).\n", args[0], resolveAction)
		return env.save(ctx)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveSession, "session", "", "id of the session holding the conflict")
	resolveCmd.MarkFlagRequired("session")
	resolveCmd.Flags().StringVar(&resolveAction, "action", "accept", "resolution action: accept, reject, or modify")
	resolveCmd.Flags().StringVar(&resolveTarget, "target", "", "new target field (with --action modify)")
	resolveCmd.Flags().StringVar(&resolveTransform, "transform", "", "new transformation type (with --action modify)")
	rootCmd.AddCommand(resolveCmd)
}
