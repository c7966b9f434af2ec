package main

import (
	"encoding/json"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/mapper-cli/internal/model"
)

var (
	exportSession string
	exportFormat  string
	exportOut     string
)

// csvMapping flattens a mapping for CSV export; slice fields are omitted.
type csvMapping struct {
	ID                 string  `csv:"id"`
	SourceField        string  `csv:"source_field"`
	TargetField        string  `csv:"target_field"`
	TransformationType string  `csv:"transformation_type"`
	Confidence         float64 `csv:"confidence"`
	Status             string  `csv:"status"`
	UserModified       bool    `csv:"user_modified"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session's active mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, exportSession, "", "")
		if err != nil {
			return err
		}
		defer env.Close()

		data, err := encodeMappings(env.Proc.Store().Export(), exportFormat)
		if err != nil {
			return err
		}

		if exportOut == "" {
			cmd.Print(string(data))
			return nil
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", exportOut)
		}
		cmd.Printf("Wrote %s\n", exportOut)
		return nil
	},
}

func encodeMappings(mappings []model.Mapping, format string) ([]byte, error) {
	switch format {
	case "yaml":
		out, err := yaml.Marshal(mappings)
		return out, eris.Wrap(err, "export: marshal yaml")
	case "json":
		out, err := json.MarshalIndent(mappings, "", "  ")
		return out, eris.Wrap(err, "export: marshal json")
	case "csv":
		rows := make([]csvMapping, 0, len(mappings))
		for _, m := range mappings {
			rows = append(rows, csvMapping{
				ID:                 m.ID,
				SourceField:        m.SourceField,
				TargetField:        m.TargetField,
				TransformationType: string(m.TransformationType),
				Confidence:         m.Confidence,
				Status:             string(m.Status),
				UserModified:       m.UserModified,
			})
		}
		out, err := csvutil.Marshal(rows)
		return out, eris.Wrap(err, "export: marshal csv")
	default:
		return nil, eris.Errorf("unsupported export format: %s", format)
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportSession, "session", "", "id of the session to export")
	exportCmd.MarkFlagRequired("session")
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "output format: yaml, json, or csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
