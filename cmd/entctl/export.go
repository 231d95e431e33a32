package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/entwire/entwire/pkg/model"
	"github.com/entwire/entwire/pkg/schema"
)

func newExportCmd() *cobra.Command {
	var (
		dir string
		out string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the derived model shapes as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := exportModels(dir)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "entidades", "entity definitions directory")
	cmd.Flags().StringVar(&out, "out", "-", "output file (- for stdout)")
	return cmd
}

func exportModels(dir string) ([]byte, error) {
	set, err := schema.Load(dir)
	if err != nil {
		return nil, err
	}
	return model.EncodeYAML(set, model.GenerateAll(set))
}
