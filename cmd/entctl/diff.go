package main

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
)

var exitFunc = os.Exit

func newDiffCmd() *cobra.Command {
	var (
		dir  string
		file string
		fail bool
	)
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show drift between entity definitions and an exported snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			cur, err := exportModels(dir)
			if err != nil {
				return err
			}
			ud := difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(prev)),
				B:        difflib.SplitLines(string(cur)),
				FromFile: file,
				ToFile:   dir,
				Context:  3,
			}
			out, err := difflib.GetUnifiedDiffString(ud)
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No schema drift detected.")
				return nil
			}
			cmd.Print(out)
			if fail {
				exitFunc(2)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "entidades", "entity definitions directory")
	cmd.Flags().StringVar(&file, "file", "models.yaml", "previously exported snapshot")
	cmd.Flags().BoolVar(&fail, "fail-on-change", false, "exit 2 if drift detected")
	return cmd
}
