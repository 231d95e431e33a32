package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entwire/entwire/internal/auth"
	"github.com/entwire/entwire/internal/config"
	"github.com/entwire/entwire/pkg/schema"
)

func newValidateCmd() *cobra.Command {
	var (
		dir     string
		cfgPath string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compile entity definitions and report errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := schema.Load(dir)
			if err != nil {
				return err
			}
			if cfgPath != "" {
				cfg, err := config.Load(cfgPath)
				if err != nil {
					return err
				}
				if _, err := auth.Bind(cfg.Auth, set); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entities, %d references\n", len(set.Entities), len(set.Relations))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "entidades", "entity definitions directory")
	cmd.Flags().StringVar(&cfgPath, "config", "", "also validate the AUTH binding from this config file")
	return cmd
}
