package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entwire/entwire/internal/runtime"
)

func newInstallCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Create the tables for every compiled entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openStore(cfgPath)
			if err != nil {
				return err
			}
			defer st.DB.Close()
			compiled, err := runtime.Compile(cfg.EntitiesPath, cfg.Auth)
			if err != nil {
				return err
			}
			if err := st.Install(context.Background(), compiled.Schema, compiled.Models); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %d tables\n", len(compiled.Schema.Entities))
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "config.yaml", "configuration file")
	return cmd
}
