package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/entwire/entwire/internal/auth"
	"github.com/entwire/entwire/internal/runtime"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage identity rows"}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		cfgPath  string
		username string
		password string
		role     string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an identity row with a hashed password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			cfg, st, err := openStore(cfgPath)
			if err != nil {
				return err
			}
			defer st.DB.Close()
			compiled, err := runtime.Compile(cfg.EntitiesPath, cfg.Auth)
			if err != nil {
				return err
			}
			if password == "" {
				password = promptSecret("Password")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			id, err := auth.CreateUser(context.Background(), st, compiled.Bound, compiled.Models, username, password, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (id=%d)\n", username, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "config.yaml", "configuration file")
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&role, "role", "", "role name")
	return cmd
}

func promptSecret(label string) string {
	fmt.Printf("%s: ", label)
	b, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return strings.TrimSpace(string(b))
}
