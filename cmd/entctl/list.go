package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/entwire/entwire/pkg/model"
	"github.com/entwire/entwire/pkg/schema"
)

func newListCmd() *cobra.Command {
	var (
		dir    string
		entity string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List compiled entities or the fields of one entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := schema.Load(dir)
			if err != nil {
				return err
			}
			if entity != "" {
				e := set.Entity(entity)
				if e == nil {
					return fmt.Errorf("unknown entity %q", entity)
				}
				return printOutput(model.Generate(e, set))
			}
			rows := make([]entityRow, 0, len(set.Names))
			for _, name := range set.Names {
				e := set.Entities[name]
				roles := make([]string, 0, len(e.Permissions))
				for r := range e.Permissions {
					roles = append(roles, r)
				}
				sort.Strings(roles)
				rows = append(rows, entityRow{
					Entity: e.Name,
					Table:  e.Table,
					PK:     e.PK().Name,
					Fields: len(e.Fields),
					Roles:  strings.Join(roles, ","),
				})
			}
			return printOutput(rows)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "entidades", "entity definitions directory")
	cmd.Flags().StringVar(&entity, "entity", "", "show the derived shapes of one entity")
	return cmd
}

type entityRow struct {
	Entity string `json:"entity"`
	Table  string `json:"table"`
	PK     string `json:"pk"`
	Fields int    `json:"fields"`
	Roles  string `json:"roles,omitempty"`
}

// printOutput prints data in either JSON or table format based on the --output flag.
func printOutput(v any) error {
	format, err := rootCmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	default:
		switch x := v.(type) {
		case []entityRow:
			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetHeader([]string{"Entity", "Table", "PK", "Fields", "Roles"})
			for _, r := range x {
				tw.Append([]string{r.Entity, r.Table, r.PK, fmt.Sprint(r.Fields), r.Roles})
			}
			tw.Render()
		case model.ModelSet:
			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetHeader([]string{"Field", "Type", "PK", "Nullable", "Max", "Ref"})
			for _, c := range x.Persistence {
				ref := ""
				if c.Ref != nil {
					ref = c.Ref.TargetEntity + "." + c.Ref.TargetField
				}
				tw.Append([]string{c.Name, string(c.Type), fmt.Sprint(c.PrimaryKey), fmt.Sprint(c.Nullable), fmt.Sprint(c.MaxLength), ref})
			}
			tw.Render()
		default:
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
		}
	}
	return nil
}
