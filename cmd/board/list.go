package main

import (
	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/domain"
)

func newListCmd(a *app) *cobra.Command {
	var (
		category string
		search   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally filtered by category or text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var c domain.Category
			if category != "" {
				parsed, err := domain.ParseCategory(category)
				if err != nil {
					return err
				}
				c = parsed
			}
			renderTaskTable(cmd.OutOrStdout(), a.store.Filter(search, c), a.now())
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only tasks in this category")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match title or description")
	return cmd
}
