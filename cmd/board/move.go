package main

import (
	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/domain"
)

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <category>",
		Short: "Move a task to another column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}
			category, err := domain.ParseCategory(args[1])
			if err != nil {
				return err
			}
			return reported(a.store.UpdateTask(cmd.Context(), id, domain.CategoryPatch(category)))
		},
	}
}
