package main

import (
	"github.com/spf13/cobra"
)

func newBoardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"board"},
		Short:   "Show the board with its counters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, a)
		},
	}
}

func runBoard(cmd *cobra.Command, a *app) error {
	renderBoard(cmd.OutOrStdout(), a.store.Board(), a.store.Counts(), a.now())
	return nil
}
