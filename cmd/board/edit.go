package main

import (
	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/domain"
)

func newEditCmd(a *app) *cobra.Command {
	var (
		title       string
		description string
		priority    string
		deadline    string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title, description, priority or deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var patch domain.TaskPatch
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("priority") {
				p, err := domain.ParsePriority(priority)
				if err != nil {
					return err
				}
				patch.Priority = &p
			}
			if flags.Changed("deadline") {
				due, err := parseDeadline(deadline, a.now())
				if err != nil {
					return err
				}
				patch.Deadline = &due
			}
			return reported(a.store.UpdateTask(cmd.Context(), id, patch))
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Low, Medium or High")
	cmd.Flags().StringVar(&deadline, "deadline", "", "new deadline: RFC 3339, YYYY-MM-DD or duration from now")
	return cmd
}
