package main

import (
	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/domain"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		title       string
		description string
		category    string
		priority    string
		deadline    string
	)
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a task",
		Long: `Create a task. The title may be given as an argument or with --title;
without one the task is saved as "` + domain.DefaultTitle + `".

--deadline takes an RFC 3339 timestamp, a YYYY-MM-DD date or a duration
from now such as 90m. Tasks with a deadline move to Timeout once it passes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && !cmd.Flags().Changed("title") {
				title = args[0]
			}

			var (
				c   domain.Category
				p   domain.Priority
				err error
			)
			if category != "" {
				if c, err = domain.ParseCategory(category); err != nil {
					return err
				}
			}
			if priority != "" {
				if p, err = domain.ParsePriority(priority); err != nil {
					return err
				}
			}

			now := a.now()
			due, err := parseDeadline(deadline, now)
			if err != nil {
				return err
			}

			task, err := domain.NewTask(a.newID(), title, description, c, p, due, now)
			if err != nil {
				return err
			}
			return reported(a.store.AddTask(cmd.Context(), *task))
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "task title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "To Do, On Progress, Done or Timeout (default To Do)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Low, Medium or High (default Low)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline: RFC 3339, YYYY-MM-DD or duration from now")
	return cmd
}
