package main

import (
	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/store"
)

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "board",
		Short:         "Track tasks on a To Do / On Progress / Done board",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.connect(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, a)
		},
	}

	cmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "task API base URL (overrides TASKBOARD_API_URL)")
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "per-request timeout (overrides API_TIMEOUT)")

	cmd.AddCommand(
		newBoardCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newMoveCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newHistoryCmd(a),
		newWatchCmd(a),
	)
	return cmd
}

// connect loads configuration, builds the store and fetches the task list.
func (a *app) connect(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.timeout > 0 {
		cfg.APITimeout = a.timeout
	}
	a.cfg = cfg

	log, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.logger = log

	a.backend = a.newBackend(cfg, log)
	a.store = store.New(a.backend,
		store.WithNotifier(store.WriterNotifier(cmd.OutOrStdout(), cmd.ErrOrStderr())),
		store.WithLogger(log),
		store.WithClock(a.now),
	)
	return reported(a.store.FetchTasks(cmd.Context()))
}
