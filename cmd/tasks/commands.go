package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"tasker/config"
	"tasker/internal/delivery/api/router/handler"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type commandFunc func(ctx context.Context, out io.Writer, session *cliSession, api *apiClient) error

// loadConfig is swapped in tests.
var loadConfig = config.New

func runWithSession(opts *rootOptions, fn commandFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig()
		if err != nil {
			return errors.Wrap(err, "load config")
		}

		logger, err := newCLILogger(cfg)
		if err != nil {
			return err
		}

		session, err := openSession(ctx, cfg, logger, opts)
		if err != nil {
			return err
		}
		defer session.close(context.WithoutCancel(ctx))

		token, err := session.accessToken(ctx)
		if err != nil {
			return err
		}

		return fn(ctx, cmd.OutOrStdout(), session, newAPIClient(opts.apiURL, token))
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user as seen by the auth service and the task API",
		Args:  cobra.NoArgs,
		RunE: runWithSession(opts, func(ctx context.Context, out io.Writer, session *cliSession, api *apiClient) error {
			user := session.store.User()
			fmt.Fprintf(out, "auth:  %s %s\n", user.ID, user.Email)

			identity, err := api.me(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "api:   %s %s\n", identity.ID, identity.Email)

			return nil
		}),
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		pending   bool
		completed bool
		parentID  string
		rootsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: runWithSession(opts, func(ctx context.Context, out io.Writer, _ *cliSession, api *apiClient) error {
			if pending && completed {
				return errors.New("--pending and --completed are mutually exclusive")
			}

			query := listQuery{parentID: parentID, rootsOnly: rootsOnly}
			if pending || completed {
				query.completed = &completed
			}

			tasks, err := api.listTasks(ctx, query)
			if err != nil {
				return err
			}

			return printTasks(out, tasks)
		}),
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "only tasks that are not completed")
	cmd.Flags().BoolVar(&completed, "completed", false, "only completed tasks")
	cmd.Flags().StringVar(&parentID, "parent", "", "only direct children of this task")
	cmd.Flags().BoolVar(&rootsOnly, "root", false, "only top-level tasks")

	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		parentID string
		due      string
	)

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &handler.CreateTaskRequest{Text: args[0]}
			if parentID != "" {
				req.ParentID = &parentID
			}
			if due != "" {
				dueDate, err := time.Parse(time.RFC3339, due)
				if err != nil {
					return errors.Wrap(err, "--due must be an RFC 3339 timestamp")
				}
				req.DueDate = &dueDate
			}

			return runWithSession(opts, func(ctx context.Context, out io.Writer, _ *cliSession, api *apiClient) error {
				task, err := api.createTask(ctx, req)
				if err != nil {
					return err
				}

				return printTasks(out, []*handler.TaskResponse{task})
			})(cmd, args)
		},
	}

	cmd.Flags().StringVar(&parentID, "parent", "", "create the task under this parent")
	cmd.Flags().StringVar(&due, "due", "", "due date, RFC 3339")

	return cmd
}

func newDoneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			return runWithSession(opts, func(ctx context.Context, out io.Writer, _ *cliSession, api *apiClient) error {
				completed := true
				task, err := api.updateTask(ctx, id, &handler.UpdateTaskRequest{Completed: &completed})
				if err != nil {
					return err
				}

				return printTasks(out, []*handler.TaskResponse{task})
			})(cmd, args)
		},
	}
}

func printTasks(out io.Writer, tasks []*handler.TaskResponse) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tDUE\tPARENT\tTEXT")
	for _, task := range tasks {
		done := " "
		if task.Completed {
			done = "x"
		}
		due := "-"
		if task.DueDate != nil {
			due = task.DueDate.Format(time.DateOnly)
		}
		parent := "-"
		if task.ParentID != nil {
			parent = *task.ParentID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", task.ID, done, due, parent, task.Text)
	}

	return w.Flush()
}
