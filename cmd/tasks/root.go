package main

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:8080"

type rootOptions struct {
	apiURL      string
	email       string
	password    string
	accessToken string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage your tasks from the terminal",
		Long: `tasks signs in against the auth service and talks to the task API on behalf
of the signed-in user.

Credentials are read from flags or from the environment:
  TASKS_EMAIL / TASKS_PASSWORD   password sign-in
  TASKS_ACCESS_TOKEN             an access token issued elsewhere
  TASKS_API_URL                  task API base URL`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", envOr("TASKS_API_URL", defaultAPIURL), "task API base URL")
	flags.StringVar(&opts.email, "email", os.Getenv("TASKS_EMAIL"), "email used for password sign-in")
	flags.StringVar(&opts.password, "password", os.Getenv("TASKS_PASSWORD"), "password used for password sign-in")
	flags.StringVar(&opts.accessToken, "token", os.Getenv("TASKS_ACCESS_TOKEN"), "access token, skips password sign-in")

	rootCmd.AddCommand(
		newWhoamiCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newDoneCmd(opts),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
