package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "volpulse",
		Short: "Engagement dashboard for the volunteer platform",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(dashboardCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())
	root.AddCommand(historyCmd())

	return root
}

func dashboardCmd() *cobra.Command {
	var (
		jsonOutput bool
		owner      string
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Compute and print the dashboard once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(jsonOutput, owner)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&owner, "owner", "", "manager view: restrict to one owner's events")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with periodic refresh and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
		scope      string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived dashboard runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(jsonOutput, limit, scope)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to show")
	cmd.Flags().StringVar(&scope, "scope", "", "filter by owner scope")
	return cmd
}
