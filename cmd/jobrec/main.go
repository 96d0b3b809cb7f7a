package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "jobrec",
		Short:         "Inspect and drive a profile's job activity",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("profile", "p", "cli", "Profile to operate on")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output as JSON")

	rootCmd.AddCommand(drainCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(topCategoriesCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(recordCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(linkCmd())
	rootCmd.AddCommand(unlinkCmd())

	return rootCmd
}
