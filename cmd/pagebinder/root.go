package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagebinder.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagebinder",
		Short: "Crawl a website and bind its text into one compact PDF",
		Long: `pagebinder crawls every page of a single website, extracts the readable
text, binds it into one paginated PDF, re-encodes embedded images to shrink
the file, and delivers the result to a file or an upload endpoint.

Use 'pagebinder crawl' for a one-off job in the foreground and
'pagebinder serve' to accept jobs over HTTP.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
