package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jetsetilly/crowdcade/internal/cli"
	"github.com/jetsetilly/crowdcade/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "crowdcade",
		Short:   "Crowdcade — crowd-plays-a-console broadcast core",
		Version: version.String(),
		Long: `Crowdcade runs one console session driven by arbitrated chat input
and broadcasts the result to overlay consumers over a websocket fabric,
with a separate authenticated admin surface for operator control.`,
	}

	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
