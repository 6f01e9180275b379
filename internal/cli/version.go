package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jetsetilly/crowdcade/internal/version"
)

// VersionCmd returns the version command.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, revision, release := version.Version()
			fmt.Printf("%s %s (%s)\n", version.ApplicationName, v, revision)
			if !release {
				fmt.Println("unreleased build")
			}
			return nil
		},
	}
}
