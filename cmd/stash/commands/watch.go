package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <path>...",
		Short: "Track input files and report the ones that change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return c.app.Watch(cmd.Context(), args, func(changed []string) {
				for _, path := range changed {
					_, _ = fmt.Fprintf(out, "changed %s\n", path)
				}
			})
		},
	}
}
