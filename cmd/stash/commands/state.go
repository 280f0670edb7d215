package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/stash/internal/core/domain"
)

func (c *CLI) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the kind, schema version and content of a state file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.app.StatePath(args[0])
			result, err := c.app.Inspect(cmd.Context(), path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.Found {
				_, _ = fmt.Fprintf(out, "%s: no usable state\n", path)
				return nil
			}

			_, _ = fmt.Fprintf(out, "path:    %s\n", result.Path)
			_, _ = fmt.Fprintf(out, "kind:    %s\n", result.Kind)
			_, _ = fmt.Fprintf(out, "schema:  %d\n", result.SchemaVersion)
			if result.Entries != nil {
				_, _ = fmt.Fprintf(out, "entries: %d\n", len(result.Entries))
				for i, entry := range result.Entries {
					printEntry(cmd, i, entry)
				}
			}
			return nil
		},
	}
}

func (c *CLI) newRegisterCmd() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "register <primary> <secondary>",
		Short: "Append a registration pair to a registration cache",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := c.app.Register(cmd.Context(), c.app.StatePath(state), args[0], args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s -> %s (%d entries)\n", args[0], args[1], count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&state, "state", "s", "registrations", "Registration cache file or state name")

	return cmd
}

func (c *CLI) newEntriesCmd() *cobra.Command {
	var (
		state string
		index int
	)

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List the pairs stored in a registration cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := c.app.StatePath(state)

			if cmd.Flags().Changed("index") {
				entry, err := c.app.Entry(cmd.Context(), path, index)
				if err != nil {
					return err
				}
				printEntry(cmd, index, entry)
				return nil
			}

			entries, err := c.app.Entries(cmd.Context(), path)
			if err != nil {
				return err
			}
			for i, entry := range entries {
				printEntry(cmd, i, entry)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&state, "state", "s", "registrations", "Registration cache file or state name")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "Print only the entry at this index")

	return cmd
}

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [file...]",
		Short: "Delete state files (every file in the state directory by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make([]string, len(args))
			for i, arg := range args {
				paths[i] = c.app.StatePath(arg)
			}

			removed, err := c.app.Clean(cmd.Context(), paths...)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d state files\n", len(removed))
			return nil
		},
	}
}

func printEntry(cmd *cobra.Command, index int, entry domain.RegistrationRecord) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s -> %s\n", index, entry.PrimaryPath, entry.SecondaryPath)
}
