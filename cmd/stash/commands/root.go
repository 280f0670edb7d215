// Package commands implements the CLI commands for the stash state tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/stash/internal/app"
	"go.trai.ch/stash/internal/build"
	"go.trai.ch/stash/internal/core/domain"
)

// CLI represents the command line interface for stash.
type CLI struct {
	app     Application
	output  OutputSwitch
	rootCmd *cobra.Command
	flags   globalFlags
}

// Application represents the application logic interface.
type Application interface {
	Configure(path string) (domain.Settings, error)
	StatePath(name string) string
	Inspect(ctx context.Context, path string) (app.Inspection, error)
	Register(ctx context.Context, statePath, primaryPath, secondaryPath string) (int, error)
	Entries(ctx context.Context, statePath string) ([]domain.RegistrationRecord, error)
	Entry(ctx context.Context, statePath string, index int) (domain.RegistrationRecord, error)
	Clean(ctx context.Context, paths ...string) ([]string, error)
	Watch(ctx context.Context, paths []string, onBatch func(changed []string)) error
}

// OutputSwitch toggles structured log output.
type OutputSwitch interface {
	SetJSON(enable bool)
}

type globalFlags struct {
	config         string
	json           bool
	node           int32
	projectContext int32
	target         int32
	task           int32
}

// New creates a new CLI instance with the given app. output may be nil.
func New(a Application, output OutputSwitch) *CLI {
	rootCmd := &cobra.Command{
		Use:           "stash",
		Short:         "Inspect and maintain incremental build state",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		output:  output,
		rootCmd: rootCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.flags.config, "config", "", "Path to stash.yaml (discovered from the working directory by default)")
	pf.BoolVar(&c.flags.json, "json", false, "Emit logs as JSON")
	pf.Int32Var(&c.flags.node, "node", 0, "Node id used to attribute events (defaults to node_id from the config)")
	pf.Int32Var(&c.flags.projectContext, "project-context", domain.InvalidProjectContextID, "Project context id used to attribute events")
	pf.Int32Var(&c.flags.target, "target", domain.InvalidTargetID, "Target id used to attribute events")
	pf.Int32Var(&c.flags.task, "task", domain.InvalidTaskID, "Task id used to attribute events")

	rootCmd.PersistentPreRunE = c.configure

	rootCmd.AddCommand(c.newInspectCmd())
	rootCmd.AddCommand(c.newRegisterCmd())
	rootCmd.AddCommand(c.newEntriesCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// configure loads settings and attaches the build event context to the command context.
func (c *CLI) configure(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	settings, err := c.app.Configure(c.flags.config)
	if err != nil {
		return err
	}

	if c.output != nil {
		c.output.SetJSON(c.flags.json || settings.LogFormat == domain.LogFormatJSON)
	}

	node := settings.NodeID
	if cmd.Flags().Changed("node") {
		node = c.flags.node
	}

	bec := domain.NewBuildEventContext(
		settings.SubmissionID,
		node,
		domain.InvalidProjectInstanceID,
		c.flags.projectContext,
		c.flags.target,
		c.flags.task,
	)
	cmd.SetContext(domain.WithEventContext(cmd.Context(), bec))
	return nil
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
