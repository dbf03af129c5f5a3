package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dmitrijs2005/todoboard/internal/client/config"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath  string
	ServerURL   string
	PlatformURL string
	SessionDB   string
	Verbose     bool
}

// state is shared by every command of one invocation. The App is opened on
// first use so that help and flag errors never touch the session database.
type state struct {
	opts   RootOptions
	config *config.Config
	app    *App
}

func (st *state) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(st.opts.ConfigPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = st.opts.ServerURL
	}
	if flags.Changed("platform") {
		cfg.PlatformURL = st.opts.PlatformURL
	}
	if flags.Changed("session-db") {
		cfg.SessionDB = st.opts.SessionDB
	}
	st.config = cfg
	return nil
}

// App returns the App for cmd, opening it if needed.
func (st *state) App(cmd *cobra.Command) (*App, error) {
	if st.app != nil {
		return st.app, nil
	}
	level := slog.LevelWarn
	if st.opts.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewTextLogger(cmd.ErrOrStderr(), level)

	app, err := NewApp(cmd.Context(), st.config, logger, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	st.app = app
	return app, nil
}

func (st *state) close() error {
	if st.app == nil {
		return nil
	}
	err := st.app.Close()
	st.app = nil
	return err
}

// withApp adapts an App method to a cobra RunE.
func (st *state) withApp(run func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := st.App(cmd)
		if err != nil {
			return err
		}
		return run(cmd.Context(), a, args)
	}
}

func newRoot() (*cobra.Command, *state) {
	st := &state{}

	cmd := &cobra.Command{
		Use:           "todoboard",
		Short:         "todoboard - todo lists and group boards",
		Long:          "Command-line client for todoboard: personal todo lists stored on the platform, groups and their boards.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.loadConfig(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&st.opts.ConfigPath, "config", "c", "", "config file (.json, .jsonc or .toml)")
	pf.StringVarP(&st.opts.ServerURL, "server", "s", "", "todoboard server URL")
	pf.StringVarP(&st.opts.PlatformURL, "platform", "p", "", "platform URL (defaults to the server URL)")
	pf.StringVarP(&st.opts.SessionDB, "session-db", "d", "", "session database file")
	pf.BoolVarP(&st.opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newLoginCommand(st),
		newLogoutCommand(st),
		newRefreshCommand(st),
		newWhoamiCommand(st),
		newTitleCommand(st),
		newTodoCommand(st),
		newGroupCommand(st),
		newPostCommand(st),
		newCommentCommand(st),
		newRPCCommand(st),
		newRoleCommand(st),
		newShellCommand(st),
	)
	return cmd, st
}

// NewRootCommand creates the root command of the todoboard CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are printed as a single "error: ..." line.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	cmd, st := newRoot()
	defer func() { _ = st.close() }()

	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}
