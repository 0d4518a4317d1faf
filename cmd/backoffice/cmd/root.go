// Package cmd holds the backoffice command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jrsteele09/go-practice-client/app"
	"github.com/jrsteele09/go-practice-client/auth"
	"github.com/jrsteele09/go-practice-client/internal/config"
	"github.com/jrsteele09/go-practice-client/internal/logging"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	baseURL    string
	logLevel   string
}

type runner struct {
	flags      rootFlags
	cfg        config.Config
	appOptions []app.Option
}

// NewRootCommand returns a fresh command tree. appOptions are passed to every app.New call.
func NewRootCommand(appOptions ...app.Option) *cobra.Command {
	r := &runner{appOptions: appOptions}

	root := &cobra.Command{
		Use:           "backoffice",
		Short:         "Command line client for the practice back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&r.flags.configPath, "config", "", "YAML config file (defaults to $CONFIG_PATH)")
	flags.StringVar(&r.flags.baseURL, "base-url", "", "backend base URL")
	flags.StringVar(&r.flags.logLevel, "log-level", "", "trace, debug, info, warn, error or disabled")

	root.AddCommand(
		r.loginCommand(),
		r.logoutCommand(),
		r.statusCommand(),
		r.refreshCommand(),
		r.whoamiCommand(),
		r.clientsCommand(),
		r.templatesCommand(),
		r.schedulesCommand(),
		r.orgsCommand(),
		r.uploadCommand(),
		r.sidebarCommand(),
		versionCommand(),
	)
	return root
}

func (r *runner) loadConfig(cmd *cobra.Command) error {
	var options []config.Option
	if r.flags.configPath != "" {
		options = append(options, config.WithFile(r.flags.configPath))
	}
	options = append(options, config.WithOverride(func(s *config.Settings) {
		if r.flags.baseURL != "" {
			s.BaseURL = r.flags.baseURL
		}
		if r.flags.logLevel != "" {
			s.LogLevel = r.flags.logLevel
		}
	}))

	cfg, err := config.New(options...)
	if err != nil {
		return err
	}
	logging.SetupWriter(cmd.ErrOrStderr(), cfg.GetEnv(), cfg.GetLogLevel())
	r.cfg = cfg
	return nil
}

// withApp builds the client for one command and closes it afterwards, error or not.
func (r *runner) withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		options := append([]app.Option{app.WithNavigator(loginPrompt(cmd.ErrOrStderr()))}, r.appOptions...)
		a, err := app.New(ctx, r.cfg, options...)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, cmd, a, args)
	}
}

// loginPrompt is the navigator of an interactive terminal: it tells the operator to log in again.
func loginPrompt(w io.Writer) auth.Navigator {
	return auth.NavigatorFunc(func(_ context.Context, reason error) {
		what := "not logged in"
		if errors.Is(reason, auth.ErrSessionExpired) {
			what = "session expired"
		}
		fmt.Fprintf(w, "%s, run `backoffice login`\n", what)
	})
}

// IsAuthError reports whether err ended the session, in which case the user was already told
// to log in again.
func IsAuthError(err error) bool {
	return errors.Is(err, auth.ErrAuthenticationRequired)
}
