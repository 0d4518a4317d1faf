package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/go-practice-client/app"
	"github.com/jrsteele09/go-practice-client/auth"
	"github.com/jrsteele09/go-practice-client/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (r *runner) loginCommand() *cobra.Command {
	var (
		username    string
		password    string
		masterAdmin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			if password == "" {
				var err error
				if password, err = readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: "); err != nil {
					return err
				}
			}

			login := a.Auth().Login
			if masterAdmin {
				login = a.Auth().MasterAdminLogin
			}
			status, err := login(ctx, username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", username)
			if !status.ExpiresAt.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "Session expires at %s\n", status.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "user name or email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password, read from stdin when omitted")
	cmd.Flags().BoolVar(&masterAdmin, "master-admin", false, "sign in as a master admin")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// readSecret reads a password without echo when in is a terminal, and one line otherwise.
func readSecret(in io.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *runner) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			if err := a.Auth().Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

func (r *runner) refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			if err := a.Auth().Refresh(ctx); err != nil {
				return err
			}
			return printStatus(ctx, cmd.OutOrStdout(), a.Auth())
		}),
	}
}

type statusView struct {
	LoggedIn     bool            `json:"logged_in"`
	CanRefresh   bool            `json:"can_refresh"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	Organization json.RawMessage `json:"organization,omitempty"`
}

func (r *runner) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the locally stored session",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			return printStatus(ctx, cmd.OutOrStdout(), a.Auth())
		}),
	}
}

func printStatus(ctx context.Context, w io.Writer, authn *auth.Authenticator) error {
	status, err := authn.Status(ctx)
	if err != nil {
		return err
	}
	view := statusView{LoggedIn: status.LoggedIn, CanRefresh: status.CanRefresh, Organization: status.Organization}
	if !status.ExpiresAt.IsZero() {
		view.ExpiresAt = utils.Ptr(status.ExpiresAt.UTC())
	}
	return printJSON(w, view)
}

func (r *runner) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Fetch the signed in user from the backend",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			user, err := a.Auth().CurrentUser(ctx)
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, user, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		}),
	}
}

func (r *runner) sidebarCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sidebar",
		Short: "Show or change the sidebar preference",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			collapsed, err := a.Session().SidebarCollapsed(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sidebarState(collapsed))
			return nil
		}),
	}
	for _, sub := range []struct {
		use       string
		collapsed bool
	}{
		{use: "collapse", collapsed: true},
		{use: "expand", collapsed: false},
	} {
		collapsed := sub.collapsed
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.use + " the sidebar",
			Args:  cobra.NoArgs,
			RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
				if err := a.Session().SetSidebarCollapsed(ctx, collapsed); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sidebarState(collapsed))
				return nil
			}),
		})
	}
	return cmd
}

func sidebarState(collapsed bool) string {
	if collapsed {
		return "sidebar: collapsed"
	}
	return "sidebar: expanded"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
