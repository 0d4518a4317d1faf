package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/go-practice-client/app"
	"github.com/jrsteele09/go-practice-client/backoffice"
	"github.com/spf13/cobra"
)

func addListFlags(cmd *cobra.Command, opts *backoffice.ListOptions, desc *bool) {
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number, from 1")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "items per page, at most 100")
	cmd.Flags().StringVar(&opts.Search, "search", "", "free text filter")
	cmd.Flags().StringVar(&opts.SortBy, "sort-by", "", "field to sort by")
	cmd.Flags().BoolVar(desc, "desc", false, "sort descending")
}

func sortOrder(opts backoffice.ListOptions, desc bool) backoffice.ListOptions {
	if desc {
		opts.SortOrder = backoffice.SortDesc
	} else if opts.SortBy != "" {
		opts.SortOrder = backoffice.SortAsc
	}
	return opts
}

func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func pageFooter[T any](w io.Writer, page *backoffice.Page[T]) {
	fmt.Fprintf(w, "page %d of %d, %d total\n", page.Page, page.Pages(), page.Total)
}

func (r *runner) clientsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage clients of the practice",
	}

	var (
		opts backoffice.ListOptions
		desc bool
		all  bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			query := sortOrder(opts, desc)
			var (
				clients []backoffice.Client
				page    *backoffice.Page[backoffice.Client]
				err     error
			)
			if all {
				clients, err = a.Services().Clients.ListAll(ctx, query)
			} else {
				page, err = a.Services().Clients.List(ctx, query)
				if page != nil {
					clients = page.Items
				}
			}
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(clients))
			for _, c := range clients {
				rows = append(rows, []string{c.ID, c.Name, c.Email, c.PAN})
			}
			if err := table(cmd.OutOrStdout(), []string{"ID", "NAME", "EMAIL", "PAN"}, rows); err != nil {
				return err
			}
			if page != nil {
				pageFooter(cmd.OutOrStdout(), page)
			}
			return nil
		}),
	}
	addListFlags(list, &opts, &desc)
	list.Flags().BoolVar(&all, "all", false, "fetch every page")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one client",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			client, err := a.Services().Clients.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), client)
		}),
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			if err := a.Services().Clients.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(list, get, del)
	return cmd
}

func (r *runner) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage email templates",
	}
	var (
		opts backoffice.ListOptions
		desc bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List email templates",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			page, err := a.Services().Templates.List(ctx, sortOrder(opts, desc))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Items))
			for _, t := range page.Items {
				rows = append(rows, []string{t.ID, t.Name, t.Subject})
			}
			if err := table(cmd.OutOrStdout(), []string{"ID", "NAME", "SUBJECT"}, rows); err != nil {
				return err
			}
			pageFooter(cmd.OutOrStdout(), page)
			return nil
		}),
	}
	addListFlags(list, &opts, &desc)
	cmd.AddCommand(list)
	return cmd
}

func (r *runner) schedulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Manage scheduled mailers",
	}
	var (
		opts backoffice.ListOptions
		desc bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List mail schedules",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			page, err := a.Services().Schedules.List(ctx, sortOrder(opts, desc))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Items))
			for _, s := range page.Items {
				rows = append(rows, []string{s.ID, s.ClientID, s.TemplateID, string(s.Frequency), s.StartDate, string(s.Status)})
			}
			if err := table(cmd.OutOrStdout(), []string{"ID", "CLIENT", "TEMPLATE", "FREQUENCY", "START", "STATUS"}, rows); err != nil {
				return err
			}
			pageFooter(cmd.OutOrStdout(), page)
			return nil
		}),
	}
	addListFlags(list, &opts, &desc)

	setStatus := func(use, short string, fn func(*backoffice.ScheduleService, context.Context, string) (*backoffice.MailSchedule, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
				schedule, err := fn(a.Services().Schedules, ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", schedule.ID, schedule.Status)
				return nil
			}),
		}
	}

	cmd.AddCommand(
		list,
		setStatus("pause", "Pause a schedule", (*backoffice.ScheduleService).Pause),
		setStatus("resume", "Resume a paused schedule", (*backoffice.ScheduleService).Resume),
	)
	return cmd
}

func (r *runner) orgsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orgs",
		Short: "Manage organizations (master admin only)",
	}
	var (
		opts backoffice.ListOptions
		desc bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
			page, err := a.Services().Organizations.List(ctx, sortOrder(opts, desc))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Items))
			for _, o := range page.Items {
				active := "no"
				if o.IsActive {
					active = "yes"
				}
				rows = append(rows, []string{o.ID, o.Name, o.Email, active})
			}
			if err := table(cmd.OutOrStdout(), []string{"ID", "NAME", "EMAIL", "ACTIVE"}, rows); err != nil {
				return err
			}
			pageFooter(cmd.OutOrStdout(), page)
			return nil
		}),
	}
	addListFlags(list, &opts, &desc)
	cmd.AddCommand(list)
	return cmd
}

func (r *runner) uploadCommand() *cobra.Command {
	var clientID string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var fields map[string]string
			if clientID != "" {
				fields = map[string]string{"client_id": clientID}
			}
			up, err := a.Services().Files.Upload(ctx, args[0], f, fields)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%d bytes) as %s\n", up.Filename, up.Size, up.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&clientID, "client", "", "attach the document to this client id")
	return cmd
}
