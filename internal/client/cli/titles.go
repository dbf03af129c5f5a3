package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/spf13/cobra"
)

// resolveTitle finds a title by id, then by name.
func (a *App) resolveTitle(ctx context.Context, ref string) (codec.TodoTitle, error) {
	titles, err := a.titles.List(ctx)
	if err != nil {
		return codec.TodoTitle{}, err
	}
	for _, t := range titles {
		if t.ID == ref {
			return t, nil
		}
	}
	for _, t := range titles {
		if t.Name == ref {
			return t, nil
		}
	}
	return codec.TodoTitle{}, fmt.Errorf("%w: no list %q", common.ErrorNotFound, ref)
}

func (a *App) printTitles(titles []codec.TodoTitle) {
	if len(titles) == 0 {
		a.println("No lists")
		return
	}
	for _, t := range titles {
		a.printf("%s\t%s\n", t.ID, t.Name)
	}
}

func (a *App) ListTitles(ctx context.Context) error {
	titles, err := a.titles.List(ctx)
	if err != nil {
		return err
	}
	a.printTitles(titles)
	return nil
}

func (a *App) AddTitle(ctx context.Context, name string) (codec.TodoTitle, error) {
	t, err := a.titles.Create(ctx, name)
	if err != nil {
		return t, err
	}
	a.printf("Created list %s (%s)\n", t.Name, t.ID)
	return t, nil
}

func (a *App) RenameTitle(ctx context.Context, ref, name string) (codec.TodoTitle, error) {
	t, err := a.resolveTitle(ctx, ref)
	if err != nil {
		return t, err
	}
	renamed, err := a.titles.Rename(ctx, t.ID, name)
	if err != nil {
		return renamed, err
	}
	a.printf("Renamed list %s to %s\n", t.Name, renamed.Name)
	return renamed, nil
}

func (a *App) RemoveTitle(ctx context.Context, ref string) (codec.TodoTitle, error) {
	t, err := a.resolveTitle(ctx, ref)
	if err != nil {
		return t, err
	}
	if err := a.titles.Delete(ctx, t.ID); err != nil {
		return t, err
	}
	a.printf("Removed list %s\n", t.Name)
	return t, nil
}

func newTitleCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "title",
		Aliases: []string{"titles", "list"},
		Short:   "Manage todo lists",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "Show all lists",
			Args:  cobra.NoArgs,
			RunE: st.withApp(func(ctx context.Context, a *App, _ []string) error {
				return a.ListTitles(ctx)
			}),
		},
		&cobra.Command{
			Use:   "add <name...>",
			Short: "Create a list",
			Args:  cobra.MinimumNArgs(1),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				_, err := a.AddTitle(ctx, strings.Join(args, " "))
				return err
			}),
		},
		&cobra.Command{
			Use:   "rename <id|name> <new name...>",
			Short: "Rename a list",
			Args:  cobra.MinimumNArgs(2),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				_, err := a.RenameTitle(ctx, args[0], strings.Join(args[1:], " "))
				return err
			}),
		},
		&cobra.Command{
			Use:   "rm <id|name>",
			Short: "Remove a list; its items stay in storage",
			Args:  cobra.ExactArgs(1),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				_, err := a.RemoveTitle(ctx, args[0])
				return err
			}),
		},
	)
	return cmd
}
