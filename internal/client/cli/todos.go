package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) printTodos(items []codec.TodoItem) {
	if len(items) == 0 {
		a.println("No items")
		return
	}
	for _, it := range items {
		mark := " "
		if it.Completed {
			mark = "x"
		}
		a.printf("[%s] %d\t%s\n", mark, it.ID, it.Text)
	}
}

func (a *App) listTodos(ctx context.Context, list string) (codec.TodoTitle, []codec.TodoItem, error) {
	t, err := a.resolveTitle(ctx, list)
	if err != nil {
		return t, nil, err
	}
	items, err := a.todos.List(ctx, t.Name)
	return t, items, err
}

func (a *App) ListTodos(ctx context.Context, list string) error {
	_, items, err := a.listTodos(ctx, list)
	if err != nil {
		return err
	}
	a.printTodos(items)
	return nil
}

// findTodo reads the list and returns the item with id, carrying the
// version it was read with.
func (a *App) findTodo(ctx context.Context, list, id string) (codec.TodoItem, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return codec.TodoItem{}, fmt.Errorf("%w: bad item id %q", common.ErrorValidation, id)
	}
	_, items, err := a.listTodos(ctx, list)
	if err != nil {
		return codec.TodoItem{}, err
	}
	for _, it := range items {
		if it.ID == n {
			return it, nil
		}
	}
	return codec.TodoItem{}, fmt.Errorf("%w: no item %d in %s", common.ErrorNotFound, n, list)
}

func (a *App) AddTodo(ctx context.Context, list, text string, viaRPC bool) (codec.TodoItem, error) {
	t, err := a.resolveTitle(ctx, list)
	if err != nil {
		return codec.TodoItem{}, err
	}
	var item codec.TodoItem
	if viaRPC {
		item, err = a.todos.CreateViaRPC(ctx, t.Name, text)
	} else {
		item, err = a.todos.Create(ctx, t.Name, text)
	}
	if err != nil {
		return item, err
	}
	a.printf("Added %d\n", item.ID)
	return item, nil
}

// SetCompleted marks an item done or not done.
func (a *App) SetCompleted(ctx context.Context, list, id string, done bool) (codec.TodoItem, error) {
	item, err := a.findTodo(ctx, list, id)
	if err != nil {
		return item, err
	}
	item.Completed = done
	item, err = a.todos.Update(ctx, item)
	if err != nil {
		return item, err
	}
	a.printf("Updated %d\n", item.ID)
	return item, nil
}

// EditTodo changes an item's text through the server's update route.
func (a *App) EditTodo(ctx context.Context, list, id, text string) (codec.TodoItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return codec.TodoItem{}, fmt.Errorf("%w: todo text is required", common.ErrorValidation)
	}
	item, err := a.findTodo(ctx, list, id)
	if err != nil {
		return item, err
	}
	item.Text = text
	item, err = a.api.UpdateTodo(ctx, item)
	if err != nil {
		return item, err
	}
	a.printf("Updated %d\n", item.ID)
	return item, nil
}

func (a *App) RemoveTodo(ctx context.Context, list, id string, viaRPC bool) (codec.TodoItem, error) {
	item, err := a.findTodo(ctx, list, id)
	if err != nil {
		return item, err
	}
	if viaRPC {
		err = a.todos.DeleteViaRPC(ctx, item)
	} else {
		err = a.todos.Delete(ctx, item)
	}
	if err != nil {
		return item, err
	}
	a.printf("Removed %d\n", item.ID)
	return item, nil
}

func (a *App) printStats(items []codec.TodoItem) {
	s := codec.StatsOf(items)
	a.printf("total: %d, completed: %d, remaining: %d\n", s.Total, s.Completed, s.Remaining)
}

func (a *App) TodoStats(ctx context.Context, list string) error {
	_, items, err := a.listTodos(ctx, list)
	if err != nil {
		return err
	}
	a.printStats(items)
	return nil
}

func newTodoCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"todos"},
		Short:   "Manage the items of a list",
	}

	var addRPC, rmRPC bool

	add := &cobra.Command{
		Use:   "add <list> <text...>",
		Short: "Add an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
			_, err := a.AddTodo(ctx, args[0], strings.Join(args[1:], " "), addRPC)
			return err
		}),
	}
	add.Flags().BoolVar(&addRPC, "rpc", false, "create through the create_todo server function")

	rm := &cobra.Command{
		Use:   "rm <list> <id>",
		Short: "Remove an item",
		Args:  cobra.ExactArgs(2),
		RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
			_, err := a.RemoveTodo(ctx, args[0], args[1], rmRPC)
			return err
		}),
	}
	rm.Flags().BoolVar(&rmRPC, "rpc", false, "remove through the delete_todo server function")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls <list>",
			Short: "Show the items of a list",
			Args:  cobra.ExactArgs(1),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				return a.ListTodos(ctx, args[0])
			}),
		},
		add,
		&cobra.Command{
			Use:   "done <list> <id>",
			Short: "Mark an item completed",
			Args:  cobra.ExactArgs(2),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				_, err := a.SetCompleted(ctx, args[0], args[1], true)
				return err
			}),
		},
		&cobra.Command{
			Use:   "undo <list> <id>",
			Short: "Mark an item not completed",
			Args:  cobra.ExactArgs(2),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				_, err := a.SetCompleted(ctx, args[0], args[1], false)
				return err
			}),
		},
		&cobra.Command{
			Use:   "edit <list> <id> <text...>",
			Short: "Change the text of an item",
			Args:  cobra.MinimumNArgs(3),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				_, err := a.EditTodo(ctx, args[0], args[1], strings.Join(args[2:], " "))
				return err
			}),
		},
		rm,
		&cobra.Command{
			Use:   "stats <list>",
			Short: "Count completed and remaining items",
			Args:  cobra.ExactArgs(1),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				return a.TodoStats(ctx, args[0])
			}),
		},
	)
	return cmd
}
