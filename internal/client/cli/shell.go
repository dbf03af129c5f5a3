package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/client/session"
	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/listsync"
	"github.com/spf13/cobra"
)

// shell keeps local copies of the lists it shows. Item edits are spliced
// into the local copy; lists and groups are read again after every change,
// and any failed mutation triggers a full reload of the affected list.
type shell struct {
	app     *App
	current *codec.TodoTitle
	titles  *listsync.List[codec.TodoTitle, string]
	todos   *listsync.List[codec.TodoItem, int64]
	groups  *listsync.List[listsync.GroupMembership, string]
}

func newShell(a *App) *shell {
	return &shell{
		app:    a,
		titles: listsync.New(func(t codec.TodoTitle) string { return t.ID }),
		todos:  listsync.New(func(t codec.TodoItem) int64 { return t.ID }),
		groups: listsync.New(func(g listsync.GroupMembership) string { return g.ID }),
	}
}

// reset drops everything read under the previous session.
func (s *shell) reset() {
	s.current = nil
	s.titles.Replace(nil)
	s.todos.Replace(nil)
	s.groups.Replace(nil)
}

func (s *shell) status() string {
	cur := s.app.sessions.Current()
	if !cur.LoggedIn() {
		return "not logged in"
	}
	if s.current != nil {
		return cur.Username + " @ " + s.current.Name
	}
	return cur.Username
}

const shellHelpLoggedOut = "Available commands: login <email> [name], help, exit"

const shellHelpLoggedIn = `Available commands:
  lists | newlist <name> | use <list>
  ls | todos | add <text> | done <id> | undo <id> | edit <id> <text> | rm <id> | stats
  groups | join <group-id>
  whoami | refresh | logout | help | exit`

// run reads commands until EOF or exit.
func (s *shell) run(ctx context.Context, scanner *bufio.Scanner) {
	cancel := s.app.sessions.Subscribe(func(c session.Credentials) {
		if !c.LoggedIn() {
			s.reset()
		}
	})
	defer cancel()

	for {
		s.app.printf("tb> %s > ", s.status())
		if !scanner.Scan() {
			s.app.println()
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		if parts[0] == "exit" || parts[0] == "quit" {
			s.app.println("Bye!")
			return
		}
		if err := s.exec(ctx, parts[0], parts[1:]); err != nil {
			s.app.printf("error: %v\n", err)
		}
	}
}

func (s *shell) exec(ctx context.Context, cmd string, args []string) error {
	a := s.app
	switch cmd {
	case "help":
		if a.sessions.Current().LoggedIn() {
			a.println(shellHelpLoggedIn)
		} else {
			a.println(shellHelpLoggedOut)
		}
		return nil

	case "login":
		if len(args) == 0 {
			return usage("login <email> [name]")
		}
		return a.Login(ctx, args[0], strings.Join(args[1:], " "))

	case "logout":
		return a.Logout(ctx)

	case "refresh":
		return a.Refresh(ctx)

	case "whoami":
		return a.Whoami(ctx)

	case "lists":
		if err := s.reloadTitles(ctx); err != nil {
			return err
		}
		a.printTitles(s.titles.Items())
		return nil

	case "newlist":
		if len(args) == 0 {
			return usage("newlist <name>")
		}
		_, err := a.AddTitle(ctx, strings.Join(args, " "))
		if rerr := s.reloadTitles(ctx); err == nil {
			err = rerr
		}
		return err

	case "use":
		if len(args) == 0 {
			return usage("use <list>")
		}
		return s.use(ctx, strings.Join(args, " "))

	case "ls":
		if err := s.requireList(); err != nil {
			return err
		}
		a.printTodos(s.todos.Items())
		return nil

	case "todos":
		if err := s.reloadTodos(ctx); err != nil {
			return err
		}
		a.printTodos(s.todos.Items())
		return nil

	case "add":
		if len(args) == 0 {
			return usage("add <text>")
		}
		return s.add(ctx, strings.Join(args, " "))

	case "done", "undo":
		if len(args) != 1 {
			return usage(cmd + " <id>")
		}
		return s.setCompleted(ctx, args[0], cmd == "done")

	case "edit":
		if len(args) < 2 {
			return usage("edit <id> <text>")
		}
		return s.edit(ctx, args[0], strings.Join(args[1:], " "))

	case "rm":
		if len(args) != 1 {
			return usage("rm <id>")
		}
		return s.remove(ctx, args[0])

	case "stats":
		if err := s.requireList(); err != nil {
			return err
		}
		a.printStats(s.todos.Items())
		return nil

	case "groups":
		if err := s.reloadGroups(ctx); err != nil {
			return err
		}
		a.printGroups(s.groups.Items())
		return nil

	case "join":
		if len(args) != 1 {
			return usage("join <group-id>")
		}
		err := a.JoinGroup(ctx, args[0])
		if rerr := s.reloadGroups(ctx); err == nil {
			err = rerr
		}
		return err
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func usage(u string) error {
	return fmt.Errorf("%w: usage: %s", common.ErrorValidation, u)
}

func (s *shell) reloadTitles(ctx context.Context) error {
	return s.titles.Reload(ctx, s.app.titles.List)
}

func (s *shell) reloadGroups(ctx context.Context) error {
	return s.groups.Reload(ctx, s.app.api.GroupsOverview)
}

func (s *shell) requireList() error {
	if s.current == nil {
		return fmt.Errorf("%w: no list selected, use \"use <list>\"", common.ErrorValidation)
	}
	return nil
}

func (s *shell) reloadTodos(ctx context.Context) error {
	if err := s.requireList(); err != nil {
		return err
	}
	name := s.current.Name
	return s.todos.Reload(ctx, func(ctx context.Context) ([]codec.TodoItem, error) {
		return s.app.todos.List(ctx, name)
	})
}

func (s *shell) use(ctx context.Context, ref string) error {
	if err := s.reloadTitles(ctx); err != nil {
		return err
	}
	var found *codec.TodoTitle
	for _, t := range s.titles.Items() {
		if t.ID == ref || t.Name == ref {
			found = &t
			break
		}
	}
	if found == nil {
		return fmt.Errorf("%w: no list %q", common.ErrorNotFound, ref)
	}
	s.current = found
	s.todos.Replace(nil)
	if err := s.reloadTodos(ctx); err != nil {
		return err
	}
	s.app.printTodos(s.todos.Items())
	return nil
}

// reloadAfter reloads the current list after a failed mutation and returns the
// original error.
func (s *shell) reloadAfter(ctx context.Context, err error) error {
	if rerr := s.reloadTodos(ctx); rerr != nil {
		s.app.logger.Warn(ctx, "reload after failed change", "error", rerr)
	}
	return err
}

func (s *shell) item(id string) (codec.TodoItem, error) {
	if err := s.requireList(); err != nil {
		return codec.TodoItem{}, err
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return codec.TodoItem{}, fmt.Errorf("%w: bad item id %q", common.ErrorValidation, id)
	}
	it, ok := s.todos.Get(n)
	if !ok {
		return it, fmt.Errorf("%w: no item %d", common.ErrorNotFound, n)
	}
	return it, nil
}

func (s *shell) add(ctx context.Context, text string) error {
	if err := s.requireList(); err != nil {
		return err
	}
	it, err := s.app.todos.Create(ctx, s.current.Name, text)
	if err != nil {
		return s.reloadAfter(ctx, err)
	}
	s.todos.Upsert(it)
	s.app.printf("Added %d\n", it.ID)
	return nil
}

func (s *shell) setCompleted(ctx context.Context, id string, done bool) error {
	it, err := s.item(id)
	if err != nil {
		return err
	}
	it.Completed = done
	it, err = s.app.todos.Update(ctx, it)
	if err != nil {
		return s.reloadAfter(ctx, err)
	}
	s.todos.Upsert(it)
	s.app.printf("Updated %d\n", it.ID)
	return nil
}

func (s *shell) edit(ctx context.Context, id, text string) error {
	it, err := s.item(id)
	if err != nil {
		return err
	}
	it.Text = strings.TrimSpace(text)
	it, err = s.app.api.UpdateTodo(ctx, it)
	if err != nil {
		return s.reloadAfter(ctx, err)
	}
	s.todos.Upsert(it)
	s.app.printf("Updated %d\n", it.ID)
	return nil
}

func (s *shell) remove(ctx context.Context, id string) error {
	it, err := s.item(id)
	if err != nil {
		return err
	}
	s.todos.Remove(it.ID)
	if err := s.app.todos.Delete(ctx, it); err != nil {
		return s.reloadAfter(ctx, err)
	}
	s.app.printf("Removed %d\n", it.ID)
	return nil
}

func newShellCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive mode",
		Args:  cobra.NoArgs,
		RunE: st.withApp(func(ctx context.Context, a *App, _ []string) error {
			newShell(a).run(ctx, bufio.NewScanner(a.reader))
			return nil
		}),
	}
}
