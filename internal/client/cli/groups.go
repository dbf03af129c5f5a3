package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/listsync"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/spf13/cobra"
)

func stateName(state int) string {
	switch state {
	case platform.StateSuperAdmin:
		return "superadmin"
	case platform.StateAdmin:
		return "admin"
	case platform.StateMember:
		return "member"
	case platform.StateInvited:
		return "invited"
	}
	return strconv.Itoa(state)
}

func parseState(s string) (int, error) {
	for st := platform.StateSuperAdmin; st <= platform.StateInvited; st++ {
		if stateName(st) == s {
			return st, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < platform.StateSuperAdmin || n > platform.StateInvited {
		return 0, fmt.Errorf("%w: unknown membership state %q", common.ErrorValidation, s)
	}
	return n, nil
}

func (a *App) printGroups(groups []listsync.GroupMembership) {
	if len(groups) == 0 {
		a.println("No groups")
		return
	}
	for _, g := range groups {
		joined := ""
		if g.IsMember {
			joined = " *"
		}
		a.printf("%s\t%s (%d/%d)%s\n", g.ID, g.Name, g.EdgeCount, g.MaxCount, joined)
	}
}

// Groups prints every group, marking the ones the caller belongs to.
func (a *App) Groups(ctx context.Context) ([]listsync.GroupMembership, error) {
	groups, err := a.api.GroupsOverview(ctx)
	if err != nil {
		return nil, err
	}
	a.printGroups(groups)
	return groups, nil
}

func (a *App) SearchGroups(ctx context.Context, name string, limit int, cursor string) error {
	list, err := a.api.Groups(ctx, name, limit, cursor)
	if err != nil {
		return err
	}
	if len(list.Groups) == 0 {
		a.println("No groups")
	}
	for _, g := range list.Groups {
		a.printf("%s\t%s (%d/%d)\n", g.ID, g.Name, g.EdgeCount, g.MaxCount)
	}
	if list.Cursor != "" {
		a.printf("next cursor: %s\n", list.Cursor)
	}
	return nil
}

func (a *App) MyGroups(ctx context.Context) error {
	mine, err := a.api.MyGroups(ctx)
	if err != nil {
		return err
	}
	if len(mine) == 0 {
		a.println("No groups")
	}
	for _, ug := range mine {
		a.printf("%s\t%s\t%s\n", ug.Group.ID, ug.Group.Name, stateName(ug.State))
	}
	return nil
}

func (a *App) CreateGroup(ctx context.Context, req platform.CreateGroupRequest) (*platform.Group, error) {
	g, err := a.api.CreateGroup(ctx, req)
	if err != nil {
		return nil, err
	}
	a.printf("Created group %s (%s)\n", g.Name, g.ID)
	return g, nil
}

func (a *App) JoinGroup(ctx context.Context, groupID string) error {
	if err := a.api.JoinGroup(ctx, groupID); err != nil {
		return err
	}
	a.printf("Joined %s\n", groupID)
	return nil
}

func (a *App) GroupInfo(ctx context.Context, groupID string) error {
	g, err := a.api.GroupInfo(ctx, groupID)
	if err != nil {
		return err
	}
	a.printf("%s\t%s\n", g.ID, g.Name)
	if g.Description != "" {
		a.printf("description: %s\n", g.Description)
	}
	a.printf("open: %t, members: %d/%d, lang: %s\n", g.Open, g.EdgeCount, g.MaxCount, g.LangTag)
	return nil
}

func (a *App) Members(ctx context.Context, groupID string, limit int, state *int, cursor string) error {
	list, err := a.api.Members(ctx, groupID, limit, state, cursor)
	if err != nil {
		return err
	}
	if len(list.GroupUsers) == 0 {
		a.println("No members")
	}
	for _, gu := range list.GroupUsers {
		a.printf("%s\t%s\t%s\n", gu.User.ID, gu.User.Username, stateName(gu.State))
	}
	if list.Cursor != "" {
		a.printf("next cursor: %s\n", list.Cursor)
	}
	return nil
}

func newGroupCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "group",
		Aliases: []string{"groups"},
		Short:   "Browse, create and join groups",
	}

	var (
		search       string
		searchLimit  int
		searchCursor string
	)
	ls := &cobra.Command{
		Use:   "ls",
		Short: "Show all groups; joined ones are marked with *",
		Args:  cobra.NoArgs,
		RunE: st.withApp(func(ctx context.Context, a *App, _ []string) error {
			if search != "" {
				return a.SearchGroups(ctx, search, searchLimit, searchCursor)
			}
			_, err := a.Groups(ctx)
			return err
		}),
	}
	ls.Flags().StringVar(&search, "name", "", "search groups by name")
	ls.Flags().IntVar(&searchLimit, "limit", 0, "page size for --name")
	ls.Flags().StringVar(&searchCursor, "cursor", "", "page cursor for --name")

	var (
		req    platform.CreateGroupRequest
		closed bool
	)
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
			req.Name = args[0]
			if closed {
				open := false
				req.Open = &open
			}
			_, err := a.CreateGroup(ctx, req)
			return err
		}),
	}
	create.Flags().StringVar(&req.Description, "description", "", "group description")
	create.Flags().StringVar(&req.LangTag, "lang", "", "language tag")
	create.Flags().IntVar(&req.MaxCount, "max", 0, "member limit")
	create.Flags().BoolVar(&closed, "closed", false, "require approval to join")

	var (
		memberState  string
		memberLimit  int
		memberCursor string
	)
	members := &cobra.Command{
		Use:   "members <group-id>",
		Short: "List the members of a group",
		Args:  cobra.ExactArgs(1),
		RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
			var state *int
			if memberState != "" {
				s, err := parseState(memberState)
				if err != nil {
					return err
				}
				state = &s
			}
			return a.Members(ctx, args[0], memberLimit, state, memberCursor)
		}),
	}
	members.Flags().StringVar(&memberState, "state", "", "only members in this state (superadmin, admin, member, invited)")
	members.Flags().IntVar(&memberLimit, "limit", 0, "page size")
	members.Flags().StringVar(&memberCursor, "cursor", "", "page cursor")

	cmd.AddCommand(
		ls,
		&cobra.Command{
			Use:   "mine",
			Short: "List the groups you belong to",
			Args:  cobra.NoArgs,
			RunE: st.withApp(func(ctx context.Context, a *App, _ []string) error {
				return a.MyGroups(ctx)
			}),
		},
		create,
		&cobra.Command{
			Use:   "join <group-id>",
			Short: "Join a group",
			Args:  cobra.ExactArgs(1),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				return a.JoinGroup(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "info <group-id>",
			Short: "Show a group",
			Args:  cobra.ExactArgs(1),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				return a.GroupInfo(ctx, args[0])
			}),
		},
		members,
	)
	return cmd
}
