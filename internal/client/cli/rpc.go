package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/spf13/cobra"
)

// CallRPC sends a JSON payload to a server function and prints the result
// indented.
func (a *App) CallRPC(ctx context.Context, endpoint, payload string) error {
	if strings.TrimSpace(payload) == "" {
		payload = "{}"
	}
	if !json.Valid([]byte(payload)) {
		return fmt.Errorf("%w: payload is not valid JSON", common.ErrorValidation)
	}
	raw, err := a.api.RPC(ctx, endpoint, json.RawMessage(payload))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		a.println(string(raw))
		return nil
	}
	a.println(buf.String())
	return nil
}

func (a *App) ListRoles(ctx context.Context) error {
	roles, err := a.api.ListRoles(ctx)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		a.println("No roles")
	}
	for _, r := range roles {
		a.printf("%s\t%s\t%s\n", r.RoleName, strings.Join(r.Permissions, ","), r.Description)
	}
	return nil
}

func newRPCCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "rpc <endpoint> [json]",
		Short: "Call a server function through the gateway",
		Args:  cobra.RangeArgs(1, 2),
		RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
			payload := ""
			if len(args) == 2 {
				payload = args[1]
			}
			return a.CallRPC(ctx, args[0], payload)
		}),
	}
}

func newRoleCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "role",
		Aliases: []string{"roles"},
		Short:   "Manage roles and permissions",
	}

	var (
		description string
		permissions []string
	)
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a role",
		Args:  cobra.ExactArgs(1),
		RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
			r, err := a.api.CreateRole(ctx, args[0], description, permissions)
			if err != nil {
				return err
			}
			a.printf("Created role %s\n", r.RoleName)
			return nil
		}),
	}
	create.Flags().StringVar(&description, "description", "", "role description")
	create.Flags().StringSliceVar(&permissions, "permission", nil, "permission to include (repeatable)")

	permission := func(use, short string, grant bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <role> <permission>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				if err := a.api.SetPermission(ctx, args[0], args[1], grant); err != nil {
					return err
				}
				a.println("OK")
				return nil
			}),
		}
	}
	membership := func(use, short string, grant bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <user-id> <role>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				if err := a.api.SetRole(ctx, args[0], args[1], grant); err != nil {
					return err
				}
				a.println("OK")
				return nil
			}),
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List roles",
			Args:  cobra.NoArgs,
			RunE: st.withApp(func(ctx context.Context, a *App, _ []string) error {
				return a.ListRoles(ctx)
			}),
		},
		create,
		&cobra.Command{
			Use:   "rm <name>",
			Short: "Delete a role",
			Args:  cobra.ExactArgs(1),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				if err := a.api.DeleteRole(ctx, args[0]); err != nil {
					return err
				}
				a.printf("Deleted role %s\n", args[0])
				return nil
			}),
		},
		permission("grant", "Add a permission to a role", true),
		permission("revoke", "Remove a permission from a role", false),
		membership("assign", "Give a user a role", true),
		membership("unassign", "Take a role from a user", false),
	)
	return cmd
}
